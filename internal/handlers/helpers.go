package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// respondOK writes the standard success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.SuccessResponse{Success: true, Data: data})
}

// respondBindError writes a 400 for a payload that failed binding
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.NewErrorResponse(
		models.ErrCodeValidation,
		"Invalid request payload",
		err.Error(),
	))
}

// respondServiceError maps service-layer errors to the HTTP error taxonomy.
// Unrecognized errors become a generic 500 with the detail kept in the log.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		gatewayErr    *gateway.GatewayError
	)

	switch {
	case errors.As(err, &validationErr):
		var details interface{}
		if len(validationErr.Fields) > 0 {
			details = validationErr.Fields
		}
		c.JSON(http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeValidation, validationErr.Message, details))

	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, models.NewErrorResponse(
			models.ErrCodeNotFound, notFoundErr.Error(), nil))

	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, models.NewErrorResponse(
			models.ErrCodeNotFound, "Resource not found", nil))

	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, models.NewErrorResponse(
			models.ErrCodeConflict, "Resource already exists", nil))

	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, models.NewErrorResponse(
			models.ErrCodeConflict, conflictErr.Message, nil))

	case errors.As(err, &gatewayErr):
		log.WithError(err).Error("Payment gateway error")
		if gatewayErr.Code == gateway.ErrCodeInvalidPayload {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(
				models.ErrCodeValidation, gatewayErr.Message, nil))
			return
		}
		c.JSON(http.StatusBadGateway, models.NewErrorResponse(
			models.ErrCodeGateway, gatewayErr.Message, gin.H{"retryable": gatewayErr.Retryable}))

	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternal, "An unexpected error occurred", nil))
	}
}

// pageParams reads page/limit query parameters with sane bounds
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// parseUUIDParam reads a UUID path parameter, writing a 400 on failure
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeValidation,
			"Invalid "+name+" parameter",
			err.Error(),
		))
		return uuid.Nil, false
	}
	return id, true
}
