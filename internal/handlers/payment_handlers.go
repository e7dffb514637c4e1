package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/gateway"
	"storefront-service/internal/middleware"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// PaymentHandlers handles payment session, webhook and confirmation endpoints
type PaymentHandlers struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandlers {
	return &PaymentHandlers{payments: payments, logger: logger}
}

// CreateSession opens a hosted-payment session for an order
// @Summary Create a payment session
// @Tags payments
// @Produce json
// @Param gateway path string true "Gateway name"
// @Param orderId path string true "Order ID"
// @Success 200 {object} models.SuccessResponse
// @Router /payment/{gateway}/create/{orderId} [post]
func (h *PaymentHandlers) CreateSession(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}

	session, err := h.payments.CreateSession(c.Request.Context(), c.Param("gateway"), orderID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, session)
}

// Webhook ingests a provider callback. The provider retries on non-2xx, so
// only unknown references (404) and undecodable payloads (400) are errors;
// downstream failures are logged and acknowledged to avoid a retry storm.
func (h *PaymentHandlers) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), c.Param("gateway"), payload); err != nil {
		var notFoundErr *services.NotFoundError
		var validationErr *services.ValidationError
		var gatewayErr *gateway.GatewayError
		switch {
		case errors.As(err, &notFoundErr),
			errors.As(err, &validationErr),
			errors.As(err, &gatewayErr) && gatewayErr.Code == gateway.ErrCodeInvalidPayload:
			respondServiceError(c, h.logger, err)
		default:
			h.logger.WithError(err).Error("Webhook processing failed, acknowledging to stop retries")
			c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Webhook received"})
		}
		return
	}

	middleware.RecordPaymentTransition("webhook_processed", "webhook")
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Webhook processed"})
}

// Confirm is the storefront return/poll endpoint. Safe to call repeatedly;
// a settled order reports its state without side effects.
func (h *PaymentHandlers) Confirm(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}

	confirmation, err := h.payments.ConfirmReturn(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	middleware.RecordPaymentTransition(string(confirmation.PaymentStatus), "poll")
	respondOK(c, http.StatusOK, confirmation)
}

// Status returns the read-only payment view of an order
func (h *PaymentHandlers) Status(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}

	report, err := h.payments.Status(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}
