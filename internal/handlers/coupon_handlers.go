package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
	"storefront-service/internal/services"
)

// CouponHandlers handles coupon validation and administration endpoints
type CouponHandlers struct {
	coupons    *services.CouponService
	repository repository.CouponRepository
	logger     *logrus.Logger
}

// NewCouponHandlers creates new coupon handlers
func NewCouponHandlers(coupons *services.CouponService, repo repository.CouponRepository, logger *logrus.Logger) *CouponHandlers {
	return &CouponHandlers{coupons: coupons, repository: repo, logger: logger}
}

// Validate checks a coupon code against a cart. An invalid coupon is a 200
// with valid=false and a reason; only malformed payloads are errors.
// @Summary Validate a coupon code
// @Tags coupons
// @Accept json
// @Produce json
// @Param request body models.ValidateCouponRequest true "Code and cart"
// @Success 200 {object} models.SuccessResponse
// @Router /coupons/validate [post]
func (h *CouponHandlers) Validate(c *gin.Context) {
	var req models.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.coupons.Validate(c.Request.Context(), req.Code, req.CartTotal, req.Items)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// List returns a page of coupons for the admin view
func (h *CouponHandlers) List(c *gin.Context) {
	page, limit := pageParams(c)
	coupons, total, err := h.repository.List(c.Request.Context(), c.Query("active") == "true", page, limit)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"coupons": coupons,
		"pagination": models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	})
}

// Create adds a coupon
func (h *CouponHandlers) Create(c *gin.Context) {
	var req models.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeValidation,
			"Percentage value cannot exceed 100",
			gin.H{"value": "must be at most 100"},
		))
		return
	}

	coupon := &models.Coupon{
		Code:                 models.NormalizeCouponCode(req.Code),
		Description:          req.Description,
		Type:                 req.Type,
		Value:                req.Value,
		MinAmount:            req.MinAmount,
		MaxDiscount:          req.MaxDiscount,
		UsageLimit:           req.UsageLimit,
		ExpiresAt:            req.ExpiresAt,
		ApplicableProducts:   models.StringList(req.ApplicableProducts),
		ApplicableCategories: models.StringList(req.ApplicableCategories),
		IsActive:             true,
	}
	if req.IsStackable != nil {
		coupon.IsStackable = *req.IsStackable
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.repository.Create(c.Request.Context(), coupon); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	h.logger.WithField("code", coupon.Code).Info("Coupon created")
	respondOK(c, http.StatusCreated, coupon)
}

// Get returns a single coupon
func (h *CouponHandlers) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	coupon, err := h.repository.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if coupon == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("coupon", id.String()))
		return
	}
	respondOK(c, http.StatusOK, coupon)
}

// Update applies a partial update to a coupon. The code itself is
// immutable; customers may already hold it.
func (h *CouponHandlers) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	coupon, err := h.repository.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if coupon == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("coupon", id.String()))
		return
	}

	if req.Description != nil {
		coupon.Description = *req.Description
	}
	if req.Type != nil {
		coupon.Type = *req.Type
	}
	if req.Value != nil {
		coupon.Value = *req.Value
	}
	if req.MinAmount != nil {
		coupon.MinAmount = req.MinAmount
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = req.MaxDiscount
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = req.UsageLimit
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = req.ExpiresAt
	}
	if req.IsStackable != nil {
		coupon.IsStackable = *req.IsStackable
	}
	if req.ApplicableProducts != nil {
		coupon.ApplicableProducts = models.StringList(req.ApplicableProducts)
	}
	if req.ApplicableCategories != nil {
		coupon.ApplicableCategories = models.StringList(req.ApplicableCategories)
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.repository.Update(c.Request.Context(), coupon); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, coupon)
}

// Delete removes a coupon
func (h *CouponHandlers) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repository.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Coupon deleted"})
}

// Stats returns redemption aggregates for the admin dashboard
func (h *CouponHandlers) Stats(c *gin.Context) {
	stats, err := h.repository.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
