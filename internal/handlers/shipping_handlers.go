package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
	"storefront-service/internal/services"
)

// ShippingHandlers handles shipping quote and rule administration endpoints
type ShippingHandlers struct {
	shipping *services.ShippingService
	rules    repository.ShippingRuleRepository
	logger   *logrus.Logger
}

// NewShippingHandlers creates new shipping handlers
func NewShippingHandlers(shipping *services.ShippingService, rules repository.ShippingRuleRepository, logger *logrus.Logger) *ShippingHandlers {
	return &ShippingHandlers{shipping: shipping, rules: rules, logger: logger}
}

// Calculate quotes shipping for a cart
// @Summary Calculate shipping cost
// @Tags shipping
// @Accept json
// @Produce json
// @Param request body models.CalculateShippingRequest true "Cart summary"
// @Success 200 {object} models.SuccessResponse
// @Router /shipping/calculate [post]
func (h *ShippingHandlers) Calculate(c *gin.Context) {
	var req models.CalculateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote := h.shipping.Resolve(c.Request.Context(), req.Subtotal, req.Region, req.Weight)
	respondOK(c, http.StatusOK, quote)
}

// ListActive returns the active shipping rules for the storefront
func (h *ShippingHandlers) ListActive(c *gin.Context) {
	rules, err := h.shipping.ListActiveRules(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, rules)
}

// List returns all shipping rules for the admin view
func (h *ShippingHandlers) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, rules)
}

// Create adds a shipping rule
func (h *ShippingHandlers) Create(c *gin.Context) {
	var req models.CreateShippingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rule := &models.ShippingRule{
		Name:           req.Name,
		Region:         req.Region,
		MinOrderAmount: req.MinOrderAmount,
		MaxOrderAmount: req.MaxOrderAmount,
		MinWeight:      req.MinWeight,
		MaxWeight:      req.MaxWeight,
		ShippingCost:   req.ShippingCost,
		FreeShippingAt: req.FreeShippingAt,
		DeliveryDays:   req.DeliveryDays,
		Priority:       100,
		IsActive:       true,
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.rules.Create(c.Request.Context(), rule); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	h.logger.WithField("ruleId", rule.ID).Info("Shipping rule created")
	respondOK(c, http.StatusCreated, rule)
}

// Get returns a single shipping rule
func (h *ShippingHandlers) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	rule, err := h.rules.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if rule == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("shipping rule", id.String()))
		return
	}
	respondOK(c, http.StatusOK, rule)
}

// Update applies a partial update to a shipping rule
func (h *ShippingHandlers) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateShippingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rule, err := h.rules.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if rule == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("shipping rule", id.String()))
		return
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Region != nil {
		rule.Region = *req.Region
	}
	if req.MinOrderAmount != nil {
		rule.MinOrderAmount = *req.MinOrderAmount
	}
	if req.MaxOrderAmount != nil {
		rule.MaxOrderAmount = req.MaxOrderAmount
	}
	if req.MinWeight != nil {
		rule.MinWeight = *req.MinWeight
	}
	if req.MaxWeight != nil {
		rule.MaxWeight = req.MaxWeight
	}
	if req.ShippingCost != nil {
		rule.ShippingCost = *req.ShippingCost
	}
	if req.FreeShippingAt != nil {
		rule.FreeShippingAt = req.FreeShippingAt
	}
	if req.DeliveryDays != nil {
		rule.DeliveryDays = *req.DeliveryDays
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.rules.Update(c.Request.Context(), rule); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, rule)
}

// Delete removes a shipping rule
func (h *ShippingHandlers) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.rules.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Shipping rule deleted"})
}
