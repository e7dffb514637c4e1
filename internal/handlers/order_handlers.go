package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// OrderHandlers handles checkout and order administration endpoints
type OrderHandlers struct {
	orders *services.OrderService
	logger *logrus.Logger
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(orders *services.OrderService, logger *logrus.Logger) *OrderHandlers {
	return &OrderHandlers{orders: orders, logger: logger}
}

// Create places an order
// @Summary Create an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Checkout payload"
// @Success 201 {object} models.SuccessResponse
// @Router /orders [post]
func (h *OrderHandlers) Create(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

// Get returns a single order
func (h *OrderHandlers) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// GetByNumber returns a single order looked up by its display number
func (h *OrderHandlers) GetByNumber(c *gin.Context) {
	order, err := h.orders.GetByOrderNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// List returns a filtered page of orders for the admin view
func (h *OrderHandlers) List(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.orders.List(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// UpdateStatus moves an order through fulfillment
func (h *OrderHandlers) UpdateStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// Stats returns order aggregates for the admin dashboard
func (h *OrderHandlers) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
