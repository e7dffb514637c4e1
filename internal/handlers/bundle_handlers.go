package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
	"storefront-service/internal/services"
)

// BundleHandlers handles bundle discount and administration endpoints
type BundleHandlers struct {
	bundles    *services.BundleService
	repository repository.BundleRepository
	logger     *logrus.Logger
}

// NewBundleHandlers creates new bundle handlers
func NewBundleHandlers(bundles *services.BundleService, repo repository.BundleRepository, logger *logrus.Logger) *BundleHandlers {
	return &BundleHandlers{bundles: bundles, repository: repo, logger: logger}
}

// CalculateDiscount finds the best bundle discount for a cart
// @Summary Calculate bundle discount
// @Tags bundles
// @Accept json
// @Produce json
// @Param request body models.CalculateBundleDiscountRequest true "Cart items"
// @Success 200 {object} models.SuccessResponse
// @Router /bundles/calculate-discount [post]
func (h *BundleHandlers) CalculateDiscount(c *gin.Context) {
	var req models.CalculateBundleDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result := h.bundles.ComputeDiscount(c.Request.Context(), req.CartItems)
	respondOK(c, http.StatusOK, result)
}

// ListActive returns bundles currently active
func (h *BundleHandlers) ListActive(c *gin.Context) {
	bundles, err := h.bundles.ListActive(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, bundles)
}

// List returns all bundles for the admin view
func (h *BundleHandlers) List(c *gin.Context) {
	bundles, err := h.repository.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, bundles)
}

// Create adds a bundle
func (h *BundleHandlers) Create(c *gin.Context) {
	var req models.CreateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bundle, err := h.bundles.CreateBundle(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	h.logger.WithField("bundleId", bundle.ID).Info("Bundle created")
	respondOK(c, http.StatusCreated, bundle)
}

// Get returns a single bundle
func (h *BundleHandlers) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	bundle, err := h.repository.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if bundle == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("bundle", id.String()))
		return
	}
	respondOK(c, http.StatusOK, bundle)
}

// Update applies a partial update to a bundle
func (h *BundleHandlers) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bundle, err := h.bundles.UpdateBundle(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, bundle)
}

// Delete removes a bundle
func (h *BundleHandlers) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repository.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Bundle deleted"})
}
