package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
	"storefront-service/internal/services"
)

// ProductHandlers handles the thin catalog surface
type ProductHandlers struct {
	products repository.ProductRepository
	logger   *logrus.Logger
}

// NewProductHandlers creates new product handlers
func NewProductHandlers(products repository.ProductRepository, logger *logrus.Logger) *ProductHandlers {
	return &ProductHandlers{products: products, logger: logger}
}

// List returns a page of products. Public callers only see active ones.
func (h *ProductHandlers) List(c *gin.Context) {
	page, limit := pageParams(c)
	products, total, err := h.products.List(c.Request.Context(), c.Query("all") != "true", page, limit)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"products": products,
		"pagination": models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	})
}

// Get returns a single product
func (h *ProductHandlers) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if product == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("product", id.String()))
		return
	}
	respondOK(c, http.StatusOK, product)
}

// Create adds a product
func (h *ProductHandlers) Create(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	existing, err := h.products.GetBySKU(c.Request.Context(), req.SKU)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if existing != nil {
		respondServiceError(c, h.logger, services.NewConflictError("a product with this SKU already exists"))
		return
	}

	product := &models.Product{
		Title:      req.Title,
		SKU:        req.SKU,
		BasePrice:  req.BasePrice,
		Weight:     req.Weight,
		CategoryID: req.CategoryID,
		IsActive:   true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.products.Create(c.Request.Context(), product); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	h.logger.WithField("sku", product.SKU).Info("Product created")
	respondOK(c, http.StatusCreated, product)
}

// Update applies a partial update to a product
func (h *ProductHandlers) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if product == nil {
		respondServiceError(c, h.logger, services.NewNotFoundError("product", id.String()))
		return
	}

	if req.Title != nil {
		product.Title = *req.Title
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.BasePrice != nil {
		product.BasePrice = *req.BasePrice
	}
	if req.Weight != nil {
		product.Weight = *req.Weight
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.products.Update(c.Request.Context(), product); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandlers) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Product deleted"})
}
