package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"storefront-service/internal/models"
)

type stubProductRepo struct {
	bySKU map[string]*models.Product
}

func (s *stubProductRepo) Create(_ context.Context, product *models.Product) error {
	if s.bySKU == nil {
		s.bySKU = map[string]*models.Product{}
	}
	s.bySKU[product.SKU] = product
	return nil
}

func (s *stubProductRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) GetByIDs(_ context.Context, _ []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) GetBySKU(_ context.Context, sku string) (*models.Product, error) {
	return s.bySKU[sku], nil
}

func (s *stubProductRepo) List(_ context.Context, _ bool, _, _ int) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (s *stubProductRepo) Update(_ context.Context, _ *models.Product) error { return nil }
func (s *stubProductRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }

func productRouter(repo *stubProductRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := NewProductHandlers(repo, logger)
	router := gin.New()
	router.POST("/products", h.Create)
	return router
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	repo := &stubProductRepo{bySKU: map[string]*models.Product{
		"TEE-1": {ID: uuid.New(), Title: "Tee", SKU: "TEE-1", BasePrice: 40},
	}}
	router := productRouter(repo)

	body := `{"title":"Another tee","sku":"TEE-1","basePrice":45}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateProduct(t *testing.T) {
	repo := &stubProductRepo{}
	router := productRouter(repo)

	body := `{"title":"Tee","sku":"TEE-1","basePrice":40,"weight":0.2}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, repo.bySKU["TEE-1"])
}
