package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// BundleService computes bundle discounts for carts and manages the
// admin bundle catalog
type BundleService struct {
	bundles  repository.BundleRepository
	products repository.ProductRepository
	logger   *logrus.Logger
	now      func() time.Time
}

// NewBundleService creates a new bundle service
func NewBundleService(bundles repository.BundleRepository, products repository.ProductRepository, logger *logrus.Logger) *BundleService {
	return &BundleService{bundles: bundles, products: products, logger: logger, now: time.Now}
}

// ComputeDiscount finds the best applicable bundle for a cart.
//
// A bundle applies when every constituent product appears in the cart. The
// saving counts each constituent line at full cart value (price × quantity)
// against the bundle price. Only strictly positive savings qualify; the
// largest saving wins, and equal savings keep the earliest-created bundle.
// Lookup failures degrade to no discount so checkout proceeds at full price.
func (s *BundleService) ComputeDiscount(ctx context.Context, items []models.CartItem) models.BundleDiscountResult {
	bundles, err := s.bundles.ListActive(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Warn("Bundle lookup failed, skipping bundle discount")
		return models.BundleDiscountResult{}
	}

	cart := make(map[uuid.UUID]models.CartItem, len(items))
	for _, item := range items {
		cart[item.ProductID] = item
	}

	var best *models.Bundle
	var bestSavings float64

	for i := range bundles {
		bundle := &bundles[i]
		if len(bundle.Products) < 2 {
			continue
		}

		constituentsTotal, ok := bundleCartValue(bundle, cart)
		if !ok {
			continue
		}

		savings := constituentsTotal - bundle.BundlePrice
		if savings <= 0 {
			continue
		}
		// Strict comparison keeps the earliest-created bundle on ties;
		// the repository returns bundles oldest first.
		if savings > bestSavings {
			best = bundle
			bestSavings = savings
		}
	}

	if best == nil {
		return models.BundleDiscountResult{}
	}

	// Percentage is relative to the bundle's listed original price, not
	// the cart valuation of its constituents.
	percentage := 0
	if best.OriginalPrice > 0 {
		percentage = int(math.Round(bestSavings / best.OriginalPrice * 100))
	}

	return models.BundleDiscountResult{
		Applied: true,
		Bundle: &models.AppliedBundleInfo{
			ID:          best.ID,
			Name:        best.Name,
			BundlePrice: best.BundlePrice,
		},
		DiscountAmount:     bestSavings,
		DiscountPercentage: percentage,
	}
}

// ListActive returns bundles active now, optionally filtered by category
func (s *BundleService) ListActive(ctx context.Context, category string) ([]models.Bundle, error) {
	bundles, err := s.bundles.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if category == "" {
		return bundles, nil
	}
	filtered := make([]models.Bundle, 0, len(bundles))
	for _, b := range bundles {
		if b.Category == category {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// CreateBundle validates and persists an admin-defined bundle. The
// constituent set must hold at least two distinct products, all present in
// the catalog. OriginalPrice defaults to the sum of constituent base prices
// and BundlePrice must undercut it.
func (s *BundleService) CreateBundle(ctx context.Context, req *models.CreateBundleRequest) (*models.Bundle, error) {
	productIDs := dedupe(req.ProductIDs)
	if len(productIDs) < 2 {
		return nil, NewValidationError("a bundle needs at least two distinct products", map[string]string{
			"productIds": "at least two distinct products required",
		})
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	if len(products) != len(productIDs) {
		return nil, NewValidationError("bundle references unknown products", map[string]string{
			"productIds": "one or more products not found",
		})
	}

	originalPrice := 0.0
	for _, p := range products {
		originalPrice += p.BasePrice
	}
	if req.OriginalPrice != nil {
		originalPrice = *req.OriginalPrice
	}
	if req.BundlePrice >= originalPrice {
		return nil, NewValidationError("bundle price must undercut the original price", map[string]string{
			"bundlePrice": "must be lower than originalPrice",
		})
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, NewValidationError("bundle window ends before it starts", map[string]string{
			"endDate": "must be after startDate",
		})
	}

	bundle := &models.Bundle{
		Name:          req.Name,
		Description:   req.Description,
		BundlePrice:   req.BundlePrice,
		OriginalPrice: originalPrice,
		BundleType:    models.DeriveBundleType(len(productIDs)),
		Category:      req.Category,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
	}
	if req.IsActive != nil {
		bundle.IsActive = *req.IsActive
	}
	for i, id := range productIDs {
		bundle.Products = append(bundle.Products, models.BundleProduct{
			ProductID: id,
			Position:  i,
		})
	}

	if err := s.bundles.Create(ctx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// UpdateBundle applies a partial admin update, replacing the constituent
// set when productIds are supplied.
func (s *BundleService) UpdateBundle(ctx context.Context, id uuid.UUID, req *models.UpdateBundleRequest) (*models.Bundle, error) {
	bundle, err := s.bundles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return nil, NewNotFoundError("bundle", id.String())
	}

	if req.Name != nil {
		bundle.Name = *req.Name
	}
	if req.Description != nil {
		bundle.Description = *req.Description
	}
	if req.BundlePrice != nil {
		bundle.BundlePrice = *req.BundlePrice
	}
	if req.OriginalPrice != nil {
		bundle.OriginalPrice = *req.OriginalPrice
	}
	if req.Category != nil {
		bundle.Category = *req.Category
	}
	if req.StartDate != nil {
		bundle.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		bundle.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		bundle.IsActive = *req.IsActive
	}

	if len(req.ProductIDs) > 0 {
		productIDs := dedupe(req.ProductIDs)
		if len(productIDs) < 2 {
			return nil, NewValidationError("a bundle needs at least two distinct products", map[string]string{
				"productIds": "at least two distinct products required",
			})
		}
		products, err := s.products.GetByIDs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		if len(products) != len(productIDs) {
			return nil, NewValidationError("bundle references unknown products", map[string]string{
				"productIds": "one or more products not found",
			})
		}

		replacements := make([]models.BundleProduct, 0, len(productIDs))
		for i, pid := range productIDs {
			replacements = append(replacements, models.BundleProduct{
				BundleID:  bundle.ID,
				ProductID: pid,
				Position:  i,
			})
		}
		if err := s.bundles.ReplaceProducts(ctx, bundle.ID, replacements); err != nil {
			return nil, err
		}
		bundle.Products = replacements
		bundle.BundleType = models.DeriveBundleType(len(productIDs))

		if req.OriginalPrice == nil {
			originalPrice := 0.0
			for _, p := range products {
				originalPrice += p.BasePrice
			}
			bundle.OriginalPrice = originalPrice
		}
	}

	if bundle.BundlePrice >= bundle.OriginalPrice {
		return nil, NewValidationError("bundle price must undercut the original price", map[string]string{
			"bundlePrice": "must be lower than originalPrice",
		})
	}

	if err := s.bundles.Update(ctx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// bundleCartValue sums price × quantity over the bundle's constituents as
// they appear in the cart. Returns false when any constituent is missing.
func bundleCartValue(bundle *models.Bundle, cart map[uuid.UUID]models.CartItem) (float64, bool) {
	var total float64
	for _, pid := range bundle.ProductIDs() {
		item, present := cart[pid]
		if !present {
			return 0, false
		}
		total += item.Price * float64(item.Quantity)
	}
	return total, true
}
