package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// CouponService validates and redeems coupon codes
type CouponService struct {
	coupons repository.CouponRepository
	orders  repository.OrderRepository
	logger  *logrus.Logger
	now     func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(coupons repository.CouponRepository, orders repository.OrderRepository, logger *logrus.Logger) *CouponService {
	return &CouponService{coupons: coupons, orders: orders, logger: logger, now: time.Now}
}

// Validate checks a coupon against a cart. Checks run in a fixed order and
// the first failure wins: existence/active, expiry, usage limit, minimum
// amount, product/category scope.
func (s *CouponService) Validate(ctx context.Context, code string, cartTotal float64, items []models.ValidateCouponItem) (models.CouponValidationResult, error) {
	normalized := models.NormalizeCouponCode(code)
	result := models.CouponValidationResult{Code: normalized, FinalTotal: cartTotal}

	coupon, err := s.coupons.GetByCode(ctx, normalized)
	if err != nil {
		return result, err
	}
	if coupon == nil {
		result.Reason = models.CouponReasonNotFound
		result.Message = "Coupon code not found"
		return result, nil
	}
	if !coupon.IsActive {
		result.Reason = models.CouponReasonInactive
		result.Message = "Coupon is not active"
		return result, nil
	}
	if coupon.IsExpired(s.now()) {
		result.Reason = models.CouponReasonExpired
		result.Message = "Coupon has expired"
		return result, nil
	}
	if coupon.IsExhausted() {
		result.Reason = models.CouponReasonUsageLimit
		result.Message = "Coupon usage limit reached"
		return result, nil
	}
	if coupon.MinAmount != nil && cartTotal < *coupon.MinAmount {
		result.Reason = models.CouponReasonMinAmount
		result.Message = fmt.Sprintf("Minimum order amount of %.2f not met", *coupon.MinAmount)
		return result, nil
	}
	if coupon.HasScope() && !cartMatchesScope(coupon, items) {
		result.Reason = models.CouponReasonNotApplicable
		result.Message = "Coupon is not applicable to items in the cart"
		return result, nil
	}

	discount := CalculateCouponDiscount(coupon, cartTotal)

	result.Valid = true
	result.Type = coupon.Type
	result.DiscountAmount = discount
	result.FinalTotal = cartTotal - discount
	return result, nil
}

// ValidateForOrder runs Validate and additionally rejects non-stackable
// coupons when another discount already applies to the order.
func (s *CouponService) ValidateForOrder(ctx context.Context, code string, cartTotal float64, items []models.ValidateCouponItem, hasBundleDiscount bool) (models.CouponValidationResult, error) {
	result, err := s.Validate(ctx, code, cartTotal, items)
	if err != nil || !result.Valid {
		return result, err
	}

	if hasBundleDiscount {
		coupon, err := s.coupons.GetByCode(ctx, result.Code)
		if err != nil {
			return result, err
		}
		if coupon != nil && !coupon.IsStackable {
			result.Valid = false
			result.DiscountAmount = 0
			result.FinalTotal = cartTotal
			result.Reason = models.CouponReasonNotStackable
			result.Message = "Coupon cannot be combined with a bundle discount"
		}
	}
	return result, nil
}

// Redeem bumps the coupon's usage counter for a paid order, at most once
// per order. The order's coupon_applied flag is the claim: only the caller
// that flips it performs the increment.
func (s *CouponService) Redeem(ctx context.Context, orderID uuid.UUID, code string) error {
	claimed, err := s.orders.ClaimCouponRedemption(ctx, orderID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	bumped, err := s.coupons.IncrementUsage(ctx, code)
	if err != nil {
		return err
	}
	if !bumped {
		// Limit hit between validation and redemption. The order keeps its
		// discount; we only log the oversell for follow-up.
		s.logger.WithFields(logrus.Fields{
			"orderId": orderID,
			"code":    code,
		}).Warn("Coupon usage limit reached before redemption")
	}
	return nil
}

// CalculateCouponDiscount computes the discount a coupon grants on a cart
// total. Percentage coupons are capped at MaxDiscount; flat coupons are
// clamped to the cart total so the final total never goes negative.
func CalculateCouponDiscount(coupon *models.Coupon, cartTotal float64) float64 {
	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = cartTotal * coupon.Value / 100
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
	case models.CouponTypeFlat:
		discount = coupon.Value
	}
	if discount > cartTotal {
		discount = cartTotal
	}
	return discount
}

// cartMatchesScope reports whether any cart line falls inside the coupon's
// applicable products or categories.
func cartMatchesScope(coupon *models.Coupon, items []models.ValidateCouponItem) bool {
	for _, item := range items {
		if coupon.ApplicableProducts.Contains(item.ProductID.String()) {
			return true
		}
		if item.CategoryID != nil && coupon.ApplicableCategories.Contains(item.CategoryID.String()) {
			return true
		}
	}
	return false
}
