package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-service/internal/models"
)

// CouponRepository defines the interface for coupon data operations
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]models.Coupon, int64, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, code string) (bool, error)
	Stats(ctx context.Context) (*models.CouponStats, error)
}

type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &coupon, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, "code = ?", models.NormalizeCouponCode(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon by code: %w", err)
	}
	return &coupon, nil
}

func (r *couponRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]models.Coupon, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var coupons []models.Coupon
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&coupons).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, total, nil
}

func (r *couponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	if err := r.db.WithContext(ctx).Save(coupon).Error; err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Coupon{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementUsage bumps used_count with the usage limit enforced in the
// predicate. Returns false when the limit is already reached, so a burst of
// concurrent redemptions can never push used_count past usage_limit.
func (r *couponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ? AND (usage_limit IS NULL OR used_count < usage_limit)",
			models.NormalizeCouponCode(code)).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *couponRepository) Stats(ctx context.Context) (*models.CouponStats, error) {
	stats := &models.CouponStats{}
	db := r.db.WithContext(ctx).Model(&models.Coupon{})

	if err := db.Count(&stats.TotalCoupons).Error; err != nil {
		return nil, fmt.Errorf("failed to count coupons: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveCoupons).Error; err != nil {
		return nil, fmt.Errorf("failed to count active coupons: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Count(&stats.ExpiredCoupons).Error; err != nil {
		return nil, fmt.Errorf("failed to count expired coupons: %w", err)
	}

	var totalUsage *int64
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Select("SUM(used_count)").
		Scan(&totalUsage).Error; err != nil {
		return nil, fmt.Errorf("failed to sum coupon usage: %w", err)
	}
	if totalUsage != nil {
		stats.TotalUsage = *totalUsage
	}
	return stats, nil
}
