package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storefront-service/internal/models"
)

// ActiveBundlesCacheTTL bounds staleness of the cached active-bundle set
const ActiveBundlesCacheTTL = 5 * time.Minute

const activeBundlesCacheKey = "storefront:bundles:active"

// BundleRepository defines the interface for bundle data operations
type BundleRepository interface {
	Create(ctx context.Context, bundle *models.Bundle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	List(ctx context.Context) ([]models.Bundle, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Bundle, error)
	Update(ctx context.Context, bundle *models.Bundle) error
	ReplaceProducts(ctx context.Context, bundleID uuid.UUID, products []models.BundleProduct) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type bundleRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewBundleRepository creates a new bundle repository with optional Redis
// caching of the active bundle set
func NewBundleRepository(db *gorm.DB, redisClient *redis.Client) BundleRepository {
	return &bundleRepository{db: db, redis: redisClient}
}

func (r *bundleRepository) Create(ctx context.Context, bundle *models.Bundle) error {
	if err := r.db.WithContext(ctx).Create(bundle).Error; err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	r.invalidateCache(ctx)
	return nil
}

func (r *bundleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&bundle, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bundle: %w", err)
	}
	return &bundle, nil
}

func (r *bundleRepository) List(ctx context.Context) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Products").
		Order("created_at DESC").
		Find(&bundles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}
	return bundles, nil
}

// ListActive returns bundles active at the given instant, oldest first.
// The ordering is the tie-break for equal savings: the earliest-created
// bundle wins.
func (r *bundleRepository) ListActive(ctx context.Context, now time.Time) ([]models.Bundle, error) {
	if cached := r.readCache(ctx); cached != nil {
		return filterActive(cached, now), nil
	}

	var bundles []models.Bundle
	err := r.db.WithContext(ctx).
		Preload("Products").
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&bundles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active bundles: %w", err)
	}

	r.writeCache(ctx, bundles)
	return filterActive(bundles, now), nil
}

func (r *bundleRepository) Update(ctx context.Context, bundle *models.Bundle) error {
	err := r.db.WithContext(ctx).
		Omit("Products").
		Save(bundle).Error
	if err != nil {
		return fmt.Errorf("failed to update bundle: %w", err)
	}
	r.invalidateCache(ctx)
	return nil
}

// ReplaceProducts swaps the constituent set of a bundle in one transaction.
func (r *bundleRepository) ReplaceProducts(ctx context.Context, bundleID uuid.UUID, products []models.BundleProduct) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.BundleProduct{}).Error; err != nil {
			return err
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace bundle products: %w", err)
	}
	r.invalidateCache(ctx)
	return nil
}

func (r *bundleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Bundle{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete bundle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateCache(ctx)
	return nil
}

// filterActive applies the date window in process so the cached set can be
// reused across requests regardless of when it was stored.
func filterActive(bundles []models.Bundle, now time.Time) []models.Bundle {
	active := make([]models.Bundle, 0, len(bundles))
	for _, b := range bundles {
		if b.IsCurrentlyActive(now) {
			active = append(active, b)
		}
	}
	return active
}

func (r *bundleRepository) readCache(ctx context.Context) []models.Bundle {
	if r.redis == nil {
		return nil
	}
	data, err := r.redis.Get(ctx, activeBundlesCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var bundles []models.Bundle
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil
	}
	return bundles
}

func (r *bundleRepository) writeCache(ctx context.Context, bundles []models.Bundle) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(bundles)
	if err != nil {
		return
	}
	_ = r.redis.Set(ctx, activeBundlesCacheKey, data, ActiveBundlesCacheTTL).Err()
}

func (r *bundleRepository) invalidateCache(ctx context.Context) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, activeBundlesCacheKey).Err()
}
