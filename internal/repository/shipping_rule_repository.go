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

// ActiveRulesCacheTTL bounds staleness of the cached active-rule set.
// Admin writes invalidate eagerly; the TTL covers missed invalidations.
const ActiveRulesCacheTTL = 5 * time.Minute

const activeRulesCacheKey = "storefront:shipping:active_rules"

// ShippingRuleRepository defines the interface for shipping rule data operations
type ShippingRuleRepository interface {
	Create(ctx context.Context, rule *models.ShippingRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ShippingRule, error)
	List(ctx context.Context) ([]models.ShippingRule, error)
	ListActive(ctx context.Context) ([]models.ShippingRule, error)
	Update(ctx context.Context, rule *models.ShippingRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type shippingRuleRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewShippingRuleRepository creates a new shipping rule repository with
// optional Redis caching of the active rule set
func NewShippingRuleRepository(db *gorm.DB, redisClient *redis.Client) ShippingRuleRepository {
	return &shippingRuleRepository{db: db, redis: redisClient}
}

func (r *shippingRuleRepository) Create(ctx context.Context, rule *models.ShippingRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create shipping rule: %w", err)
	}
	r.invalidateCache(ctx)
	return nil
}

func (r *shippingRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ShippingRule, error) {
	var rule models.ShippingRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipping rule: %w", err)
	}
	return &rule, nil
}

func (r *shippingRuleRepository) List(ctx context.Context) ([]models.ShippingRule, error) {
	var rules []models.ShippingRule
	err := r.db.WithContext(ctx).
		Order("priority ASC, created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping rules: %w", err)
	}
	return rules, nil
}

// ListActive returns active rules ordered by priority then created_at.
// Resolution walks this list; the ordering is what makes the first match
// the winning rule.
func (r *shippingRuleRepository) ListActive(ctx context.Context) ([]models.ShippingRule, error) {
	if cached := r.readCache(ctx); cached != nil {
		return cached, nil
	}

	var rules []models.ShippingRule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority ASC, created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active shipping rules: %w", err)
	}

	r.writeCache(ctx, rules)
	return rules, nil
}

func (r *shippingRuleRepository) Update(ctx context.Context, rule *models.ShippingRule) error {
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		return fmt.Errorf("failed to update shipping rule: %w", err)
	}
	r.invalidateCache(ctx)
	return nil
}

func (r *shippingRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ShippingRule{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete shipping rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateCache(ctx)
	return nil
}

func (r *shippingRuleRepository) readCache(ctx context.Context) []models.ShippingRule {
	if r.redis == nil {
		return nil
	}
	data, err := r.redis.Get(ctx, activeRulesCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var rules []models.ShippingRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil
	}
	return rules
}

func (r *shippingRuleRepository) writeCache(ctx context.Context, rules []models.ShippingRule) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return
	}
	_ = r.redis.Set(ctx, activeRulesCacheKey, data, ActiveRulesCacheTTL).Err()
}

func (r *shippingRuleRepository) invalidateCache(ctx context.Context) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, activeRulesCacheKey).Err()
}
