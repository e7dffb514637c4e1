package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-service/internal/models"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber, notes string) error
	NextSequence(ctx context.Context) (int64, error)
	TransitionPaymentStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus, updates map[string]interface{}) (bool, error)
	ClaimConfirmation(ctx context.Context, id uuid.UUID) (bool, error)
	ClaimCouponRedemption(ctx context.Context, id uuid.UUID) (bool, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "order_number = ?", orderNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by number: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		First(&order, "payment_gateway_order_id = ?", gatewayOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by gateway reference: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filters.PaymentStatus)
	}
	if filters.Search != "" {
		search := "%" + filters.Search + "%"
		query = query.Where(
			"order_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?",
			search, search, search,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := filters.Page
	limit := filters.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Omit("Items").Save(order).Error
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber, notes string) error {
	updates := map[string]interface{}{"status": status}
	if trackingNumber != "" {
		updates["tracking_number"] = trackingNumber
	}
	if notes != "" {
		updates["notes"] = notes
	}
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextSequence atomically increments and returns the store-level order
// counter. Concurrent checkouts each get a distinct value.
func (r *orderRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO order_counters (id, counter) VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET counter = order_counters.counter + 1
		RETURNING counter`).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance order sequence: %w", err)
	}
	return seq, nil
}

// TransitionPaymentStatus moves payment_status from `from` to `to` as a
// compare-and-swap, applying extra column updates in the same statement.
// Returns false when another writer already moved the row; the caller then
// treats the transition as lost and skips its side effects.
func (r *orderRepository) TransitionPaymentStatus(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["payment_status"] = to

	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition payment status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ClaimConfirmation flips confirmation_sent exactly once. The winner of the
// conditional update owns sending the confirmation notification.
func (r *orderRepository) ClaimConfirmation(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND confirmation_sent = ?", id, false).
		UpdateColumn("confirmation_sent", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim confirmation: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ClaimCouponRedemption flips coupon_applied exactly once per order so the
// usage counter is bumped at most once no matter how many times payment
// callbacks fire.
func (r *orderRepository) ClaimCouponRedemption(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND coupon_applied = ? AND coupon_code <> ''", id, false).
		UpdateColumn("coupon_applied", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim coupon redemption: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: map[string]int64{}}

	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var revenue *float64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Select("SUM(total)").
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if revenue != nil {
		stats.TotalRevenue = *revenue
	}

	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Count(&stats.PaidOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count paid orders: %w", err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}
