package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// In-memory repository fakes used across the service tests.

type fakeShippingRuleRepo struct {
	rules   []models.ShippingRule
	listErr error
}

func (f *fakeShippingRuleRepo) Create(_ context.Context, rule *models.ShippingRule) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeShippingRuleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ShippingRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

func (f *fakeShippingRuleRepo) List(_ context.Context) ([]models.ShippingRule, error) {
	return f.rules, f.listErr
}

func (f *fakeShippingRuleRepo) ListActive(_ context.Context) ([]models.ShippingRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []models.ShippingRule
	for _, r := range f.rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (f *fakeShippingRuleRepo) Update(_ context.Context, _ *models.ShippingRule) error { return nil }
func (f *fakeShippingRuleRepo) Delete(_ context.Context, _ uuid.UUID) error           { return nil }

type fakeBundleRepo struct {
	bundles []models.Bundle
	listErr error
}

func (f *fakeBundleRepo) Create(_ context.Context, bundle *models.Bundle) error {
	if bundle.ID == uuid.Nil {
		bundle.ID = uuid.New()
	}
	f.bundles = append(f.bundles, *bundle)
	return nil
}

func (f *fakeBundleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Bundle, error) {
	for i := range f.bundles {
		if f.bundles[i].ID == id {
			return &f.bundles[i], nil
		}
	}
	return nil, nil
}

func (f *fakeBundleRepo) List(_ context.Context) ([]models.Bundle, error) {
	return f.bundles, nil
}

func (f *fakeBundleRepo) ListActive(_ context.Context, now time.Time) ([]models.Bundle, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []models.Bundle
	for _, b := range f.bundles {
		if b.IsCurrentlyActive(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

func (f *fakeBundleRepo) Update(_ context.Context, _ *models.Bundle) error { return nil }

func (f *fakeBundleRepo) ReplaceProducts(_ context.Context, _ uuid.UUID, _ []models.BundleProduct) error {
	return nil
}

func (f *fakeBundleRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

func newFakeCouponRepo(coupons ...*models.Coupon) *fakeCouponRepo {
	repo := &fakeCouponRepo{coupons: map[string]*models.Coupon{}}
	for _, c := range coupons {
		repo.coupons[c.Code] = c
	}
	return repo
}

func (f *fakeCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.coupons[coupon.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.coupons[coupon.Code] = coupon
	return nil
}

func (f *fakeCouponRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCouponRepo) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coupons[models.NormalizeCouponCode(code)], nil
}

func (f *fakeCouponRepo) List(_ context.Context, _ bool, _, _ int) ([]models.Coupon, int64, error) {
	return nil, 0, nil
}

func (f *fakeCouponRepo) Update(_ context.Context, _ *models.Coupon) error { return nil }
func (f *fakeCouponRepo) Delete(_ context.Context, _ uuid.UUID) error      { return nil }

func (f *fakeCouponRepo) IncrementUsage(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.coupons[models.NormalizeCouponCode(code)]
	if !ok {
		return false, nil
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return false, nil
	}
	coupon.UsedCount++
	return true, nil
}

func (f *fakeCouponRepo) Stats(_ context.Context) (*models.CouponStats, error) {
	return &models.CouponStats{}, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
	getErr   error
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (f *fakeProductRepo) Create(_ context.Context, product *models.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.products[id], nil
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetBySKU(_ context.Context, _ string) (*models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) List(_ context.Context, _ bool, _, _ int) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) Update(_ context.Context, _ *models.Product) error { return nil }
func (f *fakeProductRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	seq    int64
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range orders {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		repo.orders[o.ID] = o
	}
	return repo
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for _, existing := range f.orders {
		if existing.OrderNumber == order.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) GetByOrderNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentGatewayOrderID == gatewayOrderID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ models.OrderFilters) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; !ok {
		return errors.New("order missing")
	}
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if notes != "" {
		order.Notes = notes
	}
	return nil
}

func (f *fakeOrderRepo) NextSequence(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq, nil
}

func (f *fakeOrderRepo) TransitionPaymentStatus(_ context.Context, id uuid.UUID, from, to models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.PaymentStatus != from {
		return false, nil
	}
	order.PaymentStatus = to
	if status, ok := updates["status"].(models.OrderStatus); ok {
		order.Status = status
	}
	if gwStatus, ok := updates["payment_gateway_status"].(string); ok {
		order.PaymentGatewayStatus = gwStatus
	}
	return true, nil
}

func (f *fakeOrderRepo) ClaimConfirmation(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.ConfirmationSent {
		return false, nil
	}
	order.ConfirmationSent = true
	return true, nil
}

func (f *fakeOrderRepo) ClaimCouponRedemption(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.CouponApplied || order.CouponCode == "" {
		return false, nil
	}
	order.CouponApplied = true
	return true, nil
}

func (f *fakeOrderRepo) Stats(_ context.Context) (*models.OrderStats, error) {
	return &models.OrderStats{}, nil
}

type fakeNotificationClient struct {
	mu            sync.Mutex
	confirmations []clients.OrderNotification
	statusUpdates []clients.OrderNotification
}

func (f *fakeNotificationClient) SendOrderConfirmation(_ context.Context, n clients.OrderNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, n)
	return nil
}

func (f *fakeNotificationClient) SendOrderStatusUpdate(_ context.Context, n clients.OrderNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, n)
	return nil
}

func (f *fakeNotificationClient) confirmationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmations)
}
