package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
)

type fakeGateway struct {
	session     *gateway.PaymentSession
	createErr   error
	orderStatus gateway.PaymentState
	statusErr   error
}

func (f *fakeGateway) Type() models.GatewayType { return models.GatewayNGenius }

func (f *fakeGateway) CreateOrder(_ context.Context, _ gateway.CreateOrderRequest) (*gateway.PaymentSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) GetOrderStatus(_ context.Context, _ string) (gateway.PaymentState, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.orderStatus, nil
}

func (f *fakeGateway) ParseWebhook(payload []byte) (*gateway.WebhookEvent, error) {
	var body struct {
		OrderReference string `json:"orderReference"`
		State          string `json:"state"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.OrderReference == "" {
		return nil, &gateway.GatewayError{Code: gateway.ErrCodeInvalidPayload, Message: "bad payload"}
	}
	return &gateway.WebhookEvent{
		GatewayOrderID: body.OrderReference,
		State:          gateway.MapProviderState(body.State),
	}, nil
}

type paymentFixture struct {
	svc          *PaymentService
	orders       *fakeOrderRepo
	coupons      *fakeCouponRepo
	notification *fakeNotificationClient
	gw           *fakeGateway
}

func newPaymentFixture(order *models.Order, coupons ...*models.Coupon) *paymentFixture {
	f := &paymentFixture{
		orders:       newFakeOrderRepo(order),
		coupons:      newFakeCouponRepo(coupons...),
		notification: &fakeNotificationClient{},
		gw: &fakeGateway{
			session: &gateway.PaymentSession{
				GatewayOrderID: "ng-ref-1",
				PaymentURL:     "https://pay.example/ng-ref-1",
			},
			orderStatus: gateway.PaymentStatePending,
		},
	}

	logger := testLogger()
	couponSvc := NewCouponService(f.coupons, f.orders, logger)
	f.svc = NewPaymentService(f.orders, couponSvc, gateway.NewFactory(f.gw),
		f.notification, nil, logger, "AED", "http://localhost:3000")
	return f
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-000001-0001",
		CustomerName:  "Amina Hassan",
		CustomerEmail: "amina@example.com",
		Total:         120,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestCreateSessionStoresGatewayLinkage(t *testing.T) {
	order := pendingOrder()
	f := newPaymentFixture(order)

	session, err := f.svc.CreateSession(context.Background(), "ngenius", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ng-ref-1", session.GatewayOrderID)
	assert.Equal(t, "https://pay.example/ng-ref-1", session.PaymentURL)
	assert.Equal(t, 120.0, session.Amount)

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, "ngenius", stored.PaymentGateway)
	assert.Equal(t, "ng-ref-1", stored.PaymentGatewayOrderID)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
}

func TestCreateSessionRejectsPaidOrder(t *testing.T) {
	order := pendingOrder()
	order.PaymentStatus = models.PaymentStatusPaid
	f := newPaymentFixture(order)

	_, err := f.svc.CreateSession(context.Background(), "ngenius", order.ID)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
}

func TestCreateSessionUnknownOrder(t *testing.T) {
	f := newPaymentFixture(pendingOrder())

	_, err := f.svc.CreateSession(context.Background(), "ngenius", uuid.New())
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestCreateSessionGatewayFailureLeavesOrderPending(t *testing.T) {
	order := pendingOrder()
	f := newPaymentFixture(order)
	f.gw.createErr = &gateway.GatewayError{Code: gateway.ErrCodeOrderCreate, Message: "provider down", Retryable: true}

	_, err := f.svc.CreateSession(context.Background(), "ngenius", order.ID)
	var gatewayErr *gateway.GatewayError
	require.ErrorAs(t, err, &gatewayErr)

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, stored.PaymentGatewayOrderID)
}

func TestWebhookCapturedMarksPaidAndNotifiesOnce(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	f := newPaymentFixture(order)

	payload := []byte(`{"orderReference":"ng-ref-1","state":"CAPTURED"}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, stored.Status)
	assert.True(t, stored.ConfirmationSent)

	// Redelivery is a no-op: CAS loses, nothing changes
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))
	stored, _ = f.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
}

func TestWebhookFailureMarksFailed(t *testing.T) {
	for _, state := range []string{"FAILED", "CANCELLED"} {
		order := pendingOrder()
		order.PaymentGateway = "ngenius"
		order.PaymentGatewayOrderID = "ng-ref-1"
		f := newPaymentFixture(order)

		payload := []byte(`{"orderReference":"ng-ref-1","state":"` + state + `"}`)
		require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))

		stored, _ := f.orders.GetByID(context.Background(), order.ID)
		assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)
		// Fulfillment does not advance on failure
		assert.Equal(t, models.OrderStatusPending, stored.Status)
		assert.False(t, stored.ConfirmationSent)
	}
}

func TestWebhookLateFailureAfterCaptureIgnored(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	f := newPaymentFixture(order)

	captured := []byte(`{"orderReference":"ng-ref-1","state":"CAPTURED"}`)
	failed := []byte(`{"orderReference":"ng-ref-1","state":"FAILED"}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", captured))
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", failed))

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
}

func TestWebhookNonFinalStateOnlyRecorded(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	f := newPaymentFixture(order)

	payload := []byte(`{"orderReference":"ng-ref-1","state":"STARTED"}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, "pending", stored.PaymentGatewayStatus)
	assert.False(t, stored.ConfirmationSent)
}

func TestWebhookUnknownReference(t *testing.T) {
	f := newPaymentFixture(pendingOrder())

	err := f.svc.HandleWebhook(context.Background(), "ngenius",
		[]byte(`{"orderReference":"nope","state":"CAPTURED"}`))
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestConfirmReturnPollCapturesPending(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	f := newPaymentFixture(order)
	f.gw.orderStatus = gateway.PaymentStateCaptured

	conf, err := f.svc.ConfirmReturn(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, conf.Paid)
	assert.Equal(t, models.PaymentStatusPaid, conf.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, conf.OrderStatus)
}

func TestConfirmReturnIdempotentAfterWebhook(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	f := newPaymentFixture(order)

	payload := []byte(`{"orderReference":"ng-ref-1","state":"CAPTURED"}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))

	// The customer lands on the return page after the webhook already won
	for i := 0; i < 3; i++ {
		conf, err := f.svc.ConfirmReturn(context.Background(), order.ID)
		require.NoError(t, err)
		assert.True(t, conf.Paid)
	}

	stored, _ := f.orders.GetByID(context.Background(), order.ID)
	assert.True(t, stored.ConfirmationSent)
}

func TestConfirmReturnStillPendingReturnsPaymentURL(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	order.PaymentURL = "https://pay.example/ng-ref-1"
	f := newPaymentFixture(order)
	f.gw.orderStatus = gateway.PaymentStatePending

	conf, err := f.svc.ConfirmReturn(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, conf.Paid)
	assert.Equal(t, models.PaymentStatusPending, conf.PaymentStatus)
	assert.Equal(t, "https://pay.example/ng-ref-1", conf.PaymentURL)
}

func TestCaptureRedeemsCouponOnce(t *testing.T) {
	coupon := &models.Coupon{
		Code: "SAVE10", Type: models.CouponTypeFlat, Value: 10, IsActive: true,
		UsageLimit: intPtr(5),
	}
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	order.CouponCode = "SAVE10"
	f := newPaymentFixture(order, coupon)

	payload := []byte(`{"orderReference":"ng-ref-1","state":"CAPTURED"}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))
	require.NoError(t, f.svc.HandleWebhook(context.Background(), "ngenius", payload))

	assert.Equal(t, 1, coupon.UsedCount)
}

func TestPaymentStatusReport(t *testing.T) {
	order := pendingOrder()
	order.PaymentGateway = "ngenius"
	order.PaymentGatewayOrderID = "ng-ref-1"
	f := newPaymentFixture(order)

	report, err := f.svc.Status(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, report.OrderNumber)
	assert.Equal(t, models.PaymentStatusPending, report.PaymentStatus)
	assert.Equal(t, 120.0, report.Total)
}
