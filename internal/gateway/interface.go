package gateway

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
)

// PaymentState is the provider-side state of a payment attempt
type PaymentState string

const (
	PaymentStateCaptured  PaymentState = "CAPTURED"
	PaymentStateFailed    PaymentState = "FAILED"
	PaymentStateCancelled PaymentState = "CANCELLED"
	PaymentStatePending   PaymentState = "PENDING"
)

// IsFinal reports whether the provider state can no longer change.
func (s PaymentState) IsFinal() bool {
	switch s {
	case PaymentStateCaptured, PaymentStateFailed, PaymentStateCancelled:
		return true
	}
	return false
}

// CreateOrderRequest carries everything a provider needs to open a
// hosted-payment session
type CreateOrderRequest struct {
	OrderNumber   string
	Amount        float64
	Currency      string
	CustomerEmail string
	CustomerName  string
	City          string
	Country       string
	ReturnURL     string
	CancelURL     string
}

// PaymentSession is the provider-side session created for an order
type PaymentSession struct {
	GatewayOrderID string
	PaymentURL     string
	RawResponse    map[string]interface{}
}

// WebhookEvent is a provider callback normalized to a common shape
type WebhookEvent struct {
	EventName      string
	GatewayOrderID string
	State          PaymentState
	Raw            map[string]interface{}
}

// PaymentGateway abstracts a payment provider. Adapters translate between
// the provider's wire format and these types; callers never see provider
// payloads directly.
type PaymentGateway interface {
	// Type returns the provider identifier used in routes
	Type() models.GatewayType

	// CreateOrder opens a hosted-payment session for the given order
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*PaymentSession, error)

	// GetOrderStatus queries the provider for the current payment state
	GetOrderStatus(ctx context.Context, gatewayOrderID string) (PaymentState, error)

	// ParseWebhook decodes a provider callback payload
	ParseWebhook(payload []byte) (*WebhookEvent, error)
}

// GatewayError wraps a provider failure with a stable code and a retryable hint
type GatewayError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Gateway error codes
const (
	ErrCodeAuth           = "AUTH_FAILED"
	ErrCodeOrderCreate    = "ORDER_CREATE_FAILED"
	ErrCodeStatusQuery    = "STATUS_QUERY_FAILED"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
)
