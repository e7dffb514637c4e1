package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionOrderStatus(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)

		err := ValidateOrderStatusTransition(tt.from, tt.to)
		if tt.allowed {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPaid, PaymentStatusFailed, false},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusFailed, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionPaymentStatus(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderStatusPending))
	assert.False(t, IsTerminalOrderStatus(OrderStatusProcessing))
	assert.False(t, IsTerminalOrderStatus(OrderStatusShipped))

	assert.True(t, IsTerminalPaymentStatus(PaymentStatusPaid))
	assert.False(t, IsTerminalPaymentStatus(PaymentStatusPending))
	assert.False(t, IsTerminalPaymentStatus(PaymentStatusFailed))
}

func TestUnknownStatusHasNoTransitions(t *testing.T) {
	assert.False(t, CanTransitionOrderStatus(OrderStatus("unknown"), OrderStatusPending))
	assert.False(t, CanTransitionPaymentStatus(PaymentStatus("unknown"), PaymentStatusPaid))
}

func TestStatusDisplayNames(t *testing.T) {
	assert.Equal(t, "Order Placed", OrderStatusPending.DisplayName())
	assert.Equal(t, "Shipped", OrderStatusShipped.DisplayName())
	assert.Equal(t, "Payment Pending", PaymentStatusPending.DisplayName())
	assert.Equal(t, "bogus", OrderStatus("bogus").DisplayName())
}
