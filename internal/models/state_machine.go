package models

import "fmt"

// ValidOrderTransitions defines valid state transitions for OrderStatus.
// Flow: pending → processing → shipped → delivered.
// cancelled can be reached from any non-terminal state.
var ValidOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {}, // Terminal state
	OrderStatusCancelled:  {}, // Terminal state
}

// ValidPaymentTransitions defines valid state transitions for PaymentStatus.
// paid is terminal: a captured payment never regresses, so a late FAILED
// webhook after a successful capture is ignored.
var ValidPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {}, // Terminal state
	PaymentStatusFailed:  {PaymentStatusPending}, // Allow retry with a new session
}

// CanTransitionOrderStatus checks if a transition from one order status to another is valid
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	validTransitions, exists := ValidOrderTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionPaymentStatus checks if a transition from one payment status to another is valid
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	validTransitions, exists := ValidPaymentTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// ValidateOrderStatusTransition returns an error if the transition is invalid
func ValidateOrderStatusTransition(from, to OrderStatus) error {
	if !CanTransitionOrderStatus(from, to) {
		return fmt.Errorf("invalid order status transition from %s to %s", from, to)
	}
	return nil
}

// ValidatePaymentStatusTransition returns an error if the transition is invalid
func ValidatePaymentStatusTransition(from, to PaymentStatus) error {
	if !CanTransitionPaymentStatus(from, to) {
		return fmt.Errorf("invalid payment status transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalOrderStatus checks if the order status is a terminal state
func IsTerminalOrderStatus(status OrderStatus) bool {
	return len(ValidOrderTransitions[status]) == 0
}

// IsTerminalPaymentStatus checks if the payment status is a terminal state
func IsTerminalPaymentStatus(status PaymentStatus) bool {
	return len(ValidPaymentTransitions[status]) == 0
}

// DisplayName returns a human-readable name for the order status
func (s OrderStatus) DisplayName() string {
	switch s {
	case OrderStatusPending:
		return "Order Placed"
	case OrderStatusProcessing:
		return "Processing"
	case OrderStatusShipped:
		return "Shipped"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// DisplayName returns a human-readable name for the payment status
func (s PaymentStatus) DisplayName() string {
	switch s {
	case PaymentStatusPending:
		return "Payment Pending"
	case PaymentStatusPaid:
		return "Paid"
	case PaymentStatusFailed:
		return "Payment Failed"
	default:
		return string(s)
	}
}
