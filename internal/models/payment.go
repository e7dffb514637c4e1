package models

import "github.com/google/uuid"

// GatewayType identifies a payment provider
type GatewayType string

const (
	GatewayNGenius GatewayType = "ngenius"
)

// PaymentSessionResponse is returned after a gateway session is created
type PaymentSessionResponse struct {
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	Gateway        string    `json:"gateway"`
	GatewayOrderID string    `json:"gatewayOrderId"`
	PaymentURL     string    `json:"paymentUrl"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
}

// PaymentConfirmation is the poll-path result for the storefront return page
type PaymentConfirmation struct {
	OrderID       uuid.UUID     `json:"orderId"`
	OrderNumber   string        `json:"orderNumber"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	OrderStatus   OrderStatus   `json:"orderStatus"`
	Paid          bool          `json:"paid"`
	PaymentURL    string        `json:"paymentUrl,omitempty"`
	Message       string        `json:"message,omitempty"`
}

// PaymentStatusReport is the read-only status view
type PaymentStatusReport struct {
	OrderID        uuid.UUID     `json:"orderId"`
	OrderNumber    string        `json:"orderNumber"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	OrderStatus    OrderStatus   `json:"orderStatus"`
	Gateway        string        `json:"gateway,omitempty"`
	GatewayOrderID string        `json:"gatewayOrderId,omitempty"`
	GatewayStatus  string        `json:"gatewayStatus,omitempty"`
	Total          float64       `json:"total"`
}
