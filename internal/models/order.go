package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents fulfillment state
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents payment state
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order is the checkout aggregate. Item prices and customer details are
// snapshotted at creation; later catalog edits never change a placed order.
//
// Pricing invariant: Total = Subtotal - BundleDiscount - CouponDiscount + ShippingCost.
type Order struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderNumber string    `json:"orderNumber" gorm:"uniqueIndex;not null"`

	// Customer snapshot
	CustomerName  string `json:"customerName" gorm:"not null"`
	CustomerEmail string `json:"customerEmail" gorm:"not null;index"`
	CustomerPhone string `json:"customerPhone"`
	AddressLine1  string `json:"addressLine1" gorm:"not null"`
	AddressLine2  string `json:"addressLine2"`
	City          string `json:"city" gorm:"not null"`
	Region        string `json:"region" gorm:"not null"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country" gorm:"not null"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	// Pricing breakdown
	Subtotal        float64    `json:"subtotal" gorm:"not null"`
	BundleDiscount  float64    `json:"bundleDiscount" gorm:"default:0"`
	AppliedBundleID *uuid.UUID `json:"appliedBundleId,omitempty" gorm:"type:uuid"`
	CouponCode      string     `json:"couponCode,omitempty"`
	CouponDiscount  float64    `json:"couponDiscount" gorm:"default:0"`
	CouponApplied   bool       `json:"-" gorm:"default:false"`
	ShippingCost    float64    `json:"shippingCost" gorm:"default:0"`
	IsFreeShipping  bool       `json:"isFreeShipping" gorm:"default:false"`
	Total           float64    `json:"total" gorm:"not null"`

	Status        OrderStatus   `json:"status" gorm:"not null;default:'pending';index"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"not null;default:'pending';index"`

	// Gateway linkage
	PaymentGateway         string `json:"paymentGateway,omitempty"`
	PaymentGatewayOrderID  string `json:"paymentGatewayOrderId,omitempty" gorm:"index"`
	PaymentGatewayStatus   string `json:"paymentGatewayStatus,omitempty"`
	PaymentURL             string `json:"paymentUrl,omitempty"`
	PaymentGatewayResponse JSONB  `json:"-" gorm:"type:jsonb"`

	// Guards the at-most-once confirmation notification
	ConfirmationSent bool `json:"-" gorm:"default:false"`

	TrackingNumber string    `json:"trackingNumber,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a snapshotted order line
type OrderItem struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID     uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `json:"productId" gorm:"type:uuid;not null"`
	ProductName string    `json:"productName" gorm:"not null"`
	SKU         string    `json:"sku"`
	Size        string    `json:"size,omitempty"`
	Color       string    `json:"color,omitempty"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	UnitPrice   float64   `json:"unitPrice" gorm:"not null"`
	TotalPrice  float64   `json:"totalPrice" gorm:"not null"`
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderCounter backs the store-level order sequence. Single row,
// incremented atomically so concurrent checkouts never share a number.
type OrderCounter struct {
	ID      int   `gorm:"primary_key"`
	Counter int64 `gorm:"not null;default:0"`
}

// TableName specifies the table name for OrderCounter
func (OrderCounter) TableName() string {
	return "order_counters"
}

// IsPaid reports whether payment has been captured.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItemRequest is a checkout line. Name and price are optional
// client hints used only when the catalog lookup fails.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Name      string    `json:"name,omitempty"`
	Price     *float64  `json:"price,omitempty" binding:"omitempty,gt=0"`
}

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	CustomerName  string             `json:"customerName" binding:"required"`
	CustomerEmail string             `json:"customerEmail" binding:"required,email"`
	CustomerPhone string             `json:"customerPhone"`
	AddressLine1  string             `json:"addressLine1" binding:"required"`
	AddressLine2  string             `json:"addressLine2"`
	City          string             `json:"city" binding:"required"`
	Region        string             `json:"region" binding:"required"`
	PostalCode    string             `json:"postalCode"`
	Country       string             `json:"country" binding:"required"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode    string             `json:"couponCode,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// UpdateOrderStatusRequest is the admin payload for moving an order
// through fulfillment
type UpdateOrderStatusRequest struct {
	Status         OrderStatus `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	TrackingNumber string      `json:"trackingNumber,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// OrderFilters narrows admin order listings
type OrderFilters struct {
	Status        OrderStatus   `form:"status"`
	PaymentStatus PaymentStatus `form:"paymentStatus"`
	Search        string        `form:"search"`
	Page          int           `form:"page"`
	Limit         int           `form:"limit"`
}

// OrderStats summarizes orders for the admin dashboard
type OrderStats struct {
	TotalOrders   int64            `json:"totalOrders"`
	TotalRevenue  float64          `json:"totalRevenue"`
	PendingOrders int64            `json:"pendingOrders"`
	PaidOrders    int64            `json:"paidOrders"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// OrderListResponse is a page of orders
type OrderListResponse struct {
	Orders     []Order        `json:"orders"`
	Pagination PaginationInfo `json:"pagination"`
}
