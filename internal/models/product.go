package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the thin catalog surface used by orders and bundles. Pricing
// and weight live here so checkout can resolve authoritative values instead
// of trusting client payloads.
type Product struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title      string     `json:"title" gorm:"not null"`
	SKU        string     `json:"sku" gorm:"uniqueIndex;not null"`
	BasePrice  float64    `json:"basePrice" gorm:"not null"`
	Weight     float64    `json:"weight" gorm:"default:0"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	IsActive   bool       `json:"isActive" gorm:"default:true"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// CreateProductRequest is the admin payload for creating a product
type CreateProductRequest struct {
	Title      string     `json:"title" binding:"required"`
	SKU        string     `json:"sku" binding:"required"`
	BasePrice  float64    `json:"basePrice" binding:"required,gt=0"`
	Weight     float64    `json:"weight" binding:"gte=0"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	IsActive   *bool      `json:"isActive,omitempty"`
}

// UpdateProductRequest is the admin payload for updating a product
type UpdateProductRequest struct {
	Title      *string    `json:"title,omitempty"`
	SKU        *string    `json:"sku,omitempty"`
	BasePrice  *float64   `json:"basePrice,omitempty" binding:"omitempty,gt=0"`
	Weight     *float64   `json:"weight,omitempty" binding:"omitempty,gte=0"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	IsActive   *bool      `json:"isActive,omitempty"`
}
