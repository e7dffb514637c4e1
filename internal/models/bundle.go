package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Bundle groups two or more products under a single promotional price.
// A bundle applies to a cart when every constituent product is present.
type Bundle struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name          string          `json:"name" gorm:"not null"`
	Description   string          `json:"description"`
	Products      []BundleProduct `json:"products" gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
	BundlePrice   float64         `json:"bundlePrice" gorm:"not null"`
	OriginalPrice float64         `json:"originalPrice" gorm:"not null"`
	BundleType    string          `json:"bundleType"`
	Category      string          `json:"category" gorm:"index"`
	StartDate     *time.Time      `json:"startDate,omitempty"`
	EndDate       *time.Time      `json:"endDate,omitempty"`
	IsActive      bool            `json:"isActive" gorm:"default:true;index"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for Bundle
func (Bundle) TableName() string {
	return "bundles"
}

// BundleProduct is a constituent row of a bundle
type BundleProduct struct {
	ID        uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BundleID  uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Position  int       `json:"position" gorm:"default:0"`
}

// TableName specifies the table name for BundleProduct
func (BundleProduct) TableName() string {
	return "bundle_products"
}

// IsCurrentlyActive reports whether the bundle is active at the given
// instant. Nil window bounds are unbounded.
func (b *Bundle) IsCurrentlyActive(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.StartDate != nil && now.Before(*b.StartDate) {
		return false
	}
	if b.EndDate != nil && now.After(*b.EndDate) {
		return false
	}
	return true
}

// ProductIDs returns the constituent product ids in position order.
func (b *Bundle) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Products))
	for _, p := range b.Products {
		ids = append(ids, p.ProductID)
	}
	return ids
}

// DeriveBundleType returns the display type for a bundle of n products,
// e.g. "3-products".
func DeriveBundleType(n int) string {
	return fmt.Sprintf("%d-products", n)
}

// CartItem is a storefront cart line used by discount calculations
type CartItem struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Price     float64   `json:"price" binding:"required,gt=0"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// CalculateBundleDiscountRequest is the storefront payload
type CalculateBundleDiscountRequest struct {
	CartItems []CartItem `json:"cartItems" binding:"required,min=1,dive"`
}

// AppliedBundleInfo describes the winning bundle in a discount result
type AppliedBundleInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	BundlePrice float64   `json:"bundlePrice"`
}

// BundleDiscountResult is the engine output
type BundleDiscountResult struct {
	Applied            bool               `json:"applied"`
	Bundle             *AppliedBundleInfo `json:"bundle,omitempty"`
	DiscountAmount     float64            `json:"discountAmount"`
	DiscountPercentage int                `json:"discountPercentage"`
}

// CreateBundleRequest is the admin payload for creating a bundle
type CreateBundleRequest struct {
	Name          string      `json:"name" binding:"required"`
	Description   string      `json:"description"`
	ProductIDs    []uuid.UUID `json:"productIds" binding:"required,min=2"`
	BundlePrice   float64     `json:"bundlePrice" binding:"required,gt=0"`
	OriginalPrice *float64    `json:"originalPrice,omitempty" binding:"omitempty,gt=0"`
	Category      string      `json:"category"`
	StartDate     *time.Time  `json:"startDate,omitempty"`
	EndDate       *time.Time  `json:"endDate,omitempty"`
	IsActive      *bool       `json:"isActive,omitempty"`
}

// UpdateBundleRequest is the admin payload for updating a bundle
type UpdateBundleRequest struct {
	Name          *string     `json:"name,omitempty"`
	Description   *string     `json:"description,omitempty"`
	ProductIDs    []uuid.UUID `json:"productIds,omitempty" binding:"omitempty,min=2"`
	BundlePrice   *float64    `json:"bundlePrice,omitempty" binding:"omitempty,gt=0"`
	OriginalPrice *float64    `json:"originalPrice,omitempty" binding:"omitempty,gt=0"`
	Category      *string     `json:"category,omitempty"`
	StartDate     *time.Time  `json:"startDate,omitempty"`
	EndDate       *time.Time  `json:"endDate,omitempty"`
	IsActive      *bool       `json:"isActive,omitempty"`
}
