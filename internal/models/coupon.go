package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CouponType represents how a coupon's value is interpreted
type CouponType string

const (
	CouponTypeFlat       CouponType = "flat"
	CouponTypePercentage CouponType = "percentage"
)

// Coupon is a discount code redeemable at checkout. Codes are stored
// uppercase; lookups normalize the same way.
type Coupon struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Code                 string     `json:"code" gorm:"uniqueIndex;not null"`
	Description          string     `json:"description"`
	Type                 CouponType `json:"type" gorm:"not null"`
	Value                float64    `json:"value" gorm:"not null"`
	MinAmount            *float64   `json:"minAmount,omitempty"`
	MaxDiscount          *float64   `json:"maxDiscount,omitempty"`
	UsageLimit           *int       `json:"usageLimit,omitempty"`
	UsedCount            int        `json:"usedCount" gorm:"default:0"`
	ExpiresAt            *time.Time `json:"expiresAt,omitempty"`
	IsStackable          bool       `json:"isStackable" gorm:"default:false"`
	ApplicableProducts   StringList `json:"applicableProducts,omitempty" gorm:"type:jsonb"`
	ApplicableCategories StringList `json:"applicableCategories,omitempty" gorm:"type:jsonb"`
	IsActive             bool       `json:"isActive" gorm:"default:true;index"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for Coupon
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCouponCode uppercases and trims a coupon code for storage and lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsExpired reports whether the coupon has passed its expiry at the given instant.
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// IsExhausted reports whether the usage limit has been reached.
func (c *Coupon) IsExhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// HasScope reports whether the coupon restricts applicable products or categories.
func (c *Coupon) HasScope() bool {
	return len(c.ApplicableProducts) > 0 || len(c.ApplicableCategories) > 0
}

// ValidateCouponItem is a cart line in a validation request
type ValidateCouponItem struct {
	ProductID  uuid.UUID  `json:"productId" binding:"required"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	Price      float64    `json:"price" binding:"required,gt=0"`
	Quantity   int        `json:"quantity" binding:"required,gt=0"`
}

// ValidateCouponRequest is the storefront validation payload
type ValidateCouponRequest struct {
	Code      string               `json:"code" binding:"required"`
	CartTotal float64              `json:"cartTotal" binding:"required,gt=0"`
	Items     []ValidateCouponItem `json:"items,omitempty" binding:"omitempty,dive"`
}

// Coupon rejection reason codes
const (
	CouponReasonNotFound      = "NOT_FOUND"
	CouponReasonInactive      = "INACTIVE"
	CouponReasonExpired       = "EXPIRED"
	CouponReasonUsageLimit    = "USAGE_LIMIT_REACHED"
	CouponReasonMinAmount     = "MIN_AMOUNT_NOT_MET"
	CouponReasonNotApplicable = "NOT_APPLICABLE"
	CouponReasonNotStackable  = "NOT_STACKABLE"
)

// CouponValidationResult is the validator output
type CouponValidationResult struct {
	Valid          bool       `json:"valid"`
	Code           string     `json:"code"`
	Type           CouponType `json:"type,omitempty"`
	DiscountAmount float64    `json:"discountAmount"`
	FinalTotal     float64    `json:"finalTotal"`
	Reason         string     `json:"reason,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// CreateCouponRequest is the admin payload for creating a coupon
type CreateCouponRequest struct {
	Code                 string     `json:"code" binding:"required"`
	Description          string     `json:"description"`
	Type                 CouponType `json:"type" binding:"required,oneof=flat percentage"`
	Value                float64    `json:"value" binding:"required,gt=0"`
	MinAmount            *float64   `json:"minAmount,omitempty" binding:"omitempty,gt=0"`
	MaxDiscount          *float64   `json:"maxDiscount,omitempty" binding:"omitempty,gt=0"`
	UsageLimit           *int       `json:"usageLimit,omitempty" binding:"omitempty,gt=0"`
	ExpiresAt            *time.Time `json:"expiresAt,omitempty"`
	IsStackable          *bool      `json:"isStackable,omitempty"`
	ApplicableProducts   []string   `json:"applicableProducts,omitempty"`
	ApplicableCategories []string   `json:"applicableCategories,omitempty"`
	IsActive             *bool      `json:"isActive,omitempty"`
}

// UpdateCouponRequest is the admin payload for updating a coupon
type UpdateCouponRequest struct {
	Description          *string     `json:"description,omitempty"`
	Type                 *CouponType `json:"type,omitempty" binding:"omitempty,oneof=flat percentage"`
	Value                *float64    `json:"value,omitempty" binding:"omitempty,gt=0"`
	MinAmount            *float64    `json:"minAmount,omitempty"`
	MaxDiscount          *float64    `json:"maxDiscount,omitempty"`
	UsageLimit           *int        `json:"usageLimit,omitempty"`
	ExpiresAt            *time.Time  `json:"expiresAt,omitempty"`
	IsStackable          *bool       `json:"isStackable,omitempty"`
	ApplicableProducts   []string    `json:"applicableProducts,omitempty"`
	ApplicableCategories []string    `json:"applicableCategories,omitempty"`
	IsActive             *bool       `json:"isActive,omitempty"`
}

// CouponStats summarizes redemption for the admin dashboard
type CouponStats struct {
	TotalCoupons   int64 `json:"totalCoupons"`
	ActiveCoupons  int64 `json:"activeCoupons"`
	ExpiredCoupons int64 `json:"expiredCoupons"`
	TotalUsage     int64 `json:"totalUsage"`
}
