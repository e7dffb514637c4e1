package models

import (
	"time"

	"github.com/google/uuid"
)

// RegionGlobal matches every destination when used on a rule.
const RegionGlobal = "GLOBAL"

// ShippingRule defines a priced shipping band. A rule applies when the
// destination region matches (or the rule is GLOBAL) and the order amount
// and weight fall inside the configured ranges. Lower priority wins.
type ShippingRule struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name           string    `json:"name" gorm:"not null"`
	Region         string    `json:"region" gorm:"not null;index;default:'GLOBAL'"`
	MinOrderAmount float64   `json:"minOrderAmount" gorm:"default:0"`
	MaxOrderAmount *float64  `json:"maxOrderAmount,omitempty"`
	MinWeight      float64   `json:"minWeight" gorm:"default:0"`
	MaxWeight      *float64  `json:"maxWeight,omitempty"`
	ShippingCost   float64   `json:"shippingCost" gorm:"not null"`
	FreeShippingAt *float64  `json:"freeShippingAt,omitempty"`
	DeliveryDays   int       `json:"deliveryDays" gorm:"default:3"`
	Priority       int       `json:"priority" gorm:"default:100;index"`
	IsActive       bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName specifies the table name for ShippingRule
func (ShippingRule) TableName() string {
	return "shipping_rules"
}

// Matches reports whether the rule's full predicate holds for the given
// subtotal, region and weight.
func (r *ShippingRule) Matches(subtotal float64, region string, weight float64) bool {
	if !r.IsActive {
		return false
	}
	if r.Region != RegionGlobal && r.Region != region {
		return false
	}
	if subtotal < r.MinOrderAmount {
		return false
	}
	if r.MaxOrderAmount != nil && subtotal > *r.MaxOrderAmount {
		return false
	}
	if weight < r.MinWeight {
		return false
	}
	if r.MaxWeight != nil && weight > *r.MaxWeight {
		return false
	}
	return true
}

// CalculateShippingRequest is the storefront quote payload
type CalculateShippingRequest struct {
	Subtotal float64 `json:"subtotal" binding:"required,gt=0"`
	Region   string  `json:"region" binding:"required"`
	Weight   float64 `json:"weight" binding:"gte=0"`
}

// AppliedRuleInfo describes the rule behind a quote
type AppliedRuleInfo struct {
	Name           string   `json:"name"`
	Region         string   `json:"region"`
	FreeShippingAt *float64 `json:"freeShippingAt,omitempty"`
}

// ShippingQuote is the resolver result returned to the storefront
type ShippingQuote struct {
	ShippingCost             float64         `json:"shippingCost"`
	IsFreeShipping           bool            `json:"isFreeShipping"`
	DeliveryDays             int             `json:"deliveryDays"`
	Rule                     AppliedRuleInfo `json:"rule"`
	RemainingForFreeShipping *float64        `json:"remainingForFreeShipping,omitempty"`
}

// CreateShippingRuleRequest is the admin payload for creating a rule
type CreateShippingRuleRequest struct {
	Name           string   `json:"name" binding:"required"`
	Region         string   `json:"region" binding:"required"`
	MinOrderAmount float64  `json:"minOrderAmount" binding:"gte=0"`
	MaxOrderAmount *float64 `json:"maxOrderAmount,omitempty" binding:"omitempty,gt=0"`
	MinWeight      float64  `json:"minWeight" binding:"gte=0"`
	MaxWeight      *float64 `json:"maxWeight,omitempty" binding:"omitempty,gt=0"`
	ShippingCost   float64  `json:"shippingCost" binding:"gte=0"`
	FreeShippingAt *float64 `json:"freeShippingAt,omitempty" binding:"omitempty,gt=0"`
	DeliveryDays   int      `json:"deliveryDays" binding:"gte=1"`
	Priority       *int     `json:"priority,omitempty"`
	IsActive       *bool    `json:"isActive,omitempty"`
}

// UpdateShippingRuleRequest is the admin payload for updating a rule
type UpdateShippingRuleRequest struct {
	Name           *string  `json:"name,omitempty"`
	Region         *string  `json:"region,omitempty"`
	MinOrderAmount *float64 `json:"minOrderAmount,omitempty" binding:"omitempty,gte=0"`
	MaxOrderAmount *float64 `json:"maxOrderAmount,omitempty"`
	MinWeight      *float64 `json:"minWeight,omitempty" binding:"omitempty,gte=0"`
	MaxWeight      *float64 `json:"maxWeight,omitempty"`
	ShippingCost   *float64 `json:"shippingCost,omitempty" binding:"omitempty,gte=0"`
	FreeShippingAt *float64 `json:"freeShippingAt,omitempty"`
	DeliveryDays   *int     `json:"deliveryDays,omitempty" binding:"omitempty,gte=1"`
	Priority       *int     `json:"priority,omitempty"`
	IsActive       *bool    `json:"isActive,omitempty"`
}
