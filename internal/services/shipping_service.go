package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// Default quote used when no rule matches and when rule lookup fails.
// Checkout must always get a shipping answer.
const (
	defaultShippingCost   = 10.0
	defaultFreeShippingAt = 100.0
	defaultDeliveryDays   = 3
	defaultRuleName       = "Default Shipping"
	defaultRuleRegion     = "US"
)

// ShippingService resolves shipping cost for a cart
type ShippingService struct {
	rules  repository.ShippingRuleRepository
	logger *logrus.Logger
}

// NewShippingService creates a new shipping service
func NewShippingService(rules repository.ShippingRuleRepository, logger *logrus.Logger) *ShippingService {
	return &ShippingService{rules: rules, logger: logger}
}

// Resolve picks the shipping rule for a cart and prices it.
//
// Selection runs in two stages over active rules ordered by priority:
// first the full predicate (region or GLOBAL, amount range, weight range),
// then a region-only fallback. When neither stage matches, the hard-coded
// default applies. Rule lookup failures degrade to the default quote so a
// rules outage never blocks checkout.
func (s *ShippingService) Resolve(ctx context.Context, subtotal float64, region string, weight float64) models.ShippingQuote {
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Shipping rule lookup failed, using default quote")
		return s.quote(defaultRule(), subtotal)
	}

	for i := range rules {
		if rules[i].Matches(subtotal, region, weight) {
			return s.quote(&rules[i], subtotal)
		}
	}

	// Region-only fallback: better to charge a configured regional rate
	// than the hard-coded default when ranges simply didn't line up.
	for i := range rules {
		if rules[i].Region == region || rules[i].Region == models.RegionGlobal {
			return s.quote(&rules[i], subtotal)
		}
	}

	return s.quote(defaultRule(), subtotal)
}

// ListActiveRules exposes the active rule set for the storefront
func (s *ShippingService) ListActiveRules(ctx context.Context) ([]models.ShippingRule, error) {
	return s.rules.ListActive(ctx)
}

func (s *ShippingService) quote(rule *models.ShippingRule, subtotal float64) models.ShippingQuote {
	quote := models.ShippingQuote{
		ShippingCost: rule.ShippingCost,
		DeliveryDays: rule.DeliveryDays,
		Rule: models.AppliedRuleInfo{
			Name:           rule.Name,
			Region:         rule.Region,
			FreeShippingAt: rule.FreeShippingAt,
		},
	}

	if rule.FreeShippingAt != nil {
		if subtotal >= *rule.FreeShippingAt {
			quote.ShippingCost = 0
			quote.IsFreeShipping = true
		} else {
			remaining := *rule.FreeShippingAt - subtotal
			quote.RemainingForFreeShipping = &remaining
		}
	}
	return quote
}

func defaultRule() *models.ShippingRule {
	freeAt := defaultFreeShippingAt
	return &models.ShippingRule{
		Name:           defaultRuleName,
		Region:         defaultRuleRegion,
		ShippingCost:   defaultShippingCost,
		FreeShippingAt: &freeAt,
		DeliveryDays:   defaultDeliveryDays,
		IsActive:       true,
	}
}
