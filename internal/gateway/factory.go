package gateway

import (
	"fmt"

	"storefront-service/internal/models"
)

// Factory resolves payment gateways by route name
type Factory struct {
	gateways map[models.GatewayType]PaymentGateway
}

// NewFactory creates a factory over the given gateways
func NewFactory(gateways ...PaymentGateway) *Factory {
	f := &Factory{gateways: make(map[models.GatewayType]PaymentGateway)}
	for _, g := range gateways {
		f.gateways[g.Type()] = g
	}
	return f
}

// Get returns the gateway for the given name
func (f *Factory) Get(name string) (PaymentGateway, error) {
	g, ok := f.gateways[models.GatewayType(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported payment gateway: %s", name)
	}
	return g, nil
}
