package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/events"
	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// PaymentService drives the payment lifecycle of an order. State changes
// arrive from two directions, provider webhooks and storefront polling,
// and both funnel through the same compare-and-swap transition so each
// order is captured (and its confirmation sent) exactly once.
type PaymentService struct {
	orders       repository.OrderRepository
	coupons      *CouponService
	gateways     *gateway.Factory
	notification clients.NotificationClient
	publisher    *events.Publisher
	logger       *logrus.Logger
	currency     string
	returnBase   string
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	orders repository.OrderRepository,
	coupons *CouponService,
	gateways *gateway.Factory,
	notification clients.NotificationClient,
	publisher *events.Publisher,
	logger *logrus.Logger,
	currency string,
	returnBase string,
) *PaymentService {
	return &PaymentService{
		orders:       orders,
		coupons:      coupons,
		gateways:     gateways,
		notification: notification,
		publisher:    publisher,
		logger:       logger,
		currency:     currency,
		returnBase:   returnBase,
	}
}

// CreateSession opens a hosted-payment session for a pending order.
// Already-paid orders are rejected; provider failures leave the order
// pending so the customer can retry.
func (s *PaymentService) CreateSession(ctx context.Context, gatewayName string, orderID uuid.UUID) (*models.PaymentSessionResponse, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order", orderID.String())
	}
	if order.IsPaid() {
		return nil, NewConflictError("order is already paid")
	}

	gw, err := s.gateways.Get(gatewayName)
	if err != nil {
		return nil, NewValidationError(err.Error(), nil)
	}

	session, err := gw.CreateOrder(ctx, gateway.CreateOrderRequest{
		OrderNumber:   order.OrderNumber,
		Amount:        order.Total,
		Currency:      s.currency,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		City:          order.City,
		Country:       order.Country,
		ReturnURL:     fmt.Sprintf("%s/payment-success?orderId=%s", s.returnBase, order.ID),
		CancelURL:     fmt.Sprintf("%s/payment-cancelled?orderId=%s", s.returnBase, order.ID),
	})
	if err != nil {
		s.logger.WithError(err).WithField("orderId", order.ID).Error("Gateway session creation failed")
		return nil, err
	}

	order.PaymentGateway = string(gw.Type())
	order.PaymentGatewayOrderID = session.GatewayOrderID
	order.PaymentGatewayStatus = "created"
	order.PaymentURL = session.PaymentURL
	if order.PaymentGatewayResponse == nil {
		order.PaymentGatewayResponse = models.JSONB{}
	}
	order.PaymentGatewayResponse["create"] = session.RawResponse

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"orderId":        order.ID,
		"gateway":        order.PaymentGateway,
		"gatewayOrderId": session.GatewayOrderID,
	}).Info("Payment session created")

	return &models.PaymentSessionResponse{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Gateway:        order.PaymentGateway,
		GatewayOrderID: session.GatewayOrderID,
		PaymentURL:     session.PaymentURL,
		Amount:         order.Total,
		Currency:       s.currency,
	}, nil
}

// HandleWebhook processes a provider callback. Unknown references are a
// NotFoundError so the provider retries; a payload that cannot be decoded
// is the only case reported as a client error.
func (s *PaymentService) HandleWebhook(ctx context.Context, gatewayName string, payload []byte) error {
	gw, err := s.gateways.Get(gatewayName)
	if err != nil {
		return NewValidationError(err.Error(), nil)
	}

	event, err := gw.ParseWebhook(payload)
	if err != nil {
		return err
	}

	order, err := s.orders.GetByGatewayOrderID(ctx, event.GatewayOrderID)
	if err != nil {
		return err
	}
	if order == nil {
		s.logger.WithField("gatewayOrderId", event.GatewayOrderID).Warn("Webhook for unknown gateway reference")
		return NewNotFoundError("order", event.GatewayOrderID)
	}

	s.logger.WithFields(logrus.Fields{
		"orderId": order.ID,
		"event":   event.EventName,
		"state":   event.State,
	}).Info("Payment webhook received")

	return s.applyGatewayState(ctx, order, event.State, event.Raw)
}

// ConfirmReturn is the storefront poll path, hit when the customer lands
// back from the hosted payment page. It is idempotent: an already-settled
// order reports its state with no side effects; a pending order triggers a
// provider status query and applies the same transition the webhook would.
func (s *PaymentService) ConfirmReturn(ctx context.Context, orderID uuid.UUID) (*models.PaymentConfirmation, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order", orderID.String())
	}

	if order.PaymentStatus == models.PaymentStatusPending && order.PaymentGatewayOrderID != "" {
		gw, err := s.gateways.Get(order.PaymentGateway)
		if err != nil {
			return nil, NewValidationError(err.Error(), nil)
		}

		state, err := gw.GetOrderStatus(ctx, order.PaymentGatewayOrderID)
		if err != nil {
			return nil, err
		}

		if err := s.applyGatewayState(ctx, order, state, nil); err != nil {
			return nil, err
		}

		// Re-read: the webhook may have won the transition concurrently
		order, err = s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}

	return s.confirmation(order), nil
}

// Status returns the read-only payment view of an order
func (s *PaymentService) Status(ctx context.Context, orderID uuid.UUID) (*models.PaymentStatusReport, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order", orderID.String())
	}

	return &models.PaymentStatusReport{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PaymentStatus:  order.PaymentStatus,
		OrderStatus:    order.Status,
		Gateway:        order.PaymentGateway,
		GatewayOrderID: order.PaymentGatewayOrderID,
		GatewayStatus:  order.PaymentGatewayStatus,
		Total:          order.Total,
	}, nil
}

// applyGatewayState maps a provider state onto the order via a
// compare-and-swap on payment_status. A lost swap means another caller
// already settled the order; the loser applies no side effects.
func (s *PaymentService) applyGatewayState(ctx context.Context, order *models.Order, state gateway.PaymentState, raw map[string]interface{}) error {
	updates := map[string]interface{}{
		"payment_gateway_status": strings.ToLower(string(state)),
	}
	if raw != nil {
		merged := order.PaymentGatewayResponse
		if merged == nil {
			merged = models.JSONB{}
		}
		merged["webhook"] = raw
		updates["payment_gateway_response"] = merged
	}

	if !state.IsFinal() {
		// Not settled yet, just record what the provider said
		_, err := s.orders.TransitionPaymentStatus(ctx, order.ID,
			models.PaymentStatusPending, models.PaymentStatusPending, updates)
		return err
	}

	target := models.PaymentStatusFailed
	if state == gateway.PaymentStateCaptured {
		target = models.PaymentStatusPaid
		updates["status"] = models.OrderStatusProcessing
	}

	// An already-settled order cannot move again; skip the swap entirely
	// (a stale snapshot just means the CAS below would lose anyway)
	if err := models.ValidatePaymentStatusTransition(order.PaymentStatus, target); err != nil {
		s.logger.WithFields(logrus.Fields{
			"orderId": order.ID,
			"state":   state,
		}).Info("Ignoring gateway state for settled order")
		return nil
	}

	won, err := s.orders.TransitionPaymentStatus(ctx, order.ID,
		models.PaymentStatusPending, target, updates)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	if target == models.PaymentStatusPaid {
		s.onPaymentCaptured(ctx, order)
	} else {
		s.logger.WithField("orderId", order.ID).Info("Payment failed")
		s.publisher.Publish(ctx, events.OrderEvent{
			Event:       events.PaymentFailed,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			Total:       order.Total,
		})
	}
	return nil
}

// onPaymentCaptured runs the side effects of a won capture: coupon
// redemption, the at-most-once confirmation email, and the captured event.
func (s *PaymentService) onPaymentCaptured(ctx context.Context, order *models.Order) {
	s.logger.WithFields(logrus.Fields{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
	}).Info("Payment captured")

	if order.CouponCode != "" {
		if err := s.coupons.Redeem(ctx, order.ID, order.CouponCode); err != nil {
			s.logger.WithError(err).WithField("orderId", order.ID).Warn("Coupon redemption failed")
		}
	}

	claimed, err := s.orders.ClaimConfirmation(ctx, order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("orderId", order.ID).Warn("Failed to claim confirmation send")
	} else if claimed {
		go s.sendConfirmationEmail(order)
	}

	s.publisher.Publish(ctx, events.OrderEvent{
		Event:       events.PaymentCaptured,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(models.OrderStatusProcessing),
		Total:       order.Total,
	})
}

func (s *PaymentService) sendConfirmationEmail(order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.notification.SendOrderConfirmation(ctx, clients.OrderNotification{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
	})
	if err != nil {
		s.logger.WithError(err).WithField("orderId", order.ID).Warn("Failed to send confirmation email")
	}
}

func (s *PaymentService) confirmation(order *models.Order) *models.PaymentConfirmation {
	conf := &models.PaymentConfirmation{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.Status,
		Paid:          order.IsPaid(),
	}

	switch order.PaymentStatus {
	case models.PaymentStatusPaid:
		conf.Message = "Payment confirmed"
	case models.PaymentStatusFailed:
		conf.Message = "Payment failed"
	default:
		conf.Message = "Payment is still pending"
		conf.PaymentURL = order.PaymentURL
	}
	return conf
}
