package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront-service/internal/clients"
	"storefront-service/internal/events"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// OrderService assembles and manages orders
type OrderService struct {
	orders       repository.OrderRepository
	products     repository.ProductRepository
	shipping     *ShippingService
	bundles      *BundleService
	coupons      *CouponService
	notification clients.NotificationClient
	publisher    *events.Publisher
	logger       *logrus.Logger
	now          func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	shipping *ShippingService,
	bundles *BundleService,
	coupons *CouponService,
	notification clients.NotificationClient,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *OrderService {
	return &OrderService{
		orders:       orders,
		products:     products,
		shipping:     shipping,
		bundles:      bundles,
		coupons:      coupons,
		notification: notification,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// resolvedLine is an order line after catalog resolution
type resolvedLine struct {
	item       models.OrderItem
	categoryID *uuid.UUID
	weight     float64
}

// Create assembles an order from a checkout request.
//
// Line prices come from the catalog; client-supplied name/price are used
// only when the catalog lookup fails, and the discrepancy is logged.
// Discounts apply in a fixed sequence: bundle on the raw items, then the
// optional coupon on the bundle-discounted subtotal, then shipping on the
// fully discounted amount. The order is persisted pending/pending; the
// confirmation email is deferred until payment is captured.
func (s *OrderService) Create(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	lines, totalWeight, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	cartItems := make([]models.CartItem, 0, len(lines))
	couponItems := make([]models.ValidateCouponItem, 0, len(lines))
	for _, line := range lines {
		subtotal += line.item.TotalPrice
		cartItems = append(cartItems, models.CartItem{
			ProductID: line.item.ProductID,
			Price:     line.item.UnitPrice,
			Quantity:  line.item.Quantity,
		})
		couponItems = append(couponItems, models.ValidateCouponItem{
			ProductID:  line.item.ProductID,
			CategoryID: line.categoryID,
			Price:      line.item.UnitPrice,
			Quantity:   line.item.Quantity,
		})
	}

	bundleResult := s.bundles.ComputeDiscount(ctx, cartItems)
	discountedSubtotal := subtotal - bundleResult.DiscountAmount

	var couponDiscount float64
	couponCode := ""
	if req.CouponCode != "" {
		couponResult, err := s.coupons.ValidateForOrder(ctx, req.CouponCode, discountedSubtotal, couponItems, bundleResult.Applied)
		if err != nil {
			return nil, fmt.Errorf("coupon validation failed: %w", err)
		}
		if !couponResult.Valid {
			return nil, NewValidationError(couponResult.Message, map[string]string{
				"couponCode": couponResult.Reason,
			})
		}
		couponDiscount = couponResult.DiscountAmount
		couponCode = couponResult.Code
	}

	quote := s.shipping.Resolve(ctx, discountedSubtotal-couponDiscount, req.Region, totalWeight)

	orderNumber, err := s.nextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:    orderNumber,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		AddressLine1:   req.AddressLine1,
		AddressLine2:   req.AddressLine2,
		City:           req.City,
		Region:         req.Region,
		PostalCode:     req.PostalCode,
		Country:        req.Country,
		Subtotal:       subtotal,
		BundleDiscount: bundleResult.DiscountAmount,
		CouponCode:     couponCode,
		CouponDiscount: couponDiscount,
		ShippingCost:   quote.ShippingCost,
		IsFreeShipping: quote.IsFreeShipping,
		Total:          subtotal - bundleResult.DiscountAmount - couponDiscount + quote.ShippingCost,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		Notes:          req.Notes,
	}
	if bundleResult.Applied {
		order.AppliedBundleID = &bundleResult.Bundle.ID
	}
	for _, line := range lines {
		order.Items = append(order.Items, line.item)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflictError("order number collision, please retry")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       order.Total,
	}).Info("Order created")

	s.publisher.Publish(ctx, events.OrderEvent{
		Event:       events.OrderCreated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total,
	})

	return order, nil
}

// GetByID fetches a single order
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order", id.String())
	}
	return order, nil
}

// GetByOrderNumber fetches a single order by its display number, the
// storefront's tracking lookup
func (s *OrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NewNotFoundError("order", orderNumber)
	}
	return order, nil
}

// List returns a filtered page of orders for the admin view
func (s *OrderService) List(ctx context.Context, filters models.OrderFilters) (*models.OrderListResponse, error) {
	orders, total, err := s.orders.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	page := filters.Page
	limit := filters.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &models.OrderListResponse{
		Orders: orders,
		Pagination: models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// UpdateStatus moves an order through fulfillment. Terminal orders are
// frozen; invalid transitions are rejected. Status-change emails and events
// never fail the update.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if models.IsTerminalOrderStatus(order.Status) {
		return nil, NewConflictError(fmt.Sprintf("order is %s and can no longer change", order.Status))
	}
	if err := models.ValidateOrderStatusTransition(order.Status, req.Status); err != nil {
		return nil, NewConflictError(err.Error())
	}

	if err := s.orders.UpdateStatus(ctx, id, req.Status, req.TrackingNumber, req.Notes); err != nil {
		return nil, err
	}

	order.Status = req.Status
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Notes != "" {
		order.Notes = req.Notes
	}

	s.logger.WithFields(logrus.Fields{
		"orderId": order.ID,
		"status":  order.Status,
	}).Info("Order status updated")

	go s.sendStatusUpdateEmail(order)

	s.publisher.Publish(ctx, events.OrderEvent{
		Event:       events.OrderStatusChanged,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total,
	})

	return order, nil
}

// Stats returns admin dashboard aggregates
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	return s.orders.Stats(ctx)
}

// nextOrderNumber formats the next value of the store-level counter as a
// display number, e.g. ORD-000042-3817.
func (s *OrderService) nextOrderNumber(ctx context.Context) (string, error) {
	seq, err := s.orders.NextSequence(ctx)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(seq, s.now()), nil
}

// FormatOrderNumber renders an order number from a sequence value and a
// timestamp. The trailing digits come from the millisecond clock, kept for
// display continuity with historic numbers; uniqueness comes from the
// sequence alone.
func FormatOrderNumber(seq int64, now time.Time) string {
	millis := now.UnixMilli()
	return fmt.Sprintf("ORD-%06d-%04d", seq, millis%10000)
}

// resolveItems looks up every requested line in the catalog. A missing
// product falls back to client-supplied name and price when present;
// otherwise the request is rejected.
func (s *OrderService) resolveItems(ctx context.Context, items []models.OrderItemRequest) ([]resolvedLine, float64, error) {
	lines := make([]resolvedLine, 0, len(items))
	var totalWeight float64

	for i, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			s.logger.WithError(err).WithField("productId", item.ProductID).Warn("Product lookup failed")
			product = nil
		}

		line := resolvedLine{
			item: models.OrderItem{
				ProductID: item.ProductID,
				Size:      item.Size,
				Color:     item.Color,
				Quantity:  item.Quantity,
			},
		}

		switch {
		case product != nil:
			line.item.ProductName = product.Title
			line.item.SKU = product.SKU
			line.item.UnitPrice = product.BasePrice
			line.categoryID = product.CategoryID
			line.weight = product.Weight * float64(item.Quantity)
			if item.Price != nil && *item.Price != product.BasePrice {
				s.logger.WithFields(logrus.Fields{
					"productId":   item.ProductID,
					"clientPrice": *item.Price,
					"basePrice":   product.BasePrice,
				}).Warn("Client price differs from catalog, using catalog price")
			}
		case item.Name != "" && item.Price != nil:
			// Catalog miss with client hints: accept the client data so a
			// stale storefront cache doesn't kill the sale.
			line.item.ProductName = item.Name
			line.item.UnitPrice = *item.Price
			s.logger.WithField("productId", item.ProductID).Warn("Product not in catalog, using client-supplied data")
		default:
			return nil, 0, NewValidationError("unknown product in cart", map[string]string{
				fmt.Sprintf("items[%d].productId", i): "product not found",
			})
		}

		line.item.TotalPrice = line.item.UnitPrice * float64(item.Quantity)
		totalWeight += line.weight
		lines = append(lines, line)
	}

	return lines, totalWeight, nil
}

func (s *OrderService) sendStatusUpdateEmail(order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.notification.SendOrderStatusUpdate(ctx, clients.OrderNotification{
		OrderID:        order.ID.String(),
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		CustomerEmail:  order.CustomerEmail,
		Status:         string(order.Status),
		StatusDisplay:  order.Status.DisplayName(),
		Total:          order.Total,
		TrackingNumber: order.TrackingNumber,
	})
	if err != nil {
		s.logger.WithError(err).WithField("orderId", order.ID).Warn("Failed to send status update email")
	}
}
