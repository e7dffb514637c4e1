package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Event routing keys
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	PaymentCaptured    = "payment.captured"
	PaymentFailed      = "payment.failed"
)

// OrderEvent is the message published for order lifecycle changes
type OrderEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status,omitempty"`
	Total       float64   `json:"total,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher writes order events to a durable RabbitMQ exchange. A nil
// Publisher is a no-op so callers never branch on broker availability.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *logrus.Logger
}

// NewPublisher dials the broker and declares the events exchange
func NewPublisher(url, exchange string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Publish sends an order event. Failures are logged, never propagated; an
// undelivered event must not fail the business operation that produced it.
func (p *Publisher) Publish(ctx context.Context, event OrderEvent) {
	if p == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("event", event.Event).Error("Failed to marshal event")
		return
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		event.Event, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"event":   event.Event,
			"orderId": event.OrderID,
		}).Error("Failed to publish event")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"event":   event.Event,
		"orderId": event.OrderID,
	}).Debug("Event published")
}

// Close releases the channel and connection
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
