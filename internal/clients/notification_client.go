package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// NotificationClient sends customer-facing emails through the notification
// service. Implementations must be safe for concurrent use.
type NotificationClient interface {
	SendOrderConfirmation(ctx context.Context, notification OrderNotification) error
	SendOrderStatusUpdate(ctx context.Context, notification OrderNotification) error
}

// OrderNotification is the payload sent to the notification service
type OrderNotification struct {
	OrderID        string  `json:"orderId"`
	OrderNumber    string  `json:"orderNumber"`
	CustomerName   string  `json:"customerName"`
	CustomerEmail  string  `json:"customerEmail"`
	Status         string  `json:"status,omitempty"`
	StatusDisplay  string  `json:"statusDisplay,omitempty"`
	Total          float64 `json:"total"`
	TrackingNumber string  `json:"trackingNumber,omitempty"`
}

type httpNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewNotificationClient creates an HTTP notification client
func NewNotificationClient(baseURL string, logger *logrus.Logger) NotificationClient {
	return &httpNotificationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *httpNotificationClient) SendOrderConfirmation(ctx context.Context, notification OrderNotification) error {
	return c.post(ctx, "/api/v1/notifications/order-confirmation", notification)
}

func (c *httpNotificationClient) SendOrderStatusUpdate(ctx context.Context, notification OrderNotification) error {
	return c.post(ctx, "/api/v1/notifications/order-status", notification)
}

func (c *httpNotificationClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}
	return nil
}
