package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/models"
)

const (
	ngeniusIdentityContentType = "application/vnd.ni-identity.v1+json"
	ngeniusPaymentContentType  = "application/vnd.ni-payment.v2+json"

	// Tokens are refreshed this long before their reported expiry so an
	// in-flight request never carries a token that dies mid-call.
	tokenExpiryBuffer = time.Minute
)

// NGeniusConfig holds N-Genius credentials and endpoints
type NGeniusConfig struct {
	// APIKey is the base64-encoded service account key from the portal
	APIKey    string
	OutletRef string
	BaseURL   string
}

// NGeniusGateway implements PaymentGateway for Network International's
// N-Genius hosted payment pages
type NGeniusGateway struct {
	cfg        NGeniusConfig
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewNGeniusGateway creates an N-Genius gateway adapter
func NewNGeniusGateway(cfg NGeniusConfig) *NGeniusGateway {
	return &NGeniusGateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Type returns the provider identifier
func (g *NGeniusGateway) Type() models.GatewayType {
	return models.GatewayNGenius
}

type ngeniusTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// getAccessToken returns a cached OAuth token, fetching a fresh one when
// the cached token is missing or inside the expiry buffer.
func (g *NGeniusGateway) getAccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && g.now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}

	body, _ := json.Marshal(map[string]string{"grant_type": "client_credentials"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/identity/auth/access-token", bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Code: ErrCodeAuth, Message: "failed to build token request", Err: err}
	}
	req.Header.Set("Authorization", "Basic "+g.basicAuth())
	req.Header.Set("Content-Type", ngeniusIdentityContentType)
	req.Header.Set("Accept", ngeniusIdentityContentType)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Code: ErrCodeAuth, Message: "token request failed", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{
			Code:      ErrCodeAuth,
			Message:   fmt.Sprintf("token endpoint returned %d", resp.StatusCode),
			Retryable: resp.StatusCode >= 500,
		}
	}

	var tokenResp ngeniusTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", &GatewayError{Code: ErrCodeAuth, Message: "failed to decode token response", Err: err}
	}
	if tokenResp.AccessToken == "" {
		return "", &GatewayError{Code: ErrCodeAuth, Message: "token response missing access_token"}
	}

	g.accessToken = tokenResp.AccessToken
	g.tokenExpiry = g.now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryBuffer)
	return g.accessToken, nil
}

// basicAuth rebuilds the Basic credential the way the portal key expects:
// the stored key is base64, the decoded value is used as "user:" with an
// empty password.
func (g *NGeniusGateway) basicAuth() string {
	decoded, err := base64.StdEncoding.DecodeString(g.cfg.APIKey)
	if err != nil {
		// Key was not base64 after all, use it as-is
		decoded = []byte(g.cfg.APIKey)
	}
	return base64.StdEncoding.EncodeToString(append(decoded, ':'))
}

// CreateOrder opens a PURCHASE order and returns the hosted payment link
func (g *NGeniusGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (*PaymentSession, error) {
	token, err := g.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(req.CustomerName)
	payload := map[string]interface{}{
		"action": "PURCHASE",
		"amount": map[string]interface{}{
			"currencyCode": req.Currency,
			// Providers take minor units
			"value": int64(req.Amount*100 + 0.5),
		},
		"merchantOrderReference": req.OrderNumber,
		"emailAddress":           req.CustomerEmail,
		"billingAddress": map[string]interface{}{
			"firstName":   firstName,
			"lastName":    lastName,
			"city":        req.City,
			"countryCode": req.Country,
		},
		"merchantAttributes": map[string]interface{}{
			"redirectUrl": req.ReturnURL,
			"cancelUrl":   req.CancelURL,
		},
		"language": "en",
	}

	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/transactions/outlets/%s/orders", g.cfg.BaseURL, g.cfg.OutletRef)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Code: ErrCodeOrderCreate, Message: "failed to build order request", Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", ngeniusPaymentContentType)
	httpReq.Header.Set("Accept", ngeniusPaymentContentType)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Code: ErrCodeOrderCreate, Message: "order request failed", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			Code:      ErrCodeOrderCreate,
			Message:   fmt.Sprintf("order endpoint returned %d: %s", resp.StatusCode, truncate(respBody, 200)),
			Retryable: resp.StatusCode >= 500,
		}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, &GatewayError{Code: ErrCodeOrderCreate, Message: "failed to decode order response", Err: err}
	}

	reference, _ := raw["reference"].(string)
	if reference == "" {
		return nil, &GatewayError{Code: ErrCodeOrderCreate, Message: "order response missing reference"}
	}

	return &PaymentSession{
		GatewayOrderID: reference,
		PaymentURL:     extractPaymentLink(raw),
		RawResponse:    raw,
	}, nil
}

// GetOrderStatus queries the provider order and maps its payment state
func (g *NGeniusGateway) GetOrderStatus(ctx context.Context, gatewayOrderID string) (PaymentState, error) {
	token, err := g.getAccessToken(ctx)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/transactions/outlets/%s/orders/%s", g.cfg.BaseURL, g.cfg.OutletRef, gatewayOrderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &GatewayError{Code: ErrCodeStatusQuery, Message: "failed to build status request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", ngeniusPaymentContentType)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Code: ErrCodeStatusQuery, Message: "status request failed", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{
			Code:      ErrCodeStatusQuery,
			Message:   fmt.Sprintf("status endpoint returned %d", resp.StatusCode),
			Retryable: resp.StatusCode >= 500,
		}
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", &GatewayError{Code: ErrCodeStatusQuery, Message: "failed to decode status response", Err: err}
	}

	return MapProviderState(extractOrderState(raw)), nil
}

// ngeniusWebhookPayload is the callback shape N-Genius posts on state changes
type ngeniusWebhookPayload struct {
	EventName      string `json:"eventName"`
	OrderReference string `json:"orderReference"`
	State          string `json:"state"`
}

// ParseWebhook decodes a provider callback payload
func (g *NGeniusGateway) ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event ngeniusWebhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, &GatewayError{Code: ErrCodeInvalidPayload, Message: "failed to decode webhook payload", Err: err}
	}
	if event.OrderReference == "" {
		return nil, &GatewayError{Code: ErrCodeInvalidPayload, Message: "webhook payload missing orderReference"}
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(payload, &raw)

	return &WebhookEvent{
		EventName:      event.EventName,
		GatewayOrderID: event.OrderReference,
		State:          MapProviderState(event.State),
		Raw:            raw,
	}, nil
}

// MapProviderState normalizes an N-Genius state string
func MapProviderState(state string) PaymentState {
	switch strings.ToUpper(state) {
	case "CAPTURED", "PURCHASED":
		return PaymentStateCaptured
	case "FAILED":
		return PaymentStateFailed
	case "CANCELLED":
		return PaymentStateCancelled
	default:
		return PaymentStatePending
	}
}

// extractPaymentLink pulls _links.payment.href from an order response
func extractPaymentLink(raw map[string]interface{}) string {
	links, ok := raw["_links"].(map[string]interface{})
	if !ok {
		return ""
	}
	payment, ok := links["payment"].(map[string]interface{})
	if !ok {
		return ""
	}
	href, _ := payment["href"].(string)
	return href
}

// extractOrderState pulls the payment state from an order query response,
// preferring the embedded payment over the order-level state
func extractOrderState(raw map[string]interface{}) string {
	if embedded, ok := raw["_embedded"].(map[string]interface{}); ok {
		if payments, ok := embedded["payment"].([]interface{}); ok && len(payments) > 0 {
			if payment, ok := payments[0].(map[string]interface{}); ok {
				if state, _ := payment["state"].(string); state != "" {
					return state
				}
			}
		}
	}
	state, _ := raw["state"].(string)
	return state
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return name, ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
