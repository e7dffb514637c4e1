package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPIKey() string {
	return base64.StdEncoding.EncodeToString([]byte("outlet-user-secret"))
}

// ngeniusTestServer stands in for the provider: it serves the token
// endpoint and whatever order handler the test supplies.
func ngeniusTestServer(t *testing.T, tokenCalls *int64, orders http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/auth/access-token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(tokenCalls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Basic "))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"expires_in":   300,
		})
	})
	if orders != nil {
		mux.HandleFunc("/transactions/", orders)
	}
	return httptest.NewServer(mux)
}

func newTestGateway(baseURL string, now func() time.Time) *NGeniusGateway {
	g := NewNGeniusGateway(NGeniusConfig{
		APIKey:    testAPIKey(),
		OutletRef: "outlet-1",
		BaseURL:   baseURL,
	})
	if now != nil {
		g.now = now
	}
	return g
}

func TestBasicAuthRebuildsCredential(t *testing.T) {
	g := newTestGateway("http://unused", nil)

	decoded, err := base64.StdEncoding.DecodeString(g.basicAuth())
	require.NoError(t, err)
	assert.Equal(t, "outlet-user-secret:", string(decoded))
}

func TestBasicAuthPassesThroughNonBase64Key(t *testing.T) {
	g := NewNGeniusGateway(NGeniusConfig{APIKey: "not-base64!!"})

	decoded, err := base64.StdEncoding.DecodeString(g.basicAuth())
	require.NoError(t, err)
	assert.Equal(t, "not-base64!!:", string(decoded))
}

func TestAccessTokenCachedUntilExpiryBuffer(t *testing.T) {
	var tokenCalls int64
	srv := ngeniusTestServer(t, &tokenCalls, nil)
	defer srv.Close()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := newTestGateway(srv.URL, func() time.Time { return clock })

	for i := 0; i < 3; i++ {
		token, err := g.getAccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-123", token)
	}
	assert.EqualValues(t, 1, atomic.LoadInt64(&tokenCalls))

	// expires_in 300s with a one-minute buffer: valid for 4 more minutes
	clock = clock.Add(3 * time.Minute)
	_, err := g.getAccessToken(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&tokenCalls))

	clock = clock.Add(2 * time.Minute)
	_, err = g.getAccessToken(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&tokenCalls))
}

func TestCreateOrderSendsMinorUnitsAndParsesLinks(t *testing.T) {
	var tokenCalls int64
	var captured map[string]interface{}

	srv := ngeniusTestServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions/outlets/outlet-1/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.ni-payment.v2+json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"reference": "ng-ref-42",
			"_links": map[string]interface{}{
				"payment": map[string]interface{}{
					"href": "https://paypage.example/ng-ref-42",
				},
			},
		})
	})
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	session, err := g.CreateOrder(context.Background(), CreateOrderRequest{
		OrderNumber:   "ORD-000042-0007",
		Amount:        149.99,
		Currency:      "AED",
		CustomerEmail: "amina@example.com",
		CustomerName:  "Amina Hassan",
		City:          "Dubai",
		Country:       "AE",
		ReturnURL:     "https://shop.example/payment-success",
		CancelURL:     "https://shop.example/payment-cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, "ng-ref-42", session.GatewayOrderID)
	assert.Equal(t, "https://paypage.example/ng-ref-42", session.PaymentURL)

	assert.Equal(t, "PURCHASE", captured["action"])
	amount := captured["amount"].(map[string]interface{})
	assert.Equal(t, "AED", amount["currencyCode"])
	assert.Equal(t, float64(14999), amount["value"])

	billing := captured["billingAddress"].(map[string]interface{})
	assert.Equal(t, "Amina", billing["firstName"])
	assert.Equal(t, "Hassan", billing["lastName"])

	attrs := captured["merchantAttributes"].(map[string]interface{})
	assert.Equal(t, "https://shop.example/payment-success", attrs["redirectUrl"])
}

func TestCreateOrderMissingReference(t *testing.T) {
	var tokenCalls int64
	srv := ngeniusTestServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	_, err := g.CreateOrder(context.Background(), CreateOrderRequest{Amount: 10, Currency: "AED"})

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, ErrCodeOrderCreate, gatewayErr.Code)
}

func TestCreateOrderServerErrorIsRetryable(t *testing.T) {
	var tokenCalls int64
	srv := ngeniusTestServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	_, err := g.CreateOrder(context.Background(), CreateOrderRequest{Amount: 10, Currency: "AED"})

	var gatewayErr *GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.True(t, gatewayErr.Retryable)
}

func TestGetOrderStatusPrefersEmbeddedPayment(t *testing.T) {
	var tokenCalls int64
	srv := ngeniusTestServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/outlets/outlet-1/orders/ng-ref-42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"state": "AWAIT_3DS",
			"_embedded": map[string]interface{}{
				"payment": []interface{}{
					map[string]interface{}{"state": "CAPTURED"},
				},
			},
		})
	})
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	state, err := g.GetOrderStatus(context.Background(), "ng-ref-42")
	require.NoError(t, err)
	assert.Equal(t, PaymentStateCaptured, state)
}

func TestGetOrderStatusFallsBackToOrderState(t *testing.T) {
	var tokenCalls int64
	srv := ngeniusTestServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"state": "FAILED"})
	})
	defer srv.Close()

	g := newTestGateway(srv.URL, nil)
	state, err := g.GetOrderStatus(context.Background(), "ng-ref-42")
	require.NoError(t, err)
	assert.Equal(t, PaymentStateFailed, state)
}

func TestParseWebhook(t *testing.T) {
	g := newTestGateway("http://unused", nil)

	event, err := g.ParseWebhook([]byte(`{
		"eventName": "PURCHASED",
		"orderReference": "ng-ref-42",
		"state": "PURCHASED"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "PURCHASED", event.EventName)
	assert.Equal(t, "ng-ref-42", event.GatewayOrderID)
	assert.Equal(t, PaymentStateCaptured, event.State)
	assert.Equal(t, "ng-ref-42", event.Raw["orderReference"])
}

func TestParseWebhookRejectsBadPayloads(t *testing.T) {
	g := newTestGateway("http://unused", nil)

	for _, payload := range []string{"not json", `{"state":"CAPTURED"}`} {
		_, err := g.ParseWebhook([]byte(payload))
		var gatewayErr *GatewayError
		require.ErrorAs(t, err, &gatewayErr)
		assert.Equal(t, ErrCodeInvalidPayload, gatewayErr.Code)
	}
}

func TestMapProviderState(t *testing.T) {
	assert.Equal(t, PaymentStateCaptured, MapProviderState("CAPTURED"))
	assert.Equal(t, PaymentStateCaptured, MapProviderState("purchased"))
	assert.Equal(t, PaymentStateFailed, MapProviderState("FAILED"))
	assert.Equal(t, PaymentStateCancelled, MapProviderState("CANCELLED"))
	assert.Equal(t, PaymentStatePending, MapProviderState("STARTED"))
	assert.Equal(t, PaymentStatePending, MapProviderState(""))
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Amina Hassan")
	assert.Equal(t, "Amina", first)
	assert.Equal(t, "Hassan", last)

	first, last = splitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)

	first, last = splitName("Anna Maria van der Berg")
	assert.Equal(t, "Anna", first)
	assert.Equal(t, "Maria van der Berg", last)
}
