package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/storefront-api/internal/domain/order"
)

func countingFactory(n *int) Factory {
	return func(key string) *client.API {
		*n++
		return client.New(key, nil)
	}
}

func TestClient_ReturnsSameInstance(t *testing.T) {
	var built int
	p := NewProvider(Config{SecretKey: "sk_test_123"}, zap.NewNop(), WithFactory(countingFactory(&built)))

	first := p.Client()
	second := p.Client()

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)
}

func TestClient_ConcurrentFirstUse(t *testing.T) {
	var (
		mu    sync.Mutex
		built int
	)
	p := NewProvider(Config{SecretKey: "sk_test_123"}, zap.NewNop(), WithFactory(func(key string) *client.API {
		mu.Lock()
		built++
		mu.Unlock()
		return client.New(key, nil)
	}))

	var wg sync.WaitGroup
	results := make([]*client.API, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Client()
		}()
	}
	wg.Wait()

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
	assert.Equal(t, 1, built)
}

func TestClient_MissingSecretKey(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var built int
	p := NewProvider(Config{}, zap.New(core), WithFactory(countingFactory(&built)))

	assert.NotPanics(t, func() {
		assert.Nil(t, p.Client())
		assert.Nil(t, p.Client())
	})
	assert.Zero(t, built)
	assert.False(t, p.Enabled())
	assert.Equal(t, 2, logs.FilterMessage("Stripe secret key is not configured, payments are disabled").Len())
}

func TestClient_DefaultFactory(t *testing.T) {
	p := NewProvider(Config{SecretKey: "sk_test_123"}, zap.NewNop())

	api := p.Client()
	require.NotNil(t, api)
	assert.NotNil(t, api.PaymentIntents)
	assert.True(t, p.Enabled())
}

func TestPublishableKey(t *testing.T) {
	p := NewProvider(Config{PublishableKey: "pk_test_abc"}, zap.NewNop())
	assert.Equal(t, "pk_test_abc", p.PublishableKey())

	p = NewProvider(Config{}, zap.NewNop())
	assert.Equal(t, "", p.PublishableKey())
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"usd", "12.50", "usd", 1250},
		{"uppercase", "0.99", "EUR", 99},
		{"rounding", "10.005", "usd", 1001},
		{"zero decimal", "1500", "jpy", 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &order.Order{TotalAmount: decimal.RequireFromString(tt.amount), Currency: tt.currency}
			assert.Equal(t, tt.want, MinorUnits(o))
		})
	}
}

func TestCreateIntent_Disabled(t *testing.T) {
	p := NewProvider(Config{}, zap.NewNop())

	_, err := p.CreateIntent(context.Background(), &order.Order{ID: "o1"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCreateIntent(t *testing.T) {
	var (
		gotForm       map[string]string
		gotIdempotent string
		gotAuth       string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotForm = map[string]string{
			"amount":             r.PostForm.Get("amount"),
			"currency":           r.PostForm.Get("currency"),
			"metadata[order_id]": r.PostForm.Get("metadata[order_id]"),
			"metadata[user_id]":  r.PostForm.Get("metadata[user_id]"),
		}
		gotIdempotent = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_456","amount":1250,"currency":"usd"}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{SecretKey: "sk_test_123", APIURL: srv.URL}, zap.NewNop())
	o := &order.Order{
		ID:          "o1",
		UserID:      "u1",
		Status:      order.StatusPending,
		TotalAmount: decimal.RequireFromString("12.50"),
		Currency:    "USD",
	}

	intent, err := p.CreateIntent(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_456", intent.ClientSecret)

	assert.Equal(t, "1250", gotForm["amount"])
	assert.Equal(t, "usd", gotForm["currency"])
	assert.Equal(t, "o1", gotForm["metadata[order_id]"])
	assert.Equal(t, "u1", gotForm["metadata[user_id]"])
	assert.Equal(t, "order-o1", gotIdempotent)
	assert.Equal(t, "Bearer sk_test_123", gotAuth)
}

func TestCreateIntent_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Amount must be at least 50 cents"}}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{SecretKey: "sk_test_123", APIURL: srv.URL}, zap.NewNop())
	o := &order.Order{ID: "o1", TotalAmount: decimal.RequireFromString("0.10"), Currency: "usd"}

	_, err := p.CreateIntent(context.Background(), o)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "create payment intent for order o1")
}
