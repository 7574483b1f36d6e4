// Package payment wraps the Stripe SDK client used for order payments.
//
// The SDK client is built lazily on first use and shared for the lifetime of
// the process. When no secret key is configured payments are disabled: Client
// returns nil and callers must treat that as "payments unavailable".
package payment

import (
	"sync"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"
)

// Config holds the Stripe credentials.
type Config struct {
	// SecretKey enables the server-side client. Empty disables payments.
	SecretKey string
	// PublishableKey is handed to browsers for client-side payment forms.
	PublishableKey string
	// APIURL overrides the Stripe API base URL (stripe-mock, tests).
	APIURL string
}

// Factory builds an SDK client for the given secret key.
type Factory func(secretKey string) *client.API

// Option configures a Provider.
type Option func(*Provider)

// WithFactory replaces the function used to build the SDK client.
func WithFactory(f Factory) Option {
	return func(p *Provider) {
		p.factory = f
	}
}

// Provider hands out the process-wide Stripe client.
type Provider struct {
	cfg     Config
	lg      *zap.Logger
	factory Factory

	once sync.Once
	api  *client.API
}

// NewProvider creates a Provider. No SDK client is built until Client is
// called.
func NewProvider(cfg Config, lg *zap.Logger, opts ...Option) *Provider {
	p := &Provider{
		cfg: cfg,
		lg:  lg,
	}
	p.factory = p.newAPI
	for _, o := range opts {
		o(p)
	}
	return p
}

// Client returns the shared SDK client, building it on the first call.
// Returns nil, after logging a warning, when no secret key is configured.
func (p *Provider) Client() *client.API {
	if p.cfg.SecretKey == "" {
		p.lg.Warn("Stripe secret key is not configured, payments are disabled")
		return nil
	}
	p.once.Do(func() {
		p.api = p.factory(p.cfg.SecretKey)
		p.lg.Info("Stripe client initialized", zap.String("api_version", stripe.APIVersion))
	})
	return p.api
}

// Enabled reports whether a secret key is configured.
func (p *Provider) Enabled() bool {
	return p.cfg.SecretKey != ""
}

// PublishableKey returns the public key for client-side use, or "" if unset.
func (p *Provider) PublishableKey() string {
	return p.cfg.PublishableKey
}

// newAPI builds a client pinned to the SDK's API version, logging through zap.
func (p *Provider) newAPI(secretKey string) *client.API {
	backendCfg := &stripe.BackendConfig{
		LeveledLogger: p.lg.Sugar(),
	}
	if p.cfg.APIURL != "" {
		backendCfg.URL = stripe.String(p.cfg.APIURL)
	}

	return client.New(secretKey, stripe.NewBackendsWithConfig(backendCfg))
}
