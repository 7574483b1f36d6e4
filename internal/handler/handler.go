// Package handler serves the storefront HTTP API.
package handler

import (
	"context"
	"net/http"
	"slices"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/storefront-api/internal/domain/auth"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/payment"
)

const instrumentationName = "github.com/xenking/storefront-api/internal/handler"

// Payments is the subset of the payment provider used by the handlers.
type Payments interface {
	Enabled() bool
	PublishableKey() string
	CreateIntent(ctx context.Context, o *order.Order) (*payment.Intent, error)
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// TracerProvider and MeterProvider default to no-op providers when nil.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Handler serves the order and payment endpoints. Collaborators are injected
// so the handlers can be exercised without a database or network.
type Handler struct {
	users    auth.Authenticator
	orders   order.Repository
	payments Payments

	tracer  trace.Tracer
	lookups metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	users auth.Authenticator,
	orders order.Repository,
	payments Payments,
) (*Handler, error) {
	tp := cfg.TracerProvider
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}

	lookups, err := mp.Meter(instrumentationName).Int64Counter("orders.lookup",
		metric.WithDescription("Order lookups by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.lookup counter")
	}

	return &Handler{
		users:    users,
		orders:   orders,
		payments: payments,
		tracer:   tp.Tracer(instrumentationName),
		lookups:  lookups,
	}, nil
}

type route struct {
	method  string
	pattern string
	handle  http.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{http.MethodGet, "/api/orders/{id}", h.GetOrder},
		{http.MethodPost, "/api/orders/{id}/payment-intent", h.CreatePaymentIntent},
		{http.MethodGet, "/api/payments/config", h.PaymentConfig},
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, rt := range h.routes() {
		mux.HandleFunc(rt.method+" "+rt.pattern, rt.handle)
	}
}

// Methods lists the HTTP methods served by the API routes, in route order.
func (h *Handler) Methods() []string {
	var methods []string
	for _, rt := range h.routes() {
		if !slices.Contains(methods, rt.method) {
			methods = append(methods, rt.method)
		}
	}
	return methods
}
