package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/payment"
)

// PaymentConfig returns the publishable key browsers need to render payment
// forms. It requires no authentication.
func (h *Handler) PaymentConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("publishable_key", func(e *jx.Encoder) { e.Str(h.payments.PublishableKey()) })
			e.Field("enabled", func(e *jx.Encoder) { e.Bool(h.payments.Enabled()) })
		})
	})
}

// CreatePaymentIntent starts a payment for one of the caller's pending orders
// and returns the client secret for confirming it in the browser.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookupOrder(w, r)
	if !ok {
		return
	}
	if !h.payments.Enabled() {
		writeError(w, http.StatusServiceUnavailable, msgPaymentsUnavailable)
		return
	}
	if !o.Payable() {
		writeError(w, http.StatusConflict, msgOrderNotPayable)
		return
	}

	intent, err := h.payments.CreateIntent(r.Context(), o)
	if err != nil {
		if errors.Is(err, payment.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, msgPaymentsUnavailable)
			return
		}
		zctx.From(r.Context()).Error("Create payment intent",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, msgPaymentProvider)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("payment_intent_id", func(e *jx.Encoder) { e.Str(intent.ID) })
			e.Field("client_secret", func(e *jx.Encoder) { e.Str(intent.ClientSecret) })
		})
	})
}
