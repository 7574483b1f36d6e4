package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/order"
)

// GetOrder returns the caller's order with its items.
//
// A failed store read and a missing row both answer 404; the caller cannot
// tell them apart. The store error is logged.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookupOrder(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("order", func(e *jx.Encoder) { encodeOrder(e, o) })
		})
	})
}

// lookupOrder authenticates the request and loads the order named by the
// path, owned by the caller. On failure it writes the error response and
// returns false.
func (h *Handler) lookupOrder(w http.ResponseWriter, r *http.Request) (*order.Order, bool) {
	ctx := r.Context()

	user, err := h.users.CurrentUser(ctx, r)
	if err != nil {
		h.countLookup(r, "unauthorized")
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return nil, false
	}

	id := r.PathValue("id")

	ctx, span := h.tracer.Start(ctx, "orders.GetForUser",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	o, err := h.orders.GetForUser(ctx, id, user.ID)
	if err != nil && !errors.Is(err, order.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order lookup failed")
		zctx.From(ctx).Warn("Order lookup failed",
			zap.String("order_id", id),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
	span.End()

	if err != nil || o == nil {
		h.countLookup(r, "not_found")
		writeError(w, http.StatusNotFound, msgOrderNotFound)
		return nil, false
	}

	h.countLookup(r, "ok")
	return o, true
}

func (h *Handler) countLookup(r *http.Request, result string) {
	h.lookups.Add(r.Context(), 1, metric.WithAttributes(attribute.String("result", result)))
}
