package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront-api/internal/domain/order"
)

// Error messages returned to clients.
const (
	msgUnauthorized        = "Unauthorized"
	msgOrderNotFound       = "Order not found"
	msgPaymentsUnavailable = "Payments unavailable"
	msgOrderNotPayable     = "Order is not payable"
	msgPaymentProvider     = "Payment provider error"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; a failed write means the client went away.
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("user_id", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(o.Status) })
		e.Field("total_amount", func(e *jx.Encoder) { e.Str(o.TotalAmount.StringFixed(2)) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(o.Currency) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
		e.Field("updated_at", func(e *jx.Encoder) { e.Str(o.UpdatedAt.Format(time.RFC3339)) })
		e.Field("order_items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					encodeItem(e, it)
				}
			})
		})
	})
}

func encodeItem(e *jx.Encoder, it order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("order_id", func(e *jx.Encoder) { e.Str(it.OrderID) })
		e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("unit_price", func(e *jx.Encoder) { e.Str(it.UnitPrice.StringFixed(2)) })
	})
}
