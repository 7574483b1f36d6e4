package payment

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v82"

	"github.com/xenking/storefront-api/internal/domain/order"
)

// ErrUnavailable is returned when payments are disabled.
var ErrUnavailable = errors.New("payments unavailable")

// Intent is the client-facing part of a created PaymentIntent.
type Intent struct {
	ID           string
	ClientSecret string
}

// zeroDecimal lists currencies Stripe charges in whole units.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// MinorUnits converts the order total into the smallest currency unit.
func MinorUnits(o *order.Order) int64 {
	if zeroDecimal[strings.ToLower(o.Currency)] {
		return o.TotalAmount.Round(0).IntPart()
	}
	return o.TotalAmount.Shift(2).Round(0).IntPart()
}

// CreateIntent starts a PaymentIntent for the order total. Repeated calls for
// the same order reuse one idempotency key.
func (p *Provider) CreateIntent(ctx context.Context, o *order.Order) (*Intent, error) {
	api := p.Client()
	if api == nil {
		return nil, ErrUnavailable
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(o)),
		Currency: stripe.String(strings.ToLower(o.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("order-" + o.ID)
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("user_id", o.UserID)

	pi, err := api.PaymentIntents.New(params)
	if err != nil {
		return nil, errors.Wrapf(err, "create payment intent for order %s", o.ID)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}
