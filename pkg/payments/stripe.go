package payments

import (
	"context"
	"strings"

	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// StripeIntentClient exposes the subset of Stripe operations required by the
// provider, so services can be tested without network access.
type StripeIntentClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeIntentWrapper struct{}

func (stripeIntentWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

// StripeProvider creates PaymentIntents for orders. When the API key is
// missing the provider degrades to a no-op charge with an explanatory note.
type StripeProvider struct {
	cfg    config.StripeConfig
	client StripeIntentClient
	logg   *logger.Logger
}

// NewStripeProvider wires Stripe payment creation. Passing a nil client uses
// the live Stripe bindings.
func NewStripeProvider(cfg config.StripeConfig, client StripeIntentClient, logg *logger.Logger) *StripeProvider {
	if cfg.Configured() {
		stripe.Key = strings.TrimSpace(cfg.APIKey)
	}
	if client == nil {
		client = stripeIntentWrapper{}
	}
	return &StripeProvider{cfg: cfg, client: client, logg: logg}
}

func (p *StripeProvider) Name() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

func (p *StripeProvider) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !p.cfg.Configured() {
		if p.logg != nil {
			p.logg.Warn(ctx, "stripe credentials missing, skipping charge creation")
		}
		return &ChargeResult{
			Provider: enums.PaymentProviderStripe,
			Note:     "stripe not configured; payment must be confirmed manually",
		}, nil
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(req.AmountCents),
		Currency:     stripe.String(currency),
		ReceiptEmail: stripe.String(req.CustomerEmail),
	}
	params.AddMetadata("order_id", req.OrderID.String())

	intent, err := p.client.CreateIntent(ctx, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "creating stripe payment intent")
	}

	return &ChargeResult{
		Provider:     enums.PaymentProviderStripe,
		Reference:    intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}
