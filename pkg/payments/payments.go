package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
)

// ChargeRequest carries the order details a provider needs to start a payment.
type ChargeRequest struct {
	OrderID       uuid.UUID
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

// ChargeResult is the provider-agnostic outcome of initiating a payment.
// When a provider is not configured the charge is skipped and Note explains
// why, so checkout keeps working in development environments.
type ChargeResult struct {
	Provider     enums.PaymentProvider `json:"provider"`
	Reference    string                `json:"reference,omitempty"`
	ClientSecret string                `json:"client_secret,omitempty"`
	Status       string                `json:"status,omitempty"`
	Note         string                `json:"note,omitempty"`
}

// Provider initiates a payment with an external processor.
type Provider interface {
	Name() enums.PaymentProvider
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Registry dispatches charge creation to the configured providers.
type Registry struct {
	providers map[enums.PaymentProvider]Provider
}

// NewRegistry indexes the supplied providers by name.
func NewRegistry(providers ...Provider) *Registry {
	indexed := make(map[enums.PaymentProvider]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		indexed[p.Name()] = p
	}
	return &Registry{providers: indexed}
}

// CreateCharge routes the request to the named provider. Manual payments
// bypass processors entirely.
func (r *Registry) CreateCharge(ctx context.Context, provider enums.PaymentProvider, req ChargeRequest) (*ChargeResult, error) {
	if provider == enums.PaymentProviderManual {
		return &ChargeResult{
			Provider: provider,
			Note:     "manual payment selected; awaiting confirmation",
		}, nil
	}
	p, ok := r.providers[provider]
	if !ok {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unsupported payment provider %q", provider))
	}
	if req.AmountCents <= 0 {
		return nil, errors.New(errors.CodeValidation, "charge amount must be positive")
	}
	return p.CreateCharge(ctx, req)
}
