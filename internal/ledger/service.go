package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/errors"
)

// Breakdown is the settlement split for one order. The three payout parts
// always sum exactly to the subtotal; the vendor payout absorbs any rounding
// remainder.
type Breakdown struct {
	SubtotalCents        int64 `json:"subtotal_cents"`
	PlatformFeeCents     int64 `json:"platform_fee_cents"`
	AffiliatePayoutCents int64 `json:"affiliate_payout_cents"`
	VendorPayoutCents    int64 `json:"vendor_payout_cents"`
}

// Service computes settlement breakdowns from configured platform rates.
type Service interface {
	ComputeBreakdown(subtotalCents int64, affiliateRate *decimal.Decimal) (Breakdown, error)
	DefaultCommissionRate() decimal.Decimal
}

type service struct {
	feeRate     decimal.Decimal
	defaultRate decimal.Decimal
}

// NewService parses and validates the platform rates once at startup.
func NewService(cfg config.PlatformConfig) (Service, error) {
	feeRate, err := decimal.NewFromString(cfg.FeeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid platform fee rate %q: %w", cfg.FeeRate, err)
	}
	defaultRate, err := decimal.NewFromString(cfg.DefaultCommissionRate)
	if err != nil {
		return nil, fmt.Errorf("invalid default commission rate %q: %w", cfg.DefaultCommissionRate, err)
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("platform fee rate must be in [0,1), got %s", feeRate)
	}
	if defaultRate.IsNegative() || defaultRate.Add(feeRate).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("default commission rate %s leaves no vendor payout", defaultRate)
	}
	return &service{feeRate: feeRate, defaultRate: defaultRate}, nil
}

// ComputeBreakdown splits the subtotal into platform fee, affiliate payout
// and vendor payout. A nil affiliateRate falls back to the platform default
// commission. A zero subtotal (empty order) yields a zero breakdown. Fee and
// commission are rounded half-up to whole cents independently; the vendor
// receives the residual so the parts reconcile exactly.
func (s *service) ComputeBreakdown(subtotalCents int64, affiliateRate *decimal.Decimal) (Breakdown, error) {
	if subtotalCents < 0 {
		return Breakdown{}, errors.New(errors.CodeValidation, "subtotal cannot be negative")
	}
	if subtotalCents == 0 {
		return Breakdown{}, nil
	}

	rate := s.defaultRate
	if affiliateRate != nil {
		rate = *affiliateRate
		if rate.IsNegative() {
			return Breakdown{}, errors.New(errors.CodeValidation, "commission rate cannot be negative")
		}
		if rate.Add(s.feeRate).GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return Breakdown{}, errors.New(errors.CodeValidation,
				fmt.Sprintf("commission rate %s leaves no vendor payout", rate))
		}
	}

	subtotal := decimal.NewFromInt(subtotalCents)
	platformFee := subtotal.Mul(s.feeRate).Round(0).IntPart()
	affiliatePayout := subtotal.Mul(rate).Round(0).IntPart()
	vendorPayout := subtotalCents - platformFee - affiliatePayout

	return Breakdown{
		SubtotalCents:        subtotalCents,
		PlatformFeeCents:     platformFee,
		AffiliatePayoutCents: affiliatePayout,
		VendorPayoutCents:    vendorPayout,
	}, nil
}

// DefaultCommissionRate is applied when a product does not set its own rate.
func (s *service) DefaultCommissionRate() decimal.Decimal {
	return s.defaultRate
}
