package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(config.PlatformConfig{
		FeeRate:               "0.05",
		DefaultCommissionRate: "0.1",
	})
	require.NoError(t, err)
	return svc
}

func ratePtr(value string) *decimal.Decimal {
	rate := decimal.RequireFromString(value)
	return &rate
}

func TestComputeBreakdownWithAffiliate(t *testing.T) {
	svc := newTestService(t)

	// Two units at $50.00 with a 10% commission.
	breakdown, err := svc.ComputeBreakdown(10000, ratePtr("0.1"))
	require.NoError(t, err)

	assert.Equal(t, int64(10000), breakdown.SubtotalCents)
	assert.Equal(t, int64(500), breakdown.PlatformFeeCents)
	assert.Equal(t, int64(1000), breakdown.AffiliatePayoutCents)
	assert.Equal(t, int64(8500), breakdown.VendorPayoutCents)
}

func TestComputeBreakdownWithoutAffiliate(t *testing.T) {
	svc := newTestService(t)

	// No explicit rate falls back to the 10% platform default.
	breakdown, err := svc.ComputeBreakdown(10000, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), breakdown.AffiliatePayoutCents)
	assert.Equal(t, int64(500), breakdown.PlatformFeeCents)
	assert.Equal(t, int64(8500), breakdown.VendorPayoutCents)
}

func TestComputeBreakdownEmptyOrder(t *testing.T) {
	svc := newTestService(t)

	breakdown, err := svc.ComputeBreakdown(0, nil)
	require.NoError(t, err)
	assert.Equal(t, Breakdown{}, breakdown)
}

func TestComputeBreakdownPartsAlwaysReconcile(t *testing.T) {
	svc := newTestService(t)

	// Awkward subtotals whose fee and commission do not round cleanly.
	for _, subtotal := range []int64{1, 3, 99, 101, 333, 12345, 9999999} {
		for _, rate := range []*decimal.Decimal{nil, ratePtr("0.1"), ratePtr("0.15"), ratePtr("0.333")} {
			breakdown, err := svc.ComputeBreakdown(subtotal, rate)
			require.NoError(t, err)

			sum := breakdown.PlatformFeeCents + breakdown.AffiliatePayoutCents + breakdown.VendorPayoutCents
			assert.Equal(t, subtotal, sum, "subtotal %d", subtotal)
			assert.GreaterOrEqual(t, breakdown.VendorPayoutCents, int64(0))
		}
	}
}

func TestComputeBreakdownValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ComputeBreakdown(-100, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())

	negative := decimal.RequireFromString("-0.1")
	_, err = svc.ComputeBreakdown(1000, &negative)
	require.Error(t, err)

	tooHigh := decimal.RequireFromString("0.96")
	_, err = svc.ComputeBreakdown(1000, &tooHigh)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestNewServiceRejectsBadRates(t *testing.T) {
	_, err := NewService(config.PlatformConfig{FeeRate: "not-a-number", DefaultCommissionRate: "0.1"})
	require.Error(t, err)

	_, err = NewService(config.PlatformConfig{FeeRate: "1.5", DefaultCommissionRate: "0.1"})
	require.Error(t, err)

	_, err = NewService(config.PlatformConfig{FeeRate: "0.05", DefaultCommissionRate: "0.99"})
	require.Error(t, err)
}

func TestDefaultCommissionRate(t *testing.T) {
	svc := newTestService(t)
	assert.True(t, svc.DefaultCommissionRate().Equal(decimal.RequireFromString("0.1")))
}
