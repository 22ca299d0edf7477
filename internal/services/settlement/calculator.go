// Package settlement computes the commission/payout split for captured
// checkout sessions.
package settlement

import (
	"errors"
	"math"
)

var (
	ErrInvalidRate   = errors.New("commission rate must be between 0 and 100")
	ErrInvalidAmount = errors.New("gross amount must be non-negative")
)

// Split is the result of dividing a captured gross amount between platform
// commission and merchant payout. Commission + Net always reproduces the
// gross exactly to the cent.
type Split struct {
	CommissionAmount float64
	NetAmount        float64
}

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute splits gross by the commission rate (in percent). All arithmetic
// happens in integer cents with half-up rounding on the commission; the net
// is the remainder, so the split sums back to the gross with no drift.
func (c *Calculator) Compute(grossAmount, commissionRatePercent float64) (Split, error) {
	if commissionRatePercent < 0 || commissionRatePercent > 100 {
		return Split{}, ErrInvalidRate
	}
	if grossAmount < 0 {
		return Split{}, ErrInvalidAmount
	}

	grossCents := int64(math.Round(grossAmount * 100))
	commissionCents := int64(math.Floor(float64(grossCents)*commissionRatePercent/100 + 0.5))
	netCents := grossCents - commissionCents

	return Split{
		CommissionAmount: float64(commissionCents) / 100,
		NetAmount:        float64(netCents) / 100,
	}, nil
}
