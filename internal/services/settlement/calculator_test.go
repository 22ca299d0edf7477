package settlement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Compute(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name           string
		gross          float64
		rate           float64
		wantCommission float64
		wantNet        float64
	}{
		{name: "standard 3 percent", gross: 175.00, rate: 3, wantCommission: 5.25, wantNet: 169.75},
		{name: "uneven division rounds half up", gross: 100.01, rate: 3, wantCommission: 3.00, wantNet: 97.01},
		{name: "half cent rounds up", gross: 16.50, rate: 1, wantCommission: 0.17, wantNet: 16.33},
		{name: "zero gross", gross: 0, rate: 3, wantCommission: 0, wantNet: 0},
		{name: "zero rate", gross: 250.00, rate: 0, wantCommission: 0, wantNet: 250.00},
		{name: "full rate", gross: 42.42, rate: 100, wantCommission: 42.42, wantNet: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := calc.Compute(tt.gross, tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommission, split.CommissionAmount)
			assert.Equal(t, tt.wantNet, split.NetAmount)
		})
	}
}

func TestCalculator_Compute_Identity(t *testing.T) {
	calc := NewCalculator()

	// commission + net must reproduce the gross exactly to the cent for a
	// wide range of amounts and rates, including ones that do not divide
	// evenly.
	rates := []float64{0, 0.5, 1, 2.75, 3, 7.33, 12.5, 50, 99.9, 100}
	for g := int64(0); g <= 100000; g += 37 {
		gross := float64(g) / 100
		for _, rate := range rates {
			split, err := calc.Compute(gross, rate)
			require.NoError(t, err)

			sumCents := math.Round(split.CommissionAmount*100) + math.Round(split.NetAmount*100)
			require.Equal(t, math.Round(gross*100), sumCents,
				"gross=%v rate=%v commission=%v net=%v", gross, rate, split.CommissionAmount, split.NetAmount)
			require.GreaterOrEqual(t, split.CommissionAmount, 0.0)
			require.GreaterOrEqual(t, split.NetAmount, 0.0)
		}
	}
}

func TestCalculator_Compute_Invalid(t *testing.T) {
	calc := NewCalculator()

	_, err := calc.Compute(100, -1)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = calc.Compute(100, 101)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = calc.Compute(-0.01, 3)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
