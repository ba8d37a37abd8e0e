package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	t.Run("multiplies quantity, price and rate", func(t *testing.T) {
		got := ComputeTotals(3, 2.5, 40)
		assert.True(t, got.USD.Equal(decimal.RequireFromString("7.5")), "usd %s", got.USD)
		assert.True(t, got.Local.Equal(decimal.RequireFromString("300")), "local %s", got.Local)
		assert.True(t, got.Active())
	})

	t.Run("accepts text input", func(t *testing.T) {
		got := ComputeTotals("3", "2.5", " 40 ")
		assert.True(t, got.Local.Equal(decimal.NewFromInt(300)))
	})

	t.Run("decimal prices are exact", func(t *testing.T) {
		got := ComputeTotals("3", decimal.RequireFromString("0.1"), "1")
		assert.Equal(t, "0.3", got.USD.String())
	})

	t.Run("absent or unparsable inputs degrade to zero", func(t *testing.T) {
		tests := []struct {
			name               string
			qty, price, rate   any
			wantUSD, wantLocal string
		}{
			{"empty quantity", "", 2.5, 40, "0", "0"},
			{"nil rate", 2, 2.5, nil, "5", "0"},
			{"garbage price", 2, "abc", 40, "0", "0"},
			{"garbage everything", "x", "y", "z", "0", "0"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := ComputeTotals(tt.qty, tt.price, tt.rate)
				assert.True(t, got.USD.Equal(decimal.RequireFromString(tt.wantUSD)))
				assert.True(t, got.Local.Equal(decimal.RequireFromString(tt.wantLocal)))
			})
		}
	})

	t.Run("non-positive quantity is neutral", func(t *testing.T) {
		assert.False(t, ComputeTotals(0, 2.5, 40).Active())
		assert.False(t, ComputeTotals(-1, 2.5, 40).Active())
		assert.False(t, ComputeTotals("", 2.5, 40).Active())
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Total: $7.50 | Bs: 300.00", Format(ComputeTotals(3, 2.5, 40), "Bs"))
	assert.Equal(t, "Total: $50.00 | Bs: 1,825.50", Format(ComputeTotals(20, 2.5, 36.51), "Bs"))
	assert.Equal(t, "Total: $0.00 | COP: 0.00", Format(ComputeTotals("", 2.5, 40), "COP"))
	assert.Equal(t, "Total: $1500.00 | Bs: 60,000.00", Format(ComputeTotals(1000, 1.5, 40), "Bs"))
	assert.Equal(t, "Total: $3.00 | Bs: 120.00", Format(ComputeTotals("1.5", 2, 40), "Bs"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "Ref: $2.50", FormatPrice(decimal.RequireFromString("2.5")))
}
