// Package pricing computes line-item totals for a product shown with a live
// quantity and exchange rate.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Totals is the result of ComputeTotals.
type Totals struct {
	Quantity decimal.Decimal
	USD      decimal.Decimal
	Local    decimal.Decimal
}

// Active reports whether the line item has a positive quantity. Callers use
// it to highlight the line; non-positive quantities render neutral.
func (t Totals) Active() bool {
	return t.Quantity.IsPositive()
}

// ComputeTotals returns quantity*unitPriceUSD and that amount converted with
// exchangeRate. Inputs may be numbers or numeric strings; anything absent or
// unparsable counts as zero. It never fails.
func ComputeTotals(quantity, unitPriceUSD, exchangeRate any) Totals {
	q := ParseAmount(quantity)
	usd := q.Mul(ParseAmount(unitPriceUSD))
	return Totals{
		Quantity: q,
		USD:      usd,
		Local:    usd.Mul(ParseAmount(exchangeRate)),
	}
}

// ParseAmount converts v to a decimal, returning zero on any failure.
func ParseAmount(v any) decimal.Decimal {
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

var printer = message.NewPrinter(language.English)

// Format renders totals the way the catalog list shows them, e.g.
// "Total: $1500.00 | Bs: 60,000.00". Only the local amount is grouped.
func Format(t Totals, localLabel string) string {
	local, _ := t.Local.Round(2).Float64()
	return "Total: $" + t.USD.StringFixed(2) + " | " + printer.Sprintf("%s: %.2f", localLabel, local)
}

// FormatPrice renders a unit reference price, e.g. "Ref: $2.50".
func FormatPrice(price decimal.Decimal) string {
	return "Ref: $" + price.StringFixed(2)
}
