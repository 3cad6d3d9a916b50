package pos

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the money side of a sale.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount_amount"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Final    decimal.Decimal `json:"final_amount"`
}

// ComputeTotals rounds each input to cents and derives
// Final = Subtotal - Discount + Tax. Nothing is clamped: a discount larger
// than the subtotal gives a negative final amount.
func ComputeTotals(subtotal, discount, tax decimal.Decimal) Totals {
	t := Totals{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Tax:      tax.Round(2),
	}
	t.Final = t.Subtotal.Sub(t.Discount).Add(t.Tax)
	return t
}

// LineTotal is quantity x unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// TaxPolicy computes tax for a discounted subtotal when the caller does not
// supply an explicit amount.
type TaxPolicy interface {
	Tax(taxable decimal.Decimal) decimal.Decimal
}

// NoTax charges nothing.
type NoTax struct{}

func (NoTax) Tax(decimal.Decimal) decimal.Decimal { return decimal.Zero }

// FlatRate charges Percent of the taxable amount.
type FlatRate struct {
	Percent decimal.Decimal
}

func (r FlatRate) Tax(taxable decimal.Decimal) decimal.Decimal {
	if !taxable.IsPositive() {
		return decimal.Zero
	}
	return taxable.Mul(r.Percent).Div(hundred).Round(2)
}

// TaxPolicyFor returns NoTax for a zero rate and FlatRate otherwise.
func TaxPolicyFor(percent decimal.Decimal) TaxPolicy {
	if percent.IsZero() {
		return NoTax{}
	}
	return FlatRate{Percent: percent}
}
