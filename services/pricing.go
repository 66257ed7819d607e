package services

import (
	"github.com/shopspring/decimal"
)

// moneyPlaces is the rounding applied to monetary results.
const moneyPlaces = 2

// Totals aggregates a version's lines into the amounts stored on the
// version record.
type Totals struct {
	SubtotalHT     decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	TotalTTC       decimal.Decimal
}

// parseAmount converts a loosely-typed monetary value (record field,
// form input, JSON number) into a Decimal. The second return is false
// when the value is nil or unparseable.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	default:
		return decimal.Zero, false
	}
}

// ApplyTierCoefficient multiplies a base price by a tier coefficient and
// rounds half-up to roundingDigits. A negative roundingDigits skips
// rounding. Malformed or missing operands yield zero: a corrupt article
// price must never abort a whole generation run.
func ApplyTierCoefficient(basePrice, coefficient any, roundingDigits int) decimal.Decimal {
	price, ok := parseAmount(basePrice)
	if !ok {
		return decimal.Zero
	}
	coef, ok := parseAmount(coefficient)
	if !ok {
		return decimal.Zero
	}

	result := price.Mul(coef)
	if roundingDigits >= 0 {
		result = result.Round(int32(roundingDigits))
	}
	return result
}

// LineTotal computes quantity x unit price rounded half-up to 2 digits.
// Missing or malformed operands yield zero.
func LineTotal(quantity, unitPrice any) decimal.Decimal {
	qty, ok := parseAmount(quantity)
	if !ok {
		return decimal.Zero
	}
	price, ok := parseAmount(unitPrice)
	if !ok {
		return decimal.Zero
	}
	return qty.Mul(price).Round(moneyPlaces)
}

// QuoteTotals aggregates per-line totals into the version amounts.
// The discount is taken off the subtotal before VAT. Only the final VAT
// figure is rounded; intermediate sums stay exact so rounding error
// cannot compound across lines.
func QuoteTotals(lineTotals []decimal.Decimal, vatRate, discountPct decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, lt := range lineTotals {
		subtotal = subtotal.Add(lt)
	}

	discount := decimal.Zero
	if !discountPct.IsZero() {
		discount = subtotal.Mul(discountPct).Div(decimal.NewFromInt(100))
		subtotal = subtotal.Sub(discount)
	}

	vat := subtotal.Mul(vatRate).Div(decimal.NewFromInt(100)).Round(moneyPlaces)

	return Totals{
		SubtotalHT:     subtotal,
		DiscountAmount: discount,
		VATAmount:      vat,
		TotalTTC:       subtotal.Add(vat),
	}
}

// Margin computes the margin percentage ((sell - cost) / sell * 100)
// rounded half-up to 2 digits. A zero or missing selling price yields
// zero instead of a division error.
func Margin(costPrice, sellingPrice any) decimal.Decimal {
	cost, ok := parseAmount(costPrice)
	if !ok || cost.IsZero() {
		return decimal.Zero
	}
	sell, ok := parseAmount(sellingPrice)
	if !ok || sell.IsZero() {
		return decimal.Zero
	}
	return sell.Sub(cost).Div(sell).Mul(decimal.NewFromInt(100)).Round(moneyPlaces)
}
