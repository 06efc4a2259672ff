package providers

import (
	"github.com/shopspring/decimal"
)

// TaxedPrice is a price tier with its VAT rate as a fraction.
type TaxedPrice struct {
	Price decimal.Decimal
	Rate  decimal.NullDecimal
}

// InferTaxRate returns the rate shared by every paid tier. Free tiers follow the show's rate, so
// they are ignored while at least one paid tier exists. Disagreeing or unknown paid rates give an
// unknown result rather than a guess.
func InferTaxRate(tiers []TaxedPrice) decimal.NullDecimal {
	var paid []TaxedPrice
	for _, t := range tiers {
		if t.Price.IsPositive() {
			paid = append(paid, t)
		}
	}
	if len(paid) == 0 {
		paid = tiers
	}
	if len(paid) == 0 {
		return decimal.NullDecimal{}
	}

	rate := paid[0].Rate
	for _, t := range paid {
		if !t.Rate.Valid || !rate.Valid || !t.Rate.Decimal.Equal(rate.Decimal) {
			return decimal.NullDecimal{}
		}
	}
	return rate
}

// PercentToRate converts a percentage (5.5) into a fraction (0.055).
func PercentToRate(percent decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(percent.Shift(-2))
}
