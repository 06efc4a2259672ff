package providers

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scope is the currency and country a deployment declares for.
type Scope struct {
	Currency string
	Country  string
}

// DefaultScope covers euro sales in France.
var DefaultScope = Scope{Currency: "EUR", Country: "FR"}

// InCurrency reports whether currency is in scope. An unreported currency is assumed in scope.
func (s Scope) InCurrency(currency string) bool {
	return currency == "" || strings.EqualFold(currency, s.Currency)
}

// InCountry reports whether country is in scope. An unreported country is assumed in scope.
func (s Scope) InCountry(country string) bool {
	return country == "" || strings.EqualFold(country, s.Country)
}

// Dedupe keeps the first item of each key, preserving order.
func Dedupe[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// CentsToAmount converts minor units into the major unit.
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ResolveAmount returns amount, or fallback when amount is missing or negative.
func ResolveAmount(amount *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if amount == nil || amount.IsNegative() {
		return fallback
	}
	return *amount
}

// InScope reports whether a sale in currency and country belongs to the default scope.
func InScope(currency, country string) bool {
	return DefaultScope.InCurrency(currency) && DefaultScope.InCountry(country)
}
