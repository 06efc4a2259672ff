package providers

import (
	"errors"
	"testing"

	"ticketing-sync/core/httpclient"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInferTaxRate(t *testing.T) {
	tests := []struct {
		name  string
		tiers []TaxedPrice
		want  decimal.NullDecimal
	}{
		{
			name: "aligned paid tiers",
			tiers: []TaxedPrice{
				{Price: price("10"), Rate: rate("0.055")},
				{Price: price("15"), Rate: rate("0.055")},
			},
			want: rate("0.055"),
		},
		{
			name: "free tier ignored",
			tiers: []TaxedPrice{
				{Price: price("10"), Rate: rate("0.055")},
				{Price: price("0"), Rate: rate("0.2")},
			},
			want: rate("0.055"),
		},
		{
			name: "disagreement",
			tiers: []TaxedPrice{
				{Price: price("10"), Rate: rate("0.055")},
				{Price: price("15"), Rate: rate("0.2")},
			},
		},
		{
			name: "unknown paid rate",
			tiers: []TaxedPrice{
				{Price: price("10"), Rate: rate("0.055")},
				{Price: price("15")},
			},
		},
		{
			name: "only free tiers sharing a rate",
			tiers: []TaxedPrice{
				{Price: price("0"), Rate: rate("0.021")},
				{Price: price("0"), Rate: rate("0.021")},
			},
			want: rate("0.021"),
		},
		{
			name: "no tiers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferTaxRate(tt.tiers)
			assert.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.True(t, tt.want.Decimal.Equal(got.Decimal), "got %s", got.Decimal)
			}
		})
	}
}

func TestPercentToRate(t *testing.T) {
	got := PercentToRate(price("5.5"))
	require.True(t, got.Valid)
	assert.True(t, got.Decimal.Equal(price("0.055")))
}

func TestScope(t *testing.T) {
	assert.True(t, InScope("EUR", "FR"))
	assert.True(t, InScope("eur", ""))
	assert.True(t, InScope("", "fr"))
	assert.False(t, InScope("USD", "FR"))
	assert.False(t, InScope("EUR", "BE"))
}

func TestDedupe(t *testing.T) {
	type ticket struct {
		ID    string
		Price int
	}
	got := Dedupe([]ticket{{"a", 1}, {"b", 2}, {"a", 3}}, func(t ticket) string { return t.ID })
	assert.Equal(t, []ticket{{"a", 1}, {"b", 2}}, got)
}

func TestAmounts(t *testing.T) {
	assert.True(t, CentsToAmount(1250).Equal(price("12.5")))

	fallback := price("20")
	negative := price("-1")
	actual := price("18")
	assert.True(t, ResolveAmount(nil, fallback).Equal(fallback))
	assert.True(t, ResolveAmount(&negative, fallback).Equal(fallback))
	assert.True(t, ResolveAmount(&actual, fallback).Equal(actual))
}

func TestValidate(t *testing.T) {
	type payload struct {
		ID    string `validate:"required"`
		Price int    `validate:"gte=0"`
	}

	require.NoError(t, Validate("test", payload{ID: "1"}))

	err := Validate("test", payload{Price: -1})
	var violation *ContractViolationError
	require.ErrorAs(t, err, &violation)
	assert.Contains(t, violation.Reason, "payload.ID failed required")
	assert.Contains(t, violation.Reason, "payload.Price failed gte")
}

func TestContract(t *testing.T) {
	assert.NoError(t, Contract("test", nil))

	plain := errors.New("dial tcp: refused")
	assert.Same(t, plain, Contract("test", plain))

	inner := errors.New("unexpected EOF")
	err := Contract("test", &httpclient.DecodeError{URL: "https://x/api", Err: inner})
	var violation *ContractViolationError
	require.ErrorAs(t, err, &violation)
	assert.ErrorIs(t, err, inner)
}
