package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyDisplay(t *testing.T) {
	tests := []struct {
		name    string
		money   Money
		display string
	}{
		{"USD", USD(100), "$1.00"},
		{"EUR", EUR(19900), "€199.00"},
		{"GBP", GBP(5), "£0.05"},
		{"JPY", New(100, "JPY"), "¥100"},
		{"Negative", USD(-250), "$-2.50"},
		{"Unknown", New(1234, "chf"), "CHF 12.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.display, tt.money.String())
		})
	}
}

func TestMoneyEqual(t *testing.T) {
	assert.True(t, USD(100).Equal(New(100, "USD")))
	assert.False(t, USD(100).Equal(USD(101)))
	assert.False(t, USD(100).Equal(EUR(100)))
}

func TestMoneyArithmetic(t *testing.T) {
	assert.Equal(t, USD(300), USD(100).Add(USD(200)))
	assert.Equal(t, USD(50), USD(100).Subtract(USD(50)))
	assert.Panics(t, func() { _ = USD(100).Add(EUR(100)) })
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, Zero("usd").IsZero())
	assert.True(t, USD(1).IsPositive())
	assert.True(t, USD(-1).IsNegative())
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(USD(4900))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":4900,"currency":"usd","display":"$49.00"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":100,"currency":"EUR"}`), &m))
	assert.Equal(t, EUR(100), m)
}
