package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Add(t *testing.T) {
	a := NewMoney(decimal.RequireFromString("100.25"), "USD")
	b := NewMoney(decimal.RequireFromString("0.75"), "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("101")))
	assert.Equal(t, "USD", sum.Currency)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := USD(decimal.NewFromInt(100))
	eur := NewMoney(decimal.NewFromInt(100), "EUR")

	_, err := usd.Add(eur)
	assert.Error(t, err)

	_, err = usd.Sub(eur)
	assert.Error(t, err)

	_, err = usd.GreaterThan(eur)
	assert.Error(t, err)
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	// Amounts cross the wire as strings so no precision is lost to
	// floating point.
	m := NewMoney(decimal.RequireFromString("123456789012345678.123456789012"), "USD")

	encoded, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"amount":"123456789012345678.123456789012"`)

	var decoded Money
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, decoded.Equal(m))
}

func TestMoney_FromString(t *testing.T) {
	m, err := NewMoneyFromString("42.42", "USD")
	require.NoError(t, err)
	assert.True(t, m.Amount.Equal(decimal.RequireFromString("42.42")))

	_, err = NewMoneyFromString("not-a-number", "USD")
	assert.Error(t, err)
}
