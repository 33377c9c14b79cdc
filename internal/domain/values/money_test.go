package values

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		wantErr  bool
	}{
		{
			name:     "valid USD amount",
			amount:   "12.50",
			currency: USD,
		},
		{
			name:     "valid EUR amount",
			amount:   "0.00",
			currency: EUR,
		},
		{
			name:     "negative amounts allowed at value level",
			amount:   "-3.25",
			currency: USD,
		},
		{
			name:     "missing currency",
			amount:   "5.00",
			currency: "",
			wantErr:  true,
		},
		{
			name:     "unsupported currency",
			amount:   "5.00",
			currency: "XYZ",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustNewMoneyFromFloat(10.00, USD)
	b := MustNewMoneyFromFloat(2.50, USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "12.50 USD", sum.String())

	scaled := a.MulFloat(1.65)
	assert.Equal(t, "16.50 USD", scaled.String())

	eur := MustNewMoneyFromFloat(1.00, EUR)
	_, err = a.Add(eur)
	assert.Error(t, err, "mixed currency addition must fail")
}

func TestMoneyComparison(t *testing.T) {
	low := MustNewMoneyFromFloat(8.00, USD)
	high := MustNewMoneyFromFloat(9.75, USD)

	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(low))
	assert.True(t, low.Equal(MustNewMoneyFromFloat(8.00, USD)))
	assert.False(t, low.Equal(high))
	assert.True(t, high.IsPositive())
	assert.True(t, Zero(USD).IsZero())
}

func TestMoneyCents(t *testing.T) {
	m := MustNewMoneyFromFloat(12.34, USD)
	assert.Equal(t, int64(1234), m.Cents())

	dec := decimal.RequireFromString("0.995")
	rounded, err := NewMoney(dec, USD)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rounded.Cents())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	original := MustNewMoneyFromFloat(42.10, CAD)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"42.10","currency":"CAD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}
