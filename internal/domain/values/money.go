package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with currency and precision handling.
// Fares and bid amounts are always carried as Money, never raw floats.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Common currency codes (ISO 4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	CAD = "CAD"
)

// NewMoney creates a new Money value object
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if err := validateCurrency(currency); err != nil {
		return Money{}, err
	}

	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromString creates Money from string amount and currency
func NewMoneyFromString(amount, currency string) (Money, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount: %w", err)
	}

	return NewMoney(dec, currency)
}

// NewMoneyFromFloat creates Money from float64 amount and currency
// Note: Use with caution due to floating point precision issues
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// MustNewMoneyFromFloat creates Money from float and panics on error (for constants/tests)
func MustNewMoneyFromFloat(amount float64, currency string) Money {
	m, err := NewMoneyFromFloat(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero Money value in the given currency
func Zero(currency string) Money {
	m, _ := NewMoney(decimal.Zero, currency)
	return m
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() string {
	return m.currency
}

// String returns money with currency code (e.g., "12.50 USD")
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

// ToFloat64 returns the amount as float64 (display only, not arithmetic)
func (m Money) ToFloat64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive checks if the amount is strictly positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Add returns the sum of two Money values of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MulFloat returns the Money scaled by a factor, rounded to cents
func (m Money) MulFloat(factor float64) Money {
	return Money{
		amount:   m.amount.Mul(decimal.NewFromFloat(factor)).Round(2),
		currency: m.currency,
	}
}

// Compare returns -1, 0 or 1 comparing amounts; currencies must match for a
// meaningful result
func (m Money) Compare(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Equal checks amount and currency equality
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Cents returns the amount in the smallest currency unit, as payment
// processors expect it
func (m Money) Cents() int64 {
	return m.amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.amount.StringFixed(2),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := NewMoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(4), nil
}

// Scan implements sql.Scanner for database retrieval; currency is stored in a
// separate column and applied by the repository
func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid money value: %w", err)
		}
		m.amount = dec
	case []byte:
		dec, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("invalid money value: %w", err)
		}
		m.amount = dec
	case float64:
		m.amount = decimal.NewFromFloat(v)
	case nil:
		m.amount = decimal.Zero
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	if m.currency == "" {
		m.currency = USD
	}
	return nil
}

func validateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	switch currency {
	case USD, EUR, GBP, CAD:
		return nil
	case "":
		return fmt.Errorf("currency is required")
	default:
		return fmt.Errorf("unsupported currency: %s", currency)
	}
}
