package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits a stored amount may carry.
const Scale = 2

const (
	BRL = "BRL"
	USD = "USD"
	EUR = "EUR"
)

var (
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidPrecision = errors.New("amount has more fractional digits than allowed")
)

var validCurrencies = map[string]struct{}{
	BRL: {},
	USD: {},
	EUR: {},
}

// Money is an immutable amount in a single currency. The zero value is not a
// valid Money; build one with New.
//
// The gorm tags let the type be embedded in persisted entities with an
// embeddedPrefix (balance_amount, balance_currency, ...).
type Money struct {
	Amount   decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null" json:"amount"`
	Currency string          `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
}

// IsValidCurrency reports whether code (case-insensitive) is an allowed currency.
func IsValidCurrency(code string) bool {
	_, ok := validCurrencies[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

func New(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := validCurrencies[currency]; !ok {
		return Money{}, fmt.Errorf("%w: %q, allowed currencies are BRL, USD, EUR", ErrInvalidCurrency, currency)
	}
	if !amount.Equal(amount.Round(Scale)) {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidPrecision, amount.String())
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// MustNew is New for constants and tests. It panics on invalid input.
func MustNew(amount string, currency string) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	m, err := New(d, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in currency.
func Zero(currency string) (Money, error) {
	return New(decimal.Zero, currency)
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: cannot add %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrCurrencyMismatch, other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Multiply is exact; the result may carry more than Scale fractional digits.
// Callers that persist the result round it explicitly with Round.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Round rounds half away from zero to Scale fractional digits.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(Scale), Currency: m.Currency}
}

// Compare returns -1, 0 or +1. Currencies must match.
func (m Money) Compare(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("%w: cannot compare %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return m.Amount.Cmp(other.Amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	cmp, err := m.Compare(other)
	return cmp > 0, err
}

func (m Money) LessThan(other Money) (bool, error) {
	cmp, err := m.Compare(other)
	return cmp < 0, err
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

func (m Money) String() string {
	switch m.Currency {
	case BRL:
		return "R$ " + m.Amount.StringFixed(Scale)
	case USD:
		return "$ " + m.Amount.StringFixed(Scale)
	case EUR:
		return "€ " + m.Amount.StringFixed(Scale)
	default:
		return m.Currency + " " + m.Amount.StringFixed(Scale)
	}
}
