package currency

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Money is an immutable, non-negative amount in one currency.
type Money struct {
	amount   decimal.Decimal
	currency *Currency
}

// NewMoney creates Money, rejecting negative amounts.
func NewMoney(c *Currency, amount decimal.Decimal) (Money, error) {
	if c == nil {
		return Money{}, ErrNilCurrency
	}
	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: amount, currency: c}, nil
}

// MustMoney is NewMoney that panics on error.
func MustMoney(c *Currency, amount string) Money {
	m, err := NewMoney(c, decimal.RequireFromString(amount))
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the denomination.
func (m Money) Currency() *Currency {
	return m.currency
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Round rounds to the currency's minor units.
func (m Money) Round() Money {
	if m.currency == nil {
		return m
	}
	return Money{amount: m.amount.Round(m.currency.decimals), currency: m.currency}
}

// Cmp compares two amounts of the same currency.
func (m Money) Cmp(o Money) (int, error) {
	if !m.currency.Equals(o.currency) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return m.amount.Cmp(o.amount), nil
}

// String returns e.g. "499.00 USD".
func (m Money) String() string {
	if m.currency == nil {
		return m.amount.String() + " ???"
	}
	return m.amount.StringFixed(m.currency.decimals) + " " + m.currency.code
}

// Rate is how many units of Quote one unit of Base buys.
// USD/JPY at 110 means 1 USD = 110 JPY.
type Rate struct {
	Base   *Currency
	Quote  *Currency
	Value  decimal.Decimal
	AsOf   time.Time
	Source string
}

// NewRate validates and creates a Rate.
func NewRate(base, quote *Currency, value decimal.Decimal, asOf time.Time, source string) (Rate, error) {
	if base == nil || quote == nil {
		return Rate{}, ErrNilCurrency
	}
	if !value.IsPositive() {
		return Rate{}, ErrInvalidRate
	}
	return Rate{Base: base, Quote: quote, Value: value, AsOf: asOf, Source: source}, nil
}

// Identity returns the 1:1 rate of c to itself.
func Identity(c *Currency, asOf time.Time) Rate {
	return Rate{Base: c, Quote: c, Value: decimal.NewFromInt(1), AsOf: asOf, Source: "identity"}
}

// ToBase converts an amount in the quote currency into the base currency.
func (r Rate) ToBase(m Money) (Money, error) {
	if !m.currency.Equals(r.Quote) {
		return Money{}, fmt.Errorf("%w: rate quotes %s, money is %s", ErrCurrencyMismatch, r.Quote, m.currency)
	}
	if !r.Value.IsPositive() {
		return Money{}, ErrInvalidRate
	}
	return Money{amount: m.amount.Div(r.Value), currency: r.Base}, nil
}

// FromBase converts an amount in the base currency into the quote currency.
func (r Rate) FromBase(m Money) (Money, error) {
	if !m.currency.Equals(r.Base) {
		return Money{}, fmt.Errorf("%w: rate base is %s, money is %s", ErrCurrencyMismatch, r.Base, m.currency)
	}
	return Money{amount: m.amount.Mul(r.Value), currency: r.Quote}, nil
}

// String returns e.g. "USD/JPY 110".
func (r Rate) String() string {
	return fmt.Sprintf("%s/%s %s", r.Base, r.Quote, r.Value.String())
}
