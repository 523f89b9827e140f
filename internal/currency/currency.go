// Package currency models fiat currencies, money amounts and exchange
// rates used to bring marketplace listings into one reporting currency.
package currency

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrNilCurrency      = errors.New("currency: nil currency")
	ErrNegativeAmount   = errors.New("currency: negative amount")
	ErrCurrencyMismatch = errors.New("currency: cannot operate on different currencies")
	ErrInvalidRate      = errors.New("currency: rate must be positive")
	ErrUnknownCurrency  = errors.New("currency: unknown currency")
	ErrNoAmount         = errors.New("currency: no amount in text")
)

// Currency is reference data for an ISO 4217 currency.
// The code is identity; symbol and name are display metadata.
type Currency struct {
	code     string
	symbol   string
	name     string
	decimals int32
}

// New creates a Currency. The code is upper-cased.
func New(code, symbol, name string, decimals int32) *Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		panic("currency: code must be three letters: " + code)
	}
	if decimals < 0 || decimals > 4 {
		panic("currency: suspicious decimals")
	}
	return &Currency{code: code, symbol: symbol, name: name, decimals: decimals}
}

// Code returns the ISO code, e.g. "JPY".
func (c *Currency) Code() string {
	return c.code
}

// Symbol returns the display symbol, falling back to the code.
func (c *Currency) Symbol() string {
	if c.symbol == "" {
		return c.code
	}
	return c.symbol
}

// Name returns the human-readable name.
func (c *Currency) Name() string {
	if c.name == "" {
		return c.code
	}
	return c.name
}

// Decimals returns the minor-unit places (0 for JPY).
func (c *Currency) Decimals() int32 {
	return c.decimals
}

// String returns the code.
func (c *Currency) String() string {
	return c.code
}

// Equals compares two currencies by code.
func (c *Currency) Equals(other *Currency) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.code == other.code
}
