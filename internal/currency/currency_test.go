package currency_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/shopspring/decimal"
)

func TestRegistry_ParseText(t *testing.T) {
	reg := currency.DefaultRegistry()

	tests := []struct {
		name     string
		text     string
		want     string
		wantCode string
	}{
		{name: "dollar_with_thousands", text: "$1,299.99", want: "1299.99", wantCode: "USD"},
		{name: "euro_comma_decimal", text: "1.299,00 €", want: "1299", wantCode: "EUR"},
		{name: "euro_short", text: "€ 449,90", want: "449.9", wantCode: "EUR"},
		{name: "yen_no_minor_units", text: "¥110,000", want: "110000", wantCode: "JPY"},
		{name: "yen_kanji", text: "98,800円", want: "98800", wantCode: "JPY"},
		{name: "rupee_code", text: "INR 45,999", want: "45999", wantCode: "INR"},
		{name: "rupee_prefix", text: "Rs. 52,499", want: "52499", wantCode: "INR"},
		{name: "canadian_beats_dollar", text: "C$899", want: "899", wantCode: "CAD"},
		{name: "pound", text: "£649.00", want: "649", wantCode: "GBP"},
		{name: "no_currency", text: "Price: 399", want: "399", wantCode: ""},
		{name: "nbsp_grouping", text: "1\u00a0099,99 €", want: "1099.99", wantCode: "EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, cur, err := reg.ParseText(tt.text)
			if err != nil {
				t.Fatalf("ParseText(%q) error = %v", tt.text, err)
			}
			if !amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("amount = %s, want %s", amount, tt.want)
			}
			gotCode := ""
			if cur != nil {
				gotCode = cur.Code()
			}
			if gotCode != tt.wantCode {
				t.Errorf("currency = %q, want %q", gotCode, tt.wantCode)
			}
		})
	}
}

func TestRegistry_ParseText_NoAmount(t *testing.T) {
	reg := currency.DefaultRegistry()
	for _, text := range []string{"", "Sold out", "€"} {
		if _, _, err := reg.ParseText(text); !errors.Is(err, currency.ErrNoAmount) {
			t.Errorf("ParseText(%q) error = %v, want ErrNoAmount", text, err)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := currency.DefaultRegistry()

	if c, err := reg.Lookup("jpy"); err != nil || c != currency.JPY {
		t.Errorf("Lookup(jpy) = %v, %v", c, err)
	}
	if c, err := reg.Lookup("€"); err != nil || c != currency.EUR {
		t.Errorf("Lookup(€) = %v, %v", c, err)
	}
	if _, err := reg.Lookup("XYZ"); !errors.Is(err, currency.ErrUnknownCurrency) {
		t.Errorf("Lookup(XYZ) error = %v", err)
	}
	if got := reg.Codes(); len(got) != 7 || got[0] != "AUD" {
		t.Errorf("Codes() = %v", got)
	}
}

func TestRate_ToBase(t *testing.T) {
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		quote *currency.Currency
		rate  string
		price string
		want  string
	}{
		{name: "yen", quote: currency.JPY, rate: "110", price: "110000", want: "1000"},
		{name: "euro", quote: currency.EUR, rate: "0.85", price: "850", want: "1000"},
		{name: "rupee", quote: currency.INR, rate: "75", price: "45000", want: "600"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := currency.NewRate(currency.USD, tt.quote, decimal.RequireFromString(tt.rate), asOf, "static")
			if err != nil {
				t.Fatalf("NewRate() error = %v", err)
			}
			got, err := r.ToBase(currency.MustMoney(tt.quote, tt.price))
			if err != nil {
				t.Fatalf("ToBase() error = %v", err)
			}
			if got.Currency() != currency.USD || !got.Round().Amount().Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ToBase() = %s, want %s USD", got, tt.want)
			}
		})
	}
}

func TestRate_Errors(t *testing.T) {
	if _, err := currency.NewRate(currency.USD, currency.EUR, decimal.Zero, time.Now(), ""); !errors.Is(err, currency.ErrInvalidRate) {
		t.Errorf("zero rate error = %v", err)
	}

	r := currency.Identity(currency.USD, time.Now())
	if _, err := r.ToBase(currency.MustMoney(currency.EUR, "1")); !errors.Is(err, currency.ErrCurrencyMismatch) {
		t.Errorf("mismatch error = %v", err)
	}

	if _, err := currency.NewMoney(currency.USD, decimal.NewFromInt(-1)); !errors.Is(err, currency.ErrNegativeAmount) {
		t.Errorf("negative money error = %v", err)
	}
}

func TestMoney_String(t *testing.T) {
	if got := currency.MustMoney(currency.JPY, "98800.4").Round().String(); got != "98800 JPY" {
		t.Errorf("String() = %q", got)
	}
	if got := currency.MustMoney(currency.USD, "499").String(); got != "499.00 USD" {
		t.Errorf("String() = %q", got)
	}
}
