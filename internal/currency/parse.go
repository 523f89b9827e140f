package currency

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberPattern = regexp.MustCompile(`\d[\d.,\s\x{00a0}\x{202f}']*`)
	codePattern   = regexp.MustCompile(`\b[A-Z]{3}\b`)
)

// ParseText extracts an amount and, when present, its currency from
// listing text such as "$1,299.99", "1.299,00 €", "¥110,000" or
// "INR 45,999". A nil currency means the text named none.
func (r *Registry) ParseText(text string) (decimal.Decimal, *Currency, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil, ErrNoAmount
	}

	cur := r.detect(text)

	raw := numberPattern.FindString(text)
	if raw == "" {
		return decimal.Zero, cur, fmt.Errorf("%w: %q", ErrNoAmount, text)
	}

	var decimals int32 = 2
	if cur != nil {
		decimals = cur.decimals
	}
	amount, err := ParseNumber(raw, decimals)
	if err != nil {
		return decimal.Zero, cur, err
	}
	if strings.Contains(text, "-"+raw) {
		amount = amount.Neg()
	}
	return amount, cur, nil
}

func (r *Registry) detect(text string) *Currency {
	for _, code := range codePattern.FindAllString(strings.ToUpper(text), -1) {
		if c, ok := r.Get(code); ok {
			return c
		}
	}
	for _, sym := range r.symbols() {
		if strings.Contains(text, sym) {
			c, _ := r.Lookup(sym)
			return c
		}
	}
	return nil
}

// ParseNumber parses a number written with either "," or "." as the
// decimal separator. When only one separator kind appears it is read as
// a thousands separator if followed by exactly three digits, or always
// when the currency has no minor units.
func ParseNumber(raw string, minorUnits int32) (decimal.Decimal, error) {
	s := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "").Replace(strings.TrimSpace(raw))
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return decimal.Zero, ErrNoAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",", minorUnits)
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".", minorUnits)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency: invalid amount %q: %w", raw, err)
	}
	return d, nil
}

func normalizeSingleSeparator(s, sep string, minorUnits int32) string {
	parts := strings.Split(s, sep)
	last := parts[len(parts)-1]
	if len(parts) > 2 || len(last) == 3 || minorUnits == 0 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], "") + "." + last
}
