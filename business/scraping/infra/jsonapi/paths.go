package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
)

// decodeItems decodes body and returns the array at path.
func decodeItems(body []byte, path string) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, apperror.New(apperror.CodeParseError, apperror.WithCause(err))
	}

	v := lookup(doc, path)
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, apperror.New(apperror.CodeParseError,
			apperror.WithContext(fmt.Sprintf("%s is %T, not an array", path, v)))
	}
	return items, nil
}

// lookup follows a dotted path through objects and arrays. Numeric
// segments index arrays. An empty path returns v.
func lookup(v any, path string) any {
	if path == "" {
		return v
	}
	for _, seg := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			v = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			v = node[i]
		default:
			return nil
		}
	}
	return v
}

func stringAt(v any, path string) string {
	if path == "" {
		return ""
	}
	switch s := lookup(v, path).(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// price reads a numeric or textual amount. Text may carry a currency.
func price(reg *currency.Registry, v any) (decimal.Decimal, *currency.Currency, bool) {
	switch p := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(p.String())
		return d, nil, err == nil
	case string:
		d, cur, err := reg.ParseText(p)
		return d, cur, err == nil
	default:
		return decimal.Zero, nil, false
	}
}

// available treats a missing field as available.
func available(v any) bool {
	switch a := v.(type) {
	case nil:
		return true
	case bool:
		return a
	case string:
		switch strings.ToLower(strings.TrimSpace(a)) {
		case "false", "no", "sold", "sold out", "unavailable", "out_of_stock", "out of stock":
			return false
		}
		return true
	case json.Number:
		n, err := a.Int64()
		return err != nil || n > 0
	default:
		return true
	}
}
