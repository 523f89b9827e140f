package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCanonicalStorage(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "spaced_gb", input: "128 GB", want: "128GB", wantOK: true},
		{name: "lower_gb", input: "128gb", want: "128GB", wantOK: true},
		{name: "bare_number", input: "128", want: "128GB", wantOK: true},
		{name: "terabyte_from_gb", input: "1024GB", want: "1TB", wantOK: true},
		{name: "terabyte", input: "1 TB", want: "1TB", wantOK: true},
		{name: "two_terabytes", input: "2048", want: "2TB", wantOK: true},
		{name: "fraction_tb", input: "0.5TB", want: "512GB", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "large", wantOK: false},
		{name: "zero", input: "0GB", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalStorage(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CanonicalStorage(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("CanonicalStorage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindStorage(t *testing.T) {
	got, ok := FindStorage("Google Pixel 9 Pro - 256 GB - Obsidian (Unlocked)")
	if !ok || got != "256GB" {
		t.Errorf("FindStorage() = %q, %v", got, ok)
	}
	if _, ok := FindStorage("Pixel 9 Pro"); ok {
		t.Errorf("FindStorage() found storage in a title without one")
	}
}

func TestCatalog(t *testing.T) {
	cat := NewCatalog(
		PhoneModel{Brand: "Google", Name: "Pixel 9", Storage: "128 GB"},
		PhoneModel{Brand: "Google", Name: "Pixel 9", Storage: "128GB"},
		PhoneModel{Brand: "Apple", Name: "iPhone 16", Storage: "1024"},
	)

	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}

	m, ok := cat.Lookup("google", "pixel 9", "128gb")
	if !ok {
		t.Fatalf("Lookup() missed")
	}
	if m.Key() != "google|pixel 9|128gb" {
		t.Errorf("Key() = %q", m.Key())
	}

	if _, ok := cat.Lookup("Apple", "iPhone 16", "1TB"); !ok {
		t.Errorf("Lookup() missed canonicalized 1TB variant")
	}
	if _, ok := cat.Lookup("Google", "Pixel 9", "512GB"); ok {
		t.Errorf("Lookup() matched a storage not in the catalog")
	}

	if got := cat.Filter("Pixel 9"); len(got) != 1 {
		t.Errorf("Filter() = %d models, want 1", len(got))
	}
	if got := cat.Filter(""); len(got) != 2 {
		t.Errorf("Filter(\"\") = %d models, want 2", len(got))
	}

	models := cat.Models()
	if models[0].Brand != "Apple" {
		t.Errorf("Models() not ordered by key: %v", models)
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input   string
		want    Condition
		wantErr bool
	}{
		{input: "Excellent", want: ConditionExcellent},
		{input: " good ", want: ConditionGood},
		{input: "FAIR", want: ConditionFair},
		{input: "mint", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCondition(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCondition(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCondition(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRecordID_Deterministic(t *testing.T) {
	key := DedupKey{Platform: "Swappa", Region: "US", ModelKey: "google|pixel 9|128gb", Condition: ConditionGood}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	price := decimal.RequireFromString("499.00")

	a := RecordID(key, "https://swappa.com/l/1", at, price, "batch-1")
	b := RecordID(key, "https://swappa.com/l/1", at, price, "batch-1")
	c := RecordID(key, "https://swappa.com/l/1", at, price, "batch-2")

	if a != b {
		t.Errorf("same inputs gave %q and %q", a, b)
	}
	if a == c {
		t.Errorf("different batches share ID %q", a)
	}
}

func TestFilter_Match(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := PriceRecord{
		Platform:   "Swappa",
		Region:     "US",
		Model:      PhoneModel{Brand: "Google", Name: "Pixel 9", Storage: "128GB"},
		ObservedAt: at,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty_matches", filter: Filter{}, want: true},
		{name: "platform_case_insensitive", filter: Filter{Platform: "swappa"}, want: true},
		{name: "other_region", filter: Filter{Region: "Japan"}, want: false},
		{name: "model_key", filter: Filter{ModelKey: "google|pixel 9|128gb"}, want: true},
		{name: "since_inclusive", filter: Filter{Since: at}, want: true},
		{name: "until_exclusive", filter: Filter{Until: at}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(rec); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
