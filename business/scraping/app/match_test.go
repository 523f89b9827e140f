package app

import (
	"testing"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

func TestMatchModel(t *testing.T) {
	pixel9 := pricingDomain.PhoneModel{Brand: "Google", Name: "Pixel 9", Storage: "128GB"}
	pixel9Pro := pricingDomain.PhoneModel{Brand: "Google", Name: "Pixel 9 Pro", Storage: "128GB"}
	s24 := pricingDomain.PhoneModel{Brand: "Samsung", Name: "Galaxy S24", Storage: "256GB"}
	catalog := pricingDomain.NewCatalog(
		pixel9,
		pixel9Pro,
		pricingDomain.PhoneModel{Brand: "Google", Name: "Pixel 9 Pro XL", Storage: "256GB"},
		s24,
		pricingDomain.PhoneModel{Brand: "Samsung", Name: "Galaxy S24 Ultra", Storage: "256GB"},
	)

	tests := []struct {
		name      string
		catalog   *pricingDomain.Catalog
		title     string
		models    []pricingDomain.PhoneModel
		wantModel string
		wantOK    bool
	}{
		{name: "exact_model", catalog: catalog, title: "Google Pixel 9 128GB Obsidian", models: []pricingDomain.PhoneModel{pixel9}, wantModel: "Pixel 9", wantOK: true},
		{name: "longer_model_rejected", catalog: catalog, title: "Google Pixel 9 Pro 128GB", models: []pricingDomain.PhoneModel{pixel9}},
		{name: "punctuation_ignored", catalog: catalog, title: "Pixel-9-Pro (Unlocked)", models: []pricingDomain.PhoneModel{pixel9}},
		{name: "ultra_rejected", catalog: catalog, title: "Samsung Galaxy S24 Ultra 256GB", models: []pricingDomain.PhoneModel{s24}},
		{name: "searched_longer_model", catalog: catalog, title: "Pixel 9 Pro 128GB", models: []pricingDomain.PhoneModel{pixel9Pro}, wantModel: "Pixel 9 Pro", wantOK: true},
		{name: "longest_searched_wins", catalog: catalog, title: "Pixel 9 Pro mint", models: []pricingDomain.PhoneModel{pixel9, pixel9Pro}, wantModel: "Pixel 9 Pro", wantOK: true},
		{name: "title_without_model", catalog: catalog, title: "Refurbished smartphone", models: []pricingDomain.PhoneModel{pixel9}, wantModel: "Pixel 9", wantOK: true},
		{name: "empty_title", catalog: catalog, title: "", models: []pricingDomain.PhoneModel{pixel9}, wantModel: "Pixel 9", wantOK: true},
		{name: "word_boundary", catalog: catalog, title: "Pixel 90 edition", models: []pricingDomain.PhoneModel{pixel9}, wantModel: "Pixel 9", wantOK: true},
		{name: "no_catalog", catalog: nil, title: "Google Pixel 9 Pro", models: []pricingDomain.PhoneModel{pixel9}, wantModel: "Pixel 9", wantOK: true},
		{name: "no_models", catalog: catalog, title: "Pixel 9", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchModel(tt.catalog, tt.title, tt.models)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Name != tt.wantModel {
				t.Errorf("model = %q, want %q", got.Name, tt.wantModel)
			}
		})
	}
}

func TestSkipped(t *testing.T) {
	var s Skipped
	s.Add(Skipped{Unpriced: 2})
	s.Add(Skipped{OtherModel: 1})
	if s.Total() != 3 || s.Unpriced != 2 || s.OtherModel != 1 {
		t.Errorf("skipped = %+v", s)
	}
}
