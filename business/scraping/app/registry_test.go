package app

import (
	"context"
	"errors"
	"testing"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

func namedConstructor(name string) Constructor {
	return func(spec domain.PlatformSpec, deps Deps) (Adapter, error) {
		spec.Name = name
		return &fakeAdapter{spec: spec, scrape: failing}, nil
	}
}

func TestRegistry_Build(t *testing.T) {
	tests := []struct {
		name     string
		fallback bool
		spec     domain.PlatformSpec
		want     string
		wantCode apperror.Code
	}{
		{name: "platform_name_wins", spec: domain.PlatformSpec{Name: "Swappa", ScraperType: "html"}, want: "by-name"},
		{name: "name_is_case_insensitive", spec: domain.PlatformSpec{Name: "SWAPPA", ScraperType: "html"}, want: "by-name"},
		{name: "scraper_type", spec: domain.PlatformSpec{Name: "Gazelle", ScraperType: "HTML"}, want: "html"},
		{name: "unknown_type", spec: domain.PlatformSpec{Name: "Gazelle", ScraperType: "ftp"}, wantCode: apperror.CodePlatformNotRegistered},
		{name: "unknown_type_falls_back", fallback: true, spec: domain.PlatformSpec{Name: "Gazelle", ScraperType: "ftp"}, want: "sample"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(tt.fallback)
			r.Register("swappa", namedConstructor("by-name"))
			r.RegisterType(domain.TypeHTML, namedConstructor("html"))
			r.RegisterType(domain.TypeSample, namedConstructor("sample"))

			a, err := r.Build(tt.spec, Deps{})
			if tt.wantCode != "" {
				if !apperror.HasCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := a.Platform().Name; got != tt.want {
				t.Errorf("built %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry_ConstructorErrors(t *testing.T) {
	r := NewRegistry(false)
	r.RegisterType("api", func(spec domain.PlatformSpec, deps Deps) (Adapter, error) {
		return nil, apperror.New(apperror.CodeMissingCredentials)
	})
	r.RegisterType("html", func(spec domain.PlatformSpec, deps Deps) (Adapter, error) {
		return nil, errors.New("bad selector")
	})

	_, err := r.Build(domain.PlatformSpec{Name: "eBay", Region: "US", ScraperType: "api"}, Deps{})
	if got := apperror.GetCode(err); got != apperror.CodeMissingCredentials {
		t.Errorf("api code = %s, want %s", got, apperror.CodeMissingCredentials)
	}
	if KindOf(err) != domain.KindConfiguration {
		t.Errorf("api kind = %s", KindOf(err))
	}

	_, err = r.Build(domain.PlatformSpec{Name: "Swappa", Region: "US", ScraperType: "html"}, Deps{})
	if got := apperror.GetCode(err); got != apperror.CodeConfigurationError {
		t.Errorf("html code = %s, want %s", got, apperror.CodeConfigurationError)
	}
}

func TestRegistry_Listing(t *testing.T) {
	r := NewRegistry(false)
	r.RegisterType("sample", namedConstructor("s"))
	r.RegisterType("html", namedConstructor("h"))
	r.Register("Mercari", namedConstructor("m"))

	if got := r.Types(); len(got) != 2 || got[0] != "html" || got[1] != "sample" {
		t.Errorf("Types() = %v", got)
	}
	if got := r.Platforms(); len(got) != 1 || got[0] != "mercari" {
		t.Errorf("Platforms() = %v", got)
	}
	if _, err := r.BuildAs("browser", domain.PlatformSpec{Name: "Mercari"}, Deps{}); !apperror.HasCode(err, apperror.CodePlatformNotRegistered) {
		t.Errorf("BuildAs(browser) error = %v", err)
	}
}

func TestBuildSearchURL(t *testing.T) {
	pixel := pricingDomain.PhoneModel{Brand: "Google", Name: "Pixel 9 Pro", Storage: "256GB"}
	galaxy := pricingDomain.PhoneModel{Brand: "Samsung", Name: "Galaxy S24+", Storage: "512GB"}

	tests := []struct {
		name     string
		spec     domain.PlatformSpec
		model    pricingDomain.PhoneModel
		want     string
		wantCode apperror.Code
	}{
		{
			name:  "default_path",
			spec:  domain.PlatformSpec{Name: "Gazelle", BaseURL: "https://www.gazelle.com/"},
			model: pixel,
			want:  "https://www.gazelle.com/search?q=Google+Pixel+9+Pro+256GB",
		},
		{
			name:  "slug_path",
			spec:  domain.PlatformSpec{Name: "Swappa", BaseURL: "https://swappa.com", SearchPath: "/buy/{brand_slug}-{model_slug}"},
			model: galaxy,
			want:  "https://swappa.com/buy/samsung-galaxy-s24-plus",
		},
		{
			name:  "query_without_storage",
			spec:  domain.PlatformSpec{Name: "Amazon", BaseURL: "https://www.amazon.com", SearchPath: "s?k={query}&i=renewed"},
			model: pixel,
			want:  "https://www.amazon.com/s?k=Google+Pixel+9+Pro&i=renewed",
		},
		{
			name:     "unknown_placeholder",
			spec:     domain.PlatformSpec{Name: "Swappa", BaseURL: "https://swappa.com", SearchPath: "/buy/{sku}"},
			model:    pixel,
			wantCode: apperror.CodeConfigurationError,
		},
		{
			name:     "missing_base_url",
			spec:     domain.PlatformSpec{Name: "Swappa"},
			model:    pixel,
			wantCode: apperror.CodeConfigurationError,
		},
		{
			name:     "relative_base_url",
			spec:     domain.PlatformSpec{Name: "Swappa", BaseURL: "swappa.com"},
			model:    pixel,
			wantCode: apperror.CodeConfigurationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSearchURL(tt.spec, tt.model)
			if tt.wantCode != "" {
				if !apperror.HasCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildSearchURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"iPhone 16 Pro Max": "iphone-16-pro-max",
		"Galaxy S24+":       "galaxy-s24-plus",
		"Z Fold6":           "z-fold6",
		"  Pixel  9  ":      "pixel-9",
		"":                  "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScrapeModels_GroupsSharedURLs(t *testing.T) {
	spec := domain.PlatformSpec{Name: "Gazelle", Region: "US", BaseURL: "https://gazelle.example", SearchPath: "/buy/{model_slug}"}
	a := &fakeAdapter{spec: spec}
	models := []pricingDomain.PhoneModel{
		{Brand: "Google", Name: "Pixel 9", Storage: "128GB"},
		{Brand: "Google", Name: "Pixel 9", Storage: "256GB"},
		{Brand: "Apple", Name: "iPhone 16", Storage: "128GB"},
	}

	var calls []string
	var shared int
	res := ScrapeModels(context.Background(), a, models, func(ctx context.Context, target string, ms []pricingDomain.PhoneModel) ([]pricingDomain.Observation, error) {
		calls = append(calls, target)
		if len(ms) > 1 {
			shared = len(ms)
			if FallbackStorage(ms) != "" {
				t.Error("FallbackStorage() should be empty for shared URLs")
			}
		}
		if target == "https://gazelle.example/buy/iphone-16" {
			return nil, &FetchError{URL: target, Attempts: 2, Err: apperror.New(apperror.CodeTransportError)}
		}
		return []pricingDomain.Observation{{Platform: "Gazelle"}}, nil
	})

	if len(calls) != 2 {
		t.Fatalf("calls = %v, want 2 distinct URLs", calls)
	}
	if shared != 2 {
		t.Errorf("shared models = %d, want 2", shared)
	}
	if res.Attempted != 2 || res.Succeeded != 1 {
		t.Errorf("attempted/succeeded = %d/%d, want 2/1", res.Attempted, res.Succeeded)
	}
	if len(res.Errors) != 1 || res.Errors[0].Attempts != 2 || res.Errors[0].URL != "https://gazelle.example/buy/iphone-16" {
		t.Errorf("errors = %+v", res.Errors)
	}
	if len(res.Observations) != 1 {
		t.Errorf("observations = %d, want 1", len(res.Observations))
	}
}
