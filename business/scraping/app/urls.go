package app

import (
	"net/url"
	"strings"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

// DefaultSearchPath is used when a platform declares none.
const DefaultSearchPath = "/search?q={query_storage}"

// Slug lower-cases s and joins its words with "-". A trailing "+" becomes "-plus".
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "+", " plus")

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// BuildSearchURL expands spec.SearchPath for model. Placeholders:
// {query}, {query_storage}, {brand_slug}, {model_slug}.
func BuildSearchURL(spec domain.PlatformSpec, model pricingDomain.PhoneModel) (string, error) {
	if spec.BaseURL == "" {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": base_url is empty"))
	}

	path := spec.SearchPath
	if path == "" {
		path = DefaultSearchPath
	}

	r := strings.NewReplacer(
		"{query}", url.QueryEscape(model.Brand+" "+model.Name),
		"{query_storage}", url.QueryEscape(model.Brand+" "+model.Name+" "+model.Storage),
		"{brand_slug}", Slug(model.Brand),
		"{model_slug}", Slug(model.Name),
	)
	path = r.Replace(path)
	if strings.ContainsAny(path, "{}") {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": unknown placeholder in search_path "+spec.SearchPath))
	}

	base, err := url.Parse(strings.TrimRight(spec.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": invalid base_url "+spec.BaseURL))
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base.String() + path, nil
}
