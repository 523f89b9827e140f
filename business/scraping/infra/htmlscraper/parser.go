package htmlscraper

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
)

var soldPattern = regexp.MustCompile(`(?i)\b(sold( out)?|unavailable|out of stock)\b`)

// Page is one fetched search page.
type Page struct {
	Spec       domain.PlatformSpec
	URL        string
	Models     []pricingDomain.PhoneModel
	Catalog    *pricingDomain.Catalog
	Currencies *currency.Registry
	ObservedAt time.Time
}

// Parse extracts up to the platform's listing cap from an HTML search
// page and counts the listings it skipped. A page with no listings yields
// nothing; a page whose listings all lack a readable price is a parse
// error.
func Parse(r io.Reader, p Page) ([]pricingDomain.Observation, app.Skipped, error) {
	var skipped app.Skipped

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, skipped, apperror.New(apperror.CodeParseError, apperror.WithCause(err), apperror.WithContext(p.URL))
	}

	listings := firstMatch(doc.Selection, p.Spec.Selectors.Listing)
	if listings.Length() == 0 {
		return nil, skipped, nil
	}

	base, _ := url.Parse(p.URL)
	limit := p.Spec.ListingCap()

	var out []pricingDomain.Observation
	listings.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(out) >= limit {
			return false
		}
		obs, skip := p.listing(i, sel, base)
		if skip.Total() > 0 {
			skipped.Add(skip)
			return true
		}
		out = append(out, obs)
		return true
	})

	if len(out) == 0 && skipped.Unpriced > 0 {
		return nil, skipped, apperror.New(apperror.CodeParseError,
			apperror.WithContext(fmt.Sprintf("%s: %d listings without a readable price", p.URL, skipped.Unpriced)))
	}
	return out, skipped, nil
}

func (p Page) listing(i int, sel *goquery.Selection, base *url.URL) (pricingDomain.Observation, app.Skipped) {
	s := p.Spec.Selectors

	priceText := text(sel, s.Price)
	if priceText == "" {
		priceText, _ = sel.Attr("data-price")
	}
	amount, cur, err := p.Currencies.ParseText(priceText)
	if err != nil {
		return pricingDomain.Observation{}, app.Skipped{Unpriced: 1}
	}
	code := p.Spec.Currency
	if cur != nil {
		code = cur.Code()
	}

	title := text(sel, s.Title)
	model, ok := app.MatchModel(p.Catalog, title, p.Models)
	if !ok {
		return pricingDomain.Observation{}, app.Skipped{OtherModel: 1}
	}

	storage := text(sel, s.Storage)
	if storage == "" {
		if _, ok := pricingDomain.FindStorage(title); !ok {
			storage = app.FallbackStorage(p.Models)
		}
	}

	condition := text(sel, s.Condition)
	if condition == "" {
		condition = title
	}

	link := attr(sel, s.Link, "href")
	sourceURL := p.URL + "#listing-" + strconv.Itoa(i)
	if link != "" && base != nil {
		if ref, err := url.Parse(link); err == nil {
			sourceURL = base.ResolveReference(ref).String()
		}
	}

	return pricingDomain.Observation{
		Platform:      p.Spec.Name,
		Region:        p.Spec.Region,
		Brand:         model.Brand,
		Model:         model.Name,
		StorageText:   storage,
		ConditionText: condition,
		Amount:        amount,
		Currency:      code,
		ObservedAt:    p.ObservedAt,
		SourceURL:     sourceURL,
		Title:         title,
		Available:     !sold(sel, s.Sold),
	}, app.Skipped{}
}

// firstMatch returns the matches of the first selector that finds anything.
func firstMatch(sel *goquery.Selection, selectors []string) *goquery.Selection {
	for _, s := range selectors {
		if found := sel.Find(s); found.Length() > 0 {
			return found
		}
	}
	return sel.Slice(0, 0)
}

func text(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if t := strings.TrimSpace(sel.Find(s).First().Text()); t != "" {
			return strings.Join(strings.Fields(t), " ")
		}
	}
	return ""
}

func attr(sel *goquery.Selection, selectors []string, name string) string {
	for _, s := range selectors {
		if v, ok := sel.Find(s).First().Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func sold(sel *goquery.Selection, selectors []string) bool {
	for _, s := range selectors {
		if sel.Find(s).Length() > 0 || sel.Is(s) {
			return true
		}
	}
	return soldPattern.MatchString(sel.Text())
}
