package config

// Reference catalog applied when the config file declares no phone_models
// or platforms.

var defaultPhoneModels = []PhoneModelSpec{
	{Brand: "Google", Model: "Pixel 9", Storage: []string{"128GB", "256GB"}},
	{Brand: "Google", Model: "Pixel 9 Pro", Storage: []string{"128GB", "256GB", "512GB", "1TB"}},
	{Brand: "Google", Model: "Pixel 9 Pro XL", Storage: []string{"128GB", "256GB", "512GB", "1TB"}},
	{Brand: "Google", Model: "Pixel 9 Pro Fold", Storage: []string{"256GB", "512GB"}},
	{Brand: "Apple", Model: "iPhone 16", Storage: []string{"128GB", "256GB", "512GB"}},
	{Brand: "Apple", Model: "iPhone 16 Plus", Storage: []string{"128GB", "256GB", "512GB"}},
	{Brand: "Apple", Model: "iPhone 16 Pro", Storage: []string{"128GB", "256GB", "512GB", "1TB"}},
	{Brand: "Apple", Model: "iPhone 16 Pro Max", Storage: []string{"256GB", "512GB", "1TB"}},
	{Brand: "Samsung", Model: "Galaxy S24", Storage: []string{"128GB", "256GB", "512GB"}},
	{Brand: "Samsung", Model: "Galaxy S24+", Storage: []string{"256GB", "512GB"}},
	{Brand: "Samsung", Model: "Galaxy S24 Ultra", Storage: []string{"256GB", "512GB", "1TB"}},
	{Brand: "Samsung", Model: "Galaxy Z Fold6", Storage: []string{"256GB", "512GB", "1TB"}},
}

var genericSelectors = SelectorConfig{
	Listing:   []string{".listing", ".product-card", "[data-listing]", ".item"},
	Title:     []string{".listing-title", ".product-title", "h3", "h2"},
	Price:     []string{".price", ".listing-price", "[data-price]", ".amount"},
	Condition: []string{".condition", ".grade", "[data-condition]"},
	Storage:   []string{".storage", ".capacity", "[data-storage]"},
	Link:      []string{"a[href]"},
	Sold:      []string{".sold", ".unavailable", ".out-of-stock"},
}

var backMarketFields = APIFieldConfig{
	Items:     "results",
	Title:     "title",
	Price:     "price.amount",
	Currency:  "price.currency",
	Condition: "grade",
	Storage:   "storage",
	URL:       "link",
	Available: "available",
}

var backMarketConditions = map[string]string{
	"excellent": "Excellent",
	"premium":   "Excellent",
	"shiny":     "Excellent",
	"gold":      "Excellent",
	"very good": "Good",
	"good":      "Good",
	"silver":    "Good",
	"correct":   "Fair",
	"fair":      "Fair",
	"stallone":  "Fair",
	"bronze":    "Fair",
}

func defaultPlatforms() []PlatformConfig {
	html := func(name, region, baseURL, currency, searchPath string, rateLimit float64) PlatformConfig {
		return PlatformConfig{
			Name:        name,
			Region:      region,
			BaseURL:     baseURL,
			ScraperType: "html",
			RateLimit:   rateLimit,
			Currency:    currency,
			SearchPath:  searchPath,
			MaxListings: 20,
			Selectors:   genericSelectors,
		}
	}
	api := func(name, region, baseURL, currency, searchPath string, rateLimit float64) PlatformConfig {
		return PlatformConfig{
			Name:         name,
			Region:       region,
			BaseURL:      baseURL,
			ScraperType:  "api",
			RateLimit:    rateLimit,
			Currency:     currency,
			SearchPath:   searchPath,
			MaxListings:  15,
			MaxPages:     3,
			PageParam:    "page",
			APIKeyHeader: "Authorization",
			PageQuota:    60,
			Fields:       backMarketFields,
			Conditions:   backMarketConditions,
		}
	}

	ebay := api("eBay Refurbished", "US", "https://www.ebay.com", "USD", "/sch/i.html?_nkw={query_storage}+refurbished", 0.5)
	ebay.RequiresAuth = true
	ebay.Fields = APIFieldConfig{
		Items:     "itemSummaries",
		Title:     "title",
		Price:     "price.value",
		Currency:  "price.currency",
		Condition: "condition",
		URL:       "itemWebUrl",
	}
	ebay.Conditions = map[string]string{
		"certified refurbished":   "Excellent",
		"excellent - refurbished": "Excellent",
		"very good - refurbished": "Good",
		"good - refurbished":      "Fair",
	}

	mercari := html("Mercari", "Japan", "https://mercari.com", "JPY", "/search?keyword={query}", 2)
	mercari.ScraperType = "browser"

	return []PlatformConfig{
		html("Swappa", "US", "https://swappa.com", "USD", "/buy/{brand_slug}-{model_slug}", 1),
		api("Back Market", "US", "https://www.backmarket.com", "USD", "/search?q={query}", 0.5),
		html("Gazelle", "US", "https://www.gazelle.com", "USD", "/sell/{brand_slug}/{model_slug}", 2),
		ebay,
		api("Back Market EU", "Europe", "https://www.backmarket.co.uk", "EUR", "/search?q={query}", 0.5),
		html("Refurbed", "Europe", "https://www.refurbed.com", "EUR", "/products/{brand_slug}-{model_slug}", 1),
		html("Rebuy", "Europe", "https://www.rebuy.de", "EUR", "/search?q={query}", 1),
		mercari,
		html("Yahoo Auctions", "Japan", "https://auctions.yahoo.co.jp", "JPY", "/search/search?p={query}", 2),
		html("Sofmap", "Japan", "https://www.sofmap.com", "JPY", "/search?keyword={query}", 1),
		html("Cashify", "India", "https://www.cashify.in", "INR", "/sell-old-{brand_slug}-{model_slug}", 1),
		html("ShopClues", "India", "https://www.shopclues.com", "INR", "/search?q={query}", 1),
		html("OLX", "India", "https://www.olx.in", "INR", "/items/q-{model_slug}", 2),
	}
}

// regionCurrencies maps a region to the currency its platforms list in.
var regionCurrencies = map[string]string{
	"US":     "USD",
	"Europe": "EUR",
	"Japan":  "JPY",
	"India":  "INR",
}

// RegionCurrency returns the listing currency for a region, or "".
func RegionCurrency(region string) string {
	return regionCurrencies[region]
}

func applyCatalogDefaults(cfg *Config) {
	if len(cfg.PhoneModels) == 0 {
		cfg.PhoneModels = append([]PhoneModelSpec(nil), defaultPhoneModels...)
	}
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = defaultPlatforms()
	}
	for i := range cfg.Platforms {
		p := &cfg.Platforms[i]
		if p.ScraperType == "" {
			p.ScraperType = "html"
		}
		if p.Currency == "" {
			p.Currency = RegionCurrency(p.Region)
		}
		if p.RateLimit == 0 {
			p.RateLimit = cfg.Scraping.Delay.Seconds()
		}
		if p.MaxListings == 0 {
			p.MaxListings = 20
		}
	}
}
