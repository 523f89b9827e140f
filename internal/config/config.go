// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Scraping    ScrapingConfig   `mapstructure:"scraping"`
	Currency    CurrencyConfig   `mapstructure:"currency"`
	Analysis    AnalysisConfig   `mapstructure:"analysis"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Server      ServerConfig     `mapstructure:"server"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	PhoneModels []PhoneModelSpec `mapstructure:"phone_models"`
	Platforms   []PlatformConfig `mapstructure:"platforms"`
	TUIMode     bool             `mapstructure:"-"` // Set at runtime, not from config file
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ScrapingConfig controls pacing, retries and fan-out of a scrape cycle.
type ScrapingConfig struct {
	Delay             time.Duration `mapstructure:"delay"` // fallback when a platform has no rate_limit
	MaxRetries        int           `mapstructure:"max_retries"`
	Timeout           time.Duration `mapstructure:"timeout"` // per HTTP request
	BaseBackoff       time.Duration `mapstructure:"base_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	Concurrency       int           `mapstructure:"concurrency"`
	PlatformTimeout   time.Duration `mapstructure:"platform_timeout"`
	CycleTimeout      time.Duration `mapstructure:"cycle_timeout"`
	UseProxy          bool          `mapstructure:"use_proxy"`
	Proxies           []string      `mapstructure:"proxies"`
	KeepAllDuplicates bool          `mapstructure:"keep_all_duplicates"`
	BatchSize         int           `mapstructure:"batch_size"`
	UserAgent         string        `mapstructure:"user_agent"`
	FallbackToSample  bool          `mapstructure:"fallback_to_sample"`
	Interval          time.Duration `mapstructure:"interval"` // serve mode cadence
}

// CurrencyConfig configures conversion into the reporting currency.
type CurrencyConfig struct {
	Base              string             `mapstructure:"base"`
	Rates             map[string]float64 `mapstructure:"rates"` // units per one base unit
	ProviderURL       string             `mapstructure:"provider_url"`
	CacheTTL          time.Duration      `mapstructure:"cache_ttl"`
	RequestsPerMinute int                `mapstructure:"requests_per_minute"`
}

// RatesDecimal returns the static rates keyed by upper-case code.
func (c *CurrencyConfig) RatesDecimal() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Rates))
	for code, r := range c.Rates {
		out[strings.ToUpper(code)] = decimal.NewFromFloat(r)
	}
	return out
}

// AnalysisConfig holds insight thresholds.
type AnalysisConfig struct {
	PriceChangeThreshold  float64 `mapstructure:"price_change_threshold"` // percent
	VolatilityThreshold   float64 `mapstructure:"volatility_threshold_pct"`
	ArbitrageAbsThreshold float64 `mapstructure:"arbitrage_abs_threshold"`
	ArbitragePctThreshold float64 `mapstructure:"arbitrage_pct_threshold"`
	WindowMode            string  `mapstructure:"window_mode"` // latest | window
	TopN                  int     `mapstructure:"top_n"`
	DefaultDays           int     `mapstructure:"default_days"`
}

// PriceChangeThresholdDecimal returns the trend threshold as decimal.Decimal.
func (c *AnalysisConfig) PriceChangeThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.PriceChangeThreshold)
}

// VolatilityThresholdDecimal returns the CV threshold as decimal.Decimal.
func (c *AnalysisConfig) VolatilityThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.VolatilityThreshold)
}

// ArbitrageAbsThresholdDecimal returns the absolute spread threshold as decimal.Decimal.
func (c *AnalysisConfig) ArbitrageAbsThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ArbitrageAbsThreshold)
}

// ArbitragePctThresholdDecimal returns the percentage spread threshold as decimal.Decimal.
func (c *AnalysisConfig) ArbitragePctThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ArbitragePctThreshold)
}

// StorageConfig selects the price record repository.
type StorageConfig struct {
	Driver        string `mapstructure:"driver"` // memory | sqlite | postgres
	DSN           string `mapstructure:"dsn"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// RedisConfig configures the event stream.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// ServerConfig configures the health and API server.
type ServerConfig struct {
	Port      int  `mapstructure:"port"`
	EnableAPI bool `mapstructure:"enable_api"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin | console | honeycomb | newrelic
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// PhoneModelSpec is one tracked model and its storage variants.
type PhoneModelSpec struct {
	Brand   string   `mapstructure:"brand"`
	Model   string   `mapstructure:"model"`
	Storage []string `mapstructure:"storage"`
}

// SelectorConfig lists CSS selectors tried in order by the HTML scraper.
type SelectorConfig struct {
	Listing   []string `mapstructure:"listing"`
	Title     []string `mapstructure:"title"`
	Price     []string `mapstructure:"price"`
	Condition []string `mapstructure:"condition"`
	Storage   []string `mapstructure:"storage"`
	Link      []string `mapstructure:"link"`
	Sold      []string `mapstructure:"sold"`
}

// APIFieldConfig names the JSON fields read by the API scraper.
type APIFieldConfig struct {
	Items     string `mapstructure:"items"`
	Title     string `mapstructure:"title"`
	Price     string `mapstructure:"price"`
	Currency  string `mapstructure:"currency"`
	Condition string `mapstructure:"condition"`
	Storage   string `mapstructure:"storage"`
	URL       string `mapstructure:"url"`
	Available string `mapstructure:"available"`
}

// PlatformConfig describes one marketplace in one region.
type PlatformConfig struct {
	Name             string            `mapstructure:"name"`
	Region           string            `mapstructure:"region"`
	BaseURL          string            `mapstructure:"base_url"`
	ScraperType      string            `mapstructure:"scraper_type"` // html | api | browser | sample
	RateLimit        float64           `mapstructure:"rate_limit"`   // seconds between requests
	PageQuota        int               `mapstructure:"requests_per_minute"`
	Currency         string            `mapstructure:"currency"`
	SearchPath       string            `mapstructure:"search_path"`
	Disabled         bool              `mapstructure:"disabled"`
	RequiresAuth     bool              `mapstructure:"requires_auth"`
	APIKey           string            `mapstructure:"api_key"`
	APIKeyHeader     string            `mapstructure:"api_key_header"`
	MaxListings      int               `mapstructure:"max_listings"`
	MaxPages         int               `mapstructure:"max_pages"`
	PageParam        string            `mapstructure:"page_param"`
	Conditions       map[string]string `mapstructure:"conditions"` // free text -> Excellent|Good|Fair
	DefaultCondition string            `mapstructure:"default_condition"`
	Selectors        SelectorConfig    `mapstructure:"selectors"`
	Fields           APIFieldConfig    `mapstructure:"fields"`
}

// RateLimitDuration returns the minimum spacing between requests.
func (p *PlatformConfig) RateLimitDuration() time.Duration {
	return time.Duration(p.RateLimit * float64(time.Second))
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("PT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyCatalogDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "PT_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "PT_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "PT_LOG_LEVEL", "LOG_LEVEL")

	// Scraping
	v.BindEnv("scraping.max_retries", "PT_MAX_RETRIES", "MAX_RETRIES")
	v.BindEnv("scraping.delay", "PT_SCRAPING_DELAY", "SCRAPING_DELAY")
	v.BindEnv("scraping.use_proxy", "PT_USE_PROXY", "USE_PROXY")
	v.BindEnv("scraping.concurrency", "PT_CONCURRENCY")

	// Currency
	v.BindEnv("currency.base", "PT_BASE_CURRENCY", "DEFAULT_CURRENCY")
	v.BindEnv("currency.provider_url", "PT_FX_PROVIDER_URL")

	// Analysis
	v.BindEnv("analysis.price_change_threshold", "PT_PRICE_CHANGE_THRESHOLD", "PRICE_CHANGE_THRESHOLD")

	// Storage
	v.BindEnv("storage.driver", "PT_STORAGE_DRIVER")
	v.BindEnv("storage.dsn", "PT_DATABASE_URL", "DATABASE_URL")

	// Redis
	v.BindEnv("redis.enabled", "PT_REDIS_ENABLED")
	v.BindEnv("redis.addr", "PT_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "PT_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "PT_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "PT_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "PT_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "smartphone-price-tracker")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Scraping defaults
	v.SetDefault("scraping.delay", "2s")
	v.SetDefault("scraping.max_retries", 3)
	v.SetDefault("scraping.timeout", "30s")
	v.SetDefault("scraping.base_backoff", "1s")
	v.SetDefault("scraping.max_backoff", "30s")
	v.SetDefault("scraping.concurrency", 5)
	v.SetDefault("scraping.platform_timeout", "5m")
	v.SetDefault("scraping.cycle_timeout", "30m")
	v.SetDefault("scraping.use_proxy", false)
	v.SetDefault("scraping.keep_all_duplicates", false)
	v.SetDefault("scraping.batch_size", 200)
	v.SetDefault("scraping.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36")
	v.SetDefault("scraping.fallback_to_sample", false)
	v.SetDefault("scraping.interval", "6h")

	// Currency defaults (units per USD)
	v.SetDefault("currency.base", "USD")
	v.SetDefault("currency.rates", map[string]float64{
		"USD": 1, "EUR": 0.85, "GBP": 0.73, "JPY": 110, "INR": 75, "CAD": 1.25, "AUD": 1.35,
	})
	v.SetDefault("currency.cache_ttl", "24h")
	v.SetDefault("currency.requests_per_minute", 30)

	// Analysis defaults
	v.SetDefault("analysis.price_change_threshold", 5.0)
	v.SetDefault("analysis.volatility_threshold_pct", 10.0)
	v.SetDefault("analysis.arbitrage_abs_threshold", 50.0)
	v.SetDefault("analysis.arbitrage_pct_threshold", 10.0)
	v.SetDefault("analysis.window_mode", "latest")
	v.SetDefault("analysis.top_n", 10)
	v.SetDefault("analysis.default_days", 30)

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "file:prices.db")
	v.SetDefault("storage.retention_days", 90)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.stream", "pricetracker:events")
	v.SetDefault("redis.max_len", 10000)

	// Server defaults
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.enable_api", true)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "smartphone-price-tracker")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Currency.Base == "" {
		return fmt.Errorf("currency.base is required")
	}
	if c.Scraping.MaxRetries < 0 {
		return fmt.Errorf("scraping.max_retries cannot be negative")
	}
	if c.Scraping.Concurrency < 1 {
		return fmt.Errorf("scraping.concurrency must be at least 1")
	}
	if c.Scraping.UseProxy && len(c.Scraping.Proxies) == 0 {
		return fmt.Errorf("scraping.proxies cannot be empty when use_proxy is set")
	}

	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage.driver: %q", c.Storage.Driver)
	}

	switch c.Analysis.WindowMode {
	case "latest", "window":
	default:
		return fmt.Errorf("unknown analysis.window_mode: %q", c.Analysis.WindowMode)
	}
	if c.Analysis.PriceChangeThreshold < 0 || c.Analysis.ArbitrageAbsThreshold < 0 || c.Analysis.ArbitragePctThreshold < 0 {
		return fmt.Errorf("analysis thresholds cannot be negative")
	}

	if len(c.PhoneModels) == 0 {
		return fmt.Errorf("phone_models cannot be empty")
	}
	for i, m := range c.PhoneModels {
		if m.Brand == "" || m.Model == "" || len(m.Storage) == 0 {
			return fmt.Errorf("phone_models[%d]: brand, model and storage are required", i)
		}
	}

	seen := make(map[string]bool, len(c.Platforms))
	for i, p := range c.Platforms {
		if p.Name == "" || p.Region == "" {
			return fmt.Errorf("platforms[%d]: name and region are required", i)
		}
		key := strings.ToLower(p.Region + "/" + p.Name)
		if seen[key] {
			return fmt.Errorf("platforms[%d]: duplicate platform %s in %s", i, p.Name, p.Region)
		}
		seen[key] = true
		if p.RateLimit < 0 {
			return fmt.Errorf("platforms[%d]: rate_limit cannot be negative", i)
		}
		if p.PageQuota < 0 {
			return fmt.Errorf("platforms[%d]: requests_per_minute cannot be negative", i)
		}
		if p.ScraperType != "sample" && p.BaseURL == "" {
			return fmt.Errorf("platforms[%d]: base_url is required for %s", i, p.Name)
		}
	}

	return nil
}

// EnabledPlatforms returns platforms not marked disabled.
func (c *Config) EnabledPlatforms() []PlatformConfig {
	out := make([]PlatformConfig, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}
