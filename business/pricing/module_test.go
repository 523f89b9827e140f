package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func TestNewCatalog_ExpandsStorage(t *testing.T) {
	cat := NewCatalog([]config.PhoneModelSpec{
		{Brand: "Google", Model: "Pixel 9", Storage: []string{"128GB", "256 GB"}},
		{Brand: "Apple", Model: "iPhone 16", Storage: []string{"1024GB"}},
	})
	if cat.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cat.Len())
	}
	if _, ok := cat.Get("apple|iphone 16|1tb"); !ok {
		t.Errorf("1024GB not canonicalized to 1TB")
	}
}

func TestOpenRepository_Drivers(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
	}{
		{name: "memory", driver: "memory"},
		{name: "sqlite", driver: "sqlite", dsn: "file:" + t.TempDir() + "/p.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := OpenRepository(context.Background(), config.StorageConfig{Driver: tt.driver, DSN: tt.dsn})
			if err != nil {
				t.Fatalf("OpenRepository() error = %v", err)
			}
			defer repo.Close()
			if err := repo.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestNewRateProvider_StaticOnly(t *testing.T) {
	p, err := NewRateProvider(config.CurrencyConfig{
		Base:     "USD",
		Rates:    map[string]float64{"EUR": 0.85, "JPY": 110},
		CacheTTL: time.Hour,
	}, currency.DefaultRegistry(), &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}

	r, err := p.Rate(context.Background(), "JPY", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !r.Value.Equal(decimal.NewFromInt(110)) {
		t.Errorf("JPY rate = %s", r.Value)
	}
}
