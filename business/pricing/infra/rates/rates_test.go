package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/httpclient"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/ratelimit"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var at = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func usd(t *testing.T, reg *currency.Registry) *currency.Currency {
	t.Helper()
	c, ok := reg.Get("USD")
	if !ok {
		t.Fatal("USD not registered")
	}
	return c
}

func TestStaticProvider(t *testing.T) {
	reg := currency.DefaultRegistry()
	p := NewStaticProvider(usd(t, reg), reg, map[string]decimal.Decimal{
		"eur": decimal.RequireFromString("0.85"),
		"JPY": decimal.RequireFromString("110"),
		"INR": decimal.Zero,
	})

	tests := []struct {
		name     string
		code     string
		want     string
		wantCode apperror.Code
	}{
		{name: "lower_case_config_key", code: "EUR", want: "0.85"},
		{name: "symbol_lookup", code: "¥", want: "110"},
		{name: "base_is_identity", code: "USD", want: "1"},
		{name: "missing_rate", code: "GBP", wantCode: apperror.CodeRateUnavailable},
		{name: "zero_rate_rejected", code: "INR", wantCode: apperror.CodeRateUnavailable},
		{name: "unknown_currency", code: "ZZZ", wantCode: apperror.CodeUnknownCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.Rate(context.Background(), tt.code, at)
			if tt.wantCode != "" {
				if !apperror.HasCode(err, tt.wantCode) {
					t.Errorf("error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !r.Value.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("rate = %s, want %s", r.Value, tt.want)
			}
		})
	}
}

func newHTTPProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := httpclient.NewInstrumentedClient(httpclient.WithPlatformName("fx"))
	if err != nil {
		t.Fatal(err)
	}
	reg := currency.DefaultRegistry()
	return NewHTTPProvider(client, ratelimit.New(0), srv.URL+"/latest/USD", usd(t, reg), reg)
}

func TestHTTPProvider_Rate(t *testing.T) {
	p := newHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"success","base_code":"USD","time_last_update_unix":1775001600,
			"rates":{"USD":1,"EUR":0.92,"JPY":151.2}}`))
	})

	r, err := p.Rate(context.Background(), "JPY", at)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if !r.Value.Equal(decimal.RequireFromString("151.2")) || r.Source != "http" {
		t.Errorf("rate = %+v", r)
	}
	if r.AsOf.Unix() != 1775001600 {
		t.Errorf("AsOf = %s", r.AsOf)
	}

	if _, err := p.Rate(context.Background(), "INR", at); !apperror.HasCode(err, apperror.CodeRateUnavailable) {
		t.Errorf("missing currency error = %v", err)
	}
}

func TestHTTPProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "bad_json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"rates": [}`))
			},
		},
		{
			name: "wrong_base",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"base":"EUR","rates":{"JPY":160}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newHTTPProvider(t, tt.handler)
			if _, err := p.Rate(context.Background(), "JPY", at); !apperror.HasCode(err, apperror.CodeRateUnavailable) {
				t.Errorf("error = %v, want rate unavailable", err)
			}
		})
	}
}

func TestChain_FallsBackToStatic(t *testing.T) {
	var hits atomic.Int32
	p := newHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	reg := currency.DefaultRegistry()
	static := NewStaticProvider(usd(t, reg), reg, map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.85")})

	chain := NewCachedProvider(NewChain(&mockLogger{}, p, nil, static), time.Hour)

	for i := 0; i < 3; i++ {
		r, err := chain.Rate(context.Background(), "EUR", at)
		if err != nil {
			t.Fatalf("Rate() error = %v", err)
		}
		if r.Source != "static" {
			t.Errorf("source = %s, want static", r.Source)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("http provider hit %d times, want 1 (cached)", hits.Load())
	}
}

func TestChain_UnknownCurrencyStops(t *testing.T) {
	reg := currency.DefaultRegistry()
	static := NewStaticProvider(usd(t, reg), reg, nil)
	_, err := NewChain(&mockLogger{}, static, static).Rate(context.Background(), "ZZZ", at)
	if !apperror.HasCode(err, apperror.CodeUnknownCurrency) {
		t.Errorf("error = %v", err)
	}
}

func TestCachedProvider_Expires(t *testing.T) {
	reg := currency.DefaultRegistry()
	static := NewStaticProvider(usd(t, reg), reg, map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.85")})
	c := NewCachedProvider(static, time.Hour)
	now := at
	c.now = func() time.Time { return now }

	if _, err := c.Rate(context.Background(), "EUR", at); err != nil {
		t.Fatal(err)
	}
	static.rates["EUR"] = decimal.RequireFromString("0.90")

	r, _ := c.Rate(context.Background(), "eur", at)
	if !r.Value.Equal(decimal.RequireFromString("0.85")) {
		t.Errorf("cached rate = %s, want 0.85", r.Value)
	}

	now = now.Add(2 * time.Hour)
	r, _ = c.Rate(context.Background(), "EUR", at)
	if !r.Value.Equal(decimal.RequireFromString("0.90")) {
		t.Errorf("refreshed rate = %s, want 0.90", r.Value)
	}
}
