package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
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

type fakeCycles struct {
	running bool
	last    *domain.CycleSummary

	mu    sync.Mutex
	reqs  []domain.CycleRequest
	calls chan struct{}
}

func (f *fakeCycles) RunScrapeCycle(ctx context.Context, req domain.CycleRequest) (*domain.CycleSummary, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	defer func() { f.calls <- struct{}{} }()
	return domain.NewCycleSummary("cycle-2", time.Now(), req.DryRun), nil
}

func (f *fakeCycles) Running() bool                     { return f.running }
func (f *fakeCycles) LastSummary() *domain.CycleSummary { return f.last }
func (f *fakeCycles) Platforms() []domain.PlatformSpec {
	return []domain.PlatformSpec{{Name: "Swappa", Region: "US", ScraperType: "html", RateLimit: 2 * time.Second}}
}

type fakeHistory struct {
	stats pricingDomain.Stats
	last  *pricingDomain.Session
}

func (f *fakeHistory) Stats(ctx context.Context) (pricingDomain.Stats, error) { return f.stats, nil }
func (f *fakeHistory) LastCycle(ctx context.Context) (*pricingDomain.Session, error) {
	return f.last, nil
}

func newRouter(cycles *fakeCycles, history *fakeHistory) http.Handler {
	r := chi.NewRouter()
	NewHandler(context.Background(), cycles, history, &mockLogger{}).Mount(r)
	return r
}

func TestHandler_Status(t *testing.T) {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{
		stats: pricingDomain.Stats{TotalRecords: 42, Platforms: 3},
		last:  &pricingDomain.Session{ID: "cycle-1", State: "Persisted", StartedAt: started},
	}
	r := newRouter(&fakeCycles{running: true}, history)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.TotalRecords != 42 || !body.Running || body.LastCycle == nil || body.LastCycle.ID != "cycle-1" {
		t.Errorf("unexpected body %+v", body)
	}
	if len(body.Platforms) != 1 || body.Platforms[0].RateLimit != 2 {
		t.Errorf("platforms = %+v", body.Platforms)
	}
}

func TestHandler_TriggerCycle(t *testing.T) {
	tests := []struct {
		name       string
		running    bool
		body       string
		wantStatus int
		wantReq    *domain.CycleRequest
	}{
		{name: "accepted", body: `{"region":"US","platform":"Swappa"}`, wantStatus: http.StatusAccepted, wantReq: &domain.CycleRequest{Region: "US", Platform: "Swappa"}},
		{name: "empty_body", body: ``, wantStatus: http.StatusAccepted, wantReq: &domain.CycleRequest{}},
		{name: "already_running", running: true, body: `{}`, wantStatus: http.StatusConflict},
		{name: "malformed_body", body: `{"region":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycles := &fakeCycles{running: tt.running, calls: make(chan struct{}, 1)}
			r := newRouter(cycles, &fakeHistory{})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cycles", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}

			if tt.wantReq == nil {
				var resp apperror.Response
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Error.Code == "" {
					t.Error("error response has no code")
				}
				return
			}

			select {
			case <-cycles.calls:
			case <-time.After(time.Second):
				t.Fatal("cycle was not started")
			}
			cycles.mu.Lock()
			defer cycles.mu.Unlock()
			if len(cycles.reqs) != 1 || cycles.reqs[0].Region != tt.wantReq.Region || cycles.reqs[0].Platform != tt.wantReq.Platform {
				t.Errorf("requests = %+v, want %+v", cycles.reqs, tt.wantReq)
			}
		})
	}
}

func TestHandler_LastCycle(t *testing.T) {
	stored := &pricingDomain.Session{ID: "stored", StartedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	newer := domain.NewCycleSummary("dry", time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC), true)
	older := domain.NewCycleSummary("old", time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC), false)

	tests := []struct {
		name       string
		stored     *pricingDomain.Session
		memory     *domain.CycleSummary
		wantStatus int
		wantID     string
	}{
		{name: "none", wantStatus: http.StatusNotFound},
		{name: "stored_only", stored: stored, wantStatus: http.StatusOK, wantID: "stored"},
		{name: "newer_dry_run_in_memory", stored: stored, memory: newer, wantStatus: http.StatusOK, wantID: "dry"},
		{name: "stored_is_newer", stored: stored, memory: older, wantStatus: http.StatusOK, wantID: "stored"},
		{name: "memory_only", memory: older, wantStatus: http.StatusOK, wantID: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&fakeCycles{last: tt.memory}, &fakeHistory{last: tt.stored})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cycles/last", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantID == "" {
				return
			}
			var s pricingDomain.Session
			if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if s.ID != tt.wantID {
				t.Errorf("id = %q, want %q", s.ID, tt.wantID)
			}
		})
	}
}
