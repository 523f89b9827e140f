package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
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

type fakeAnalyzer struct {
	days   int
	called bool
	err    error
}

func (f *fakeAnalyzer) RunAnalysis(ctx context.Context, days int) (*domain.Bundle, error) {
	f.called = true
	f.days = days
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Bundle{
		GeneratedAt:            time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		WindowDays:             days,
		Mode:                   domain.ModeLatest,
		TrendDeltas:            []domain.TrendDelta{},
		VolatilityReports:      []domain.VolatilityReport{},
		ArbitrageOpportunities: []domain.ArbitrageOpportunity{},
		BestDeals:              []domain.BestDeal{},
	}, nil
}

func TestHandler_Insights(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantDays   int
		wantCode   apperror.Code
		wantCalled bool
	}{
		{name: "default_days", query: "", wantStatus: http.StatusOK, wantDays: 0, wantCalled: true},
		{name: "explicit_days", query: "?days=7", wantStatus: http.StatusOK, wantDays: 7, wantCalled: true},
		{name: "not_a_number", query: "?days=week", wantStatus: http.StatusBadRequest, wantCode: apperror.CodeInvalidInput},
		{name: "zero_days", query: "?days=0", wantStatus: http.StatusBadRequest, wantCode: apperror.CodeInvalidInput},
		{name: "negative_days", query: "?days=-3", wantStatus: http.StatusBadRequest, wantCode: apperror.CodeInvalidInput},
		{
			name:       "repository_failure",
			query:      "?days=30",
			err:        apperror.New(apperror.CodeRepositoryError, apperror.WithCause(errors.New("disk full"))),
			wantStatus: http.StatusInternalServerError,
			wantDays:   30,
			wantCode:   apperror.CodeRepositoryError,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{err: tt.err}
			r := chi.NewRouter()
			NewHandler(analyzer, &mockLogger{}).Mount(r)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/insights"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if analyzer.called != tt.wantCalled {
				t.Errorf("analyzer called = %v, want %v", analyzer.called, tt.wantCalled)
			}
			if tt.wantCalled && analyzer.days != tt.wantDays {
				t.Errorf("days = %d, want %d", analyzer.days, tt.wantDays)
			}

			if tt.wantCode != "" {
				var resp apperror.Response
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Error.Code != tt.wantCode {
					t.Errorf("code = %s, want %s", resp.Error.Code, tt.wantCode)
				}
				return
			}

			var b domain.Bundle
			if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
				t.Fatalf("decode bundle: %v", err)
			}
			if b.Mode != domain.ModeLatest {
				t.Errorf("mode = %q, want latest", b.Mode)
			}
		})
	}
}
