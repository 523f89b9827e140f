package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	analysisApp "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/app"
	analysisDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	scrapingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
	"github.com/prem-pandian/smartphone-price-tracker-v2/pkg/ui"
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
	mu   sync.Mutex
	reqs []scrapingDomain.CycleRequest
	err  error
	done chan struct{}
}

func (f *fakeCycles) RunScrapeCycle(ctx context.Context, req scrapingDomain.CycleRequest) (*scrapingDomain.CycleSummary, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &scrapingDomain.CycleSummary{ID: "cycle-1", State: scrapingDomain.StatePersisted, Saved: 3}, nil
}

func (f *fakeCycles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeAnalysis struct {
	days      int
	runs      int
	reporters int
}

func (f *fakeAnalysis) RunAnalysis(ctx context.Context, days int) (*analysisDomain.Bundle, error) {
	f.runs++
	f.days = days
	return &analysisDomain.Bundle{WindowDays: days}, nil
}

func (f *fakeAnalysis) Report(ctx context.Context, b *analysisDomain.Bundle, reporters ...analysisApp.Reporter) error {
	f.reporters = len(reporters)
	return nil
}

type fakeStats struct{}

func (fakeStats) Stats(ctx context.Context) (pricingDomain.Stats, error) {
	return pricingDomain.Stats{TotalRecords: 9}, nil
}

func TestScheduler_RunOnce(t *testing.T) {
	cycles := &fakeCycles{}
	analysis := &fakeAnalysis{}
	req := scrapingDomain.CycleRequest{Region: "US"}

	s := newScheduler(cycles, analysis, fakeStats{}, req, 14, time.Hour, &mockLogger{},
		analysisApp.Reporter(nil), analysisApp.Reporter(nil))
	var msgs []any
	s.notify = func(msg any) { msgs = append(msgs, msg) }

	s.runOnce(context.Background())

	if cycles.count() != 1 || cycles.reqs[0].Region != "US" {
		t.Fatalf("unexpected cycle requests %+v", cycles.reqs)
	}
	if analysis.runs != 1 || analysis.days != 14 {
		t.Errorf("analysis runs=%d days=%d, want 1 and 14", analysis.runs, analysis.days)
	}
	if analysis.reporters != 2 {
		t.Errorf("reporters = %d, want 2", analysis.reporters)
	}

	if len(msgs) != 2 {
		t.Fatalf("notified %d messages, want 2", len(msgs))
	}
	if _, ok := msgs[0].(ui.CycleStartedMsg); !ok {
		t.Errorf("first message %T, want CycleStartedMsg", msgs[0])
	}
	if st, ok := msgs[1].(ui.StatsMsg); !ok || st.Stats.TotalRecords != 9 {
		t.Errorf("second message %#v, want StatsMsg", msgs[1])
	}
}

func TestScheduler_RunOnceCycleError(t *testing.T) {
	cycles := &fakeCycles{err: errors.New("a scrape cycle is already running")}
	analysis := &fakeAnalysis{}

	s := newScheduler(cycles, analysis, fakeStats{}, scrapingDomain.CycleRequest{}, 0, time.Hour, &mockLogger{})
	var msgs []any
	s.notify = func(msg any) { msgs = append(msgs, msg) }

	s.runOnce(context.Background())

	if analysis.runs != 0 {
		t.Error("analysis should not run after a rejected cycle")
	}
	if _, ok := msgs[len(msgs)-1].(ui.ErrorMsg); !ok {
		t.Errorf("last message %T, want ErrorMsg", msgs[len(msgs)-1])
	}
}

func TestScheduler_TriggerAndStop(t *testing.T) {
	cycles := &fakeCycles{done: make(chan struct{}, 1)}
	s := newScheduler(cycles, &fakeAnalysis{}, fakeStats{}, scrapingDomain.CycleRequest{}, 0, time.Hour, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	waitCycle := func() {
		t.Helper()
		select {
		case <-cycles.done:
		case <-time.After(2 * time.Second):
			t.Fatal("cycle did not run")
		}
	}

	waitCycle() // immediate first cycle
	s.Trigger()
	waitCycle()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	if got := cycles.count(); got != 2 {
		t.Errorf("cycles = %d, want 2", got)
	}
}

func TestScheduler_Trigger_Coalesces(t *testing.T) {
	s := newScheduler(&fakeCycles{}, &fakeAnalysis{}, fakeStats{}, scrapingDomain.CycleRequest{}, 0, 0, &mockLogger{})
	s.Trigger()
	s.Trigger()
	s.Trigger()

	if len(s.trigger) != 1 {
		t.Errorf("queued triggers = %d, want 1", len(s.trigger))
	}
	if s.interval != 6*time.Hour {
		t.Errorf("default interval = %s, want 6h", s.interval)
	}
}

func TestDashboardSink(t *testing.T) {
	var msgs []any
	pub := dashboardSink(func(msg any) { msgs = append(msgs, msg) })
	ctx := context.Background()

	_ = pub.Publish(ctx, stream.EventCycleCompleted, pricingDomain.Session{ID: "c1"})
	_ = pub.Publish(ctx, stream.EventPlatformFailed, scrapingDomain.ScrapeResult{
		Platform: "Swappa",
		Region:   "US",
		Errors:   []scrapingDomain.ScrapeError{{Message: "blocked"}},
	})
	_ = pub.Publish(ctx, stream.EventInsightsGenerated, &analysisDomain.Bundle{})

	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if c, ok := msgs[0].(ui.CycleMsg); !ok || c.Session.ID != "c1" {
		t.Errorf("first message %#v, want CycleMsg c1", msgs[0])
	}
	if f, ok := msgs[1].(ui.PlatformFailedMsg); !ok || f.Reason != "blocked" {
		t.Errorf("second message %#v, want PlatformFailedMsg blocked", msgs[1])
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	printSummary(&buf, &scrapingDomain.CycleSummary{
		ID:         "cycle-7",
		State:      scrapingDomain.StatePartiallyFailed,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Attempted:  2,
		Succeeded:  1,
		Failed:     1,
		Saved:      4,
		Results: []scrapingDomain.ScrapeResult{
			{Platform: "Swappa", Region: "US", Attempted: 1, Succeeded: 1, Records: make([]pricingDomain.PriceRecord, 4)},
			{Platform: "BackMarket", Region: "UK", Attempted: 1, Errors: []scrapingDomain.ScrapeError{
				{Platform: "BackMarket", Region: "UK", Kind: scrapingDomain.KindTimeout, Message: "platform timeout exceeded"},
			}},
		},
	})

	out := buf.String()
	for _, want := range []string{
		"cycle-7: PartiallyFailed in 1.5s",
		"2 attempted, 1 succeeded, 1 failed",
		"FAILED",
		"platform timeout exceeded",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
