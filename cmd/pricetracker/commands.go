package main

import (
	"context"
	"fmt"
	"io"
	"time"

	analysisApp "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/app"
	analysisDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/di"
	analysisInfra "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/infra"
	pricingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/di"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	scrapingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/di"
	scrapingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/monolith"
)

func runScrape(ctx context.Context, opts options, mono monolith.Monolith, w io.Writer) error {
	orch := scrapingDI.GetOrchestrator(mono.Services())

	summary, err := orch.RunScrapeCycle(ctx, opts.req)
	if err != nil {
		return err
	}
	printSummary(w, summary)
	return nil
}

func runAnalyze(ctx context.Context, opts options, cfg *config.Config, mono monolith.Monolith, w io.Writer) error {
	svc := analysisDI.GetService(mono.Services())

	bundle, err := svc.RunAnalysis(ctx, opts.days)
	if err != nil {
		return err
	}
	return svc.Report(ctx, bundle, cliReporters(opts, cfg, w)...)
}

// runDemo seeds one sample cycle per day, oldest first, ending today,
// then analyzes the result.
func runDemo(ctx context.Context, opts options, cfg *config.Config, mono monolith.Monolith, log logger.LoggerInterface, w io.Writer) error {
	orch := scrapingDI.GetOrchestrator(mono.Services())

	samples := max(opts.samples, 1)
	now := time.Now().UTC()
	for i := samples - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := opts.req
		req.Sample = true
		req.At = now.AddDate(0, 0, -i)

		summary, err := orch.RunScrapeCycle(ctx, req)
		if err != nil {
			return fmt.Errorf("demo cycle %s: %w", req.At.Format(time.DateOnly), err)
		}
		fmt.Fprintf(w, "seeded %s: %d records saved, %d dropped\n",
			req.At.Format(time.DateOnly), summary.Saved, summary.Dropped)
	}
	log.Info(ctx, "demo data seeded", "cycles", samples)

	if opts.req.DryRun {
		return nil
	}

	days := opts.days
	if days <= 0 {
		days = max(cfg.Analysis.DefaultDays, samples)
	}
	svc := analysisDI.GetService(mono.Services())
	bundle, err := svc.RunAnalysis(ctx, days)
	if err != nil {
		return err
	}
	return svc.Report(ctx, bundle, cliReporters(opts, cfg, w)...)
}

func runStatus(ctx context.Context, mono monolith.Monolith, w io.Writer) error {
	svc := pricingDI.GetPricingService(mono.Services())

	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	last, err := svc.LastCycle(ctx)
	if err != nil {
		return err
	}
	printStatus(w, stats, last)
	return nil
}

func runPrune(ctx context.Context, opts options, cfg *config.Config, mono monolith.Monolith, w io.Writer) error {
	retention := cfg.Storage.RetentionDays
	if opts.days > 0 {
		retention = opts.days
	}

	n, err := pricingDI.GetPricingService(mono.Services()).Prune(ctx, retention)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "deleted %d records older than %d days\n", n, retention)
	return nil
}

func cliReporters(opts options, cfg *config.Config, w io.Writer) []analysisApp.Reporter {
	reporters := []analysisApp.Reporter{analysisInfra.NewConsoleReporter(w, cfg.Analysis.TopN)}
	if opts.output != "" {
		reporters = append(reporters, analysisInfra.NewFileReporter(opts.output))
	}
	return reporters
}

func printSummary(w io.Writer, s *scrapingDomain.CycleSummary) {
	fmt.Fprintf(w, "cycle %s: %s in %s\n", s.ID, s.State, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	if s.DryRun {
		fmt.Fprintln(w, "dry run: nothing saved")
	}
	fmt.Fprintf(w, "platforms: %d attempted, %d succeeded, %d failed\n", s.Attempted, s.Succeeded, s.Failed)
	fmt.Fprintf(w, "records:   %d saved, %d dropped\n", s.Saved, s.Dropped)
	if s.FailedBatches > 0 {
		fmt.Fprintf(w, "batches:   %d failed\n", s.FailedBatches)
	}

	for _, r := range s.Results {
		status := "ok"
		if r.Failed() {
			status = "FAILED"
		}
		fmt.Fprintf(w, "  %-4s %-20s %-6s %4d records %4d dropped\n",
			r.Region, r.Platform, status, len(r.Records), r.Dropped)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "       %s\n", e.Error())
		}
	}
}

func printStatus(w io.Writer, stats pricingDomain.Stats, last *pricingDomain.Session) {
	fmt.Fprintf(w, "records:   %d (%d in the last 7 days)\n", stats.TotalRecords, stats.RecentRecords)
	fmt.Fprintf(w, "platforms: %d\n", stats.Platforms)
	fmt.Fprintf(w, "models:    %d\n", stats.Models)
	if !stats.Oldest.IsZero() {
		fmt.Fprintf(w, "range:     %s .. %s\n", stats.Oldest.Format(time.RFC3339), stats.Newest.Format(time.RFC3339))
	}

	if last == nil {
		fmt.Fprintln(w, "last cycle: none")
		return
	}
	fmt.Fprintf(w, "last cycle: %s %s at %s (%d saved, %d/%d platforms ok)\n",
		last.ID, last.State, last.FinishedAt.Format(time.RFC3339), last.Saved, last.Succeeded, last.Attempted)
}
