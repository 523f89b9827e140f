// Package main is the entry point for the refurbished smartphone price tracker.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis"
	analysisApp "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/app"
	analysisDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/di"
	analysisInfra "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/infra"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing"
	pricingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping"
	scrapingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/di"
	scrapingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apm"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/health"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/monolith"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
	"github.com/prem-pandian/smartphone-price-tracker-v2/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const usage = `usage: pricetracker [flags] <command>

commands:
  scrape    run one scrape cycle
  analyze   analyze stored prices
  serve     scrape on a schedule with the dashboard and API (default)
  demo      seed backdated sample cycles and analyze them
  status    show repository statistics and the last cycle
  prune     delete records older than storage.retention_days

flags:
`

// options carries the parsed command line.
type options struct {
	command    string
	configPath string
	tuiMode    bool
	req        scrapingDomain.CycleRequest
	days       int
	output     string
	interval   time.Duration
	samples    int
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run serve in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	region := flag.String("region", "", "Only scrape this region")
	platform := flag.String("platform", "", "Only scrape this platform")
	model := flag.String("model", "", "Only scrape models matching this name")
	dryRun := flag.Bool("dry-run", false, "Scrape without saving records")
	days := flag.Int("days", 0, "Analysis window in days (0 uses analysis.default_days)")
	output := flag.String("output", "", "Also write the insight bundle as JSON to this file")
	interval := flag.Duration("interval", 0, "Serve cadence (0 uses scraping.interval)")
	samples := flag.Int("samples", 7, "Number of daily sample cycles the demo seeds")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("pricetracker %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	command := "serve"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	switch command {
	case "scrape", "analyze", "serve", "demo", "status", "prune":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	// TUI is the default for serve, CLI is for debugging
	opts := options{
		command:    command,
		configPath: *configPath,
		tuiMode:    command == "serve" && !*cliMode,
		req: scrapingDomain.CycleRequest{
			Region:   *region,
			Platform: *platform,
			Model:    *model,
			DryRun:   *dryRun,
		},
		days:     *days,
		output:   *output,
		interval: *interval,
		samples:  *samples,
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !opts.tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	// Run application
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.TUIMode = opts.tuiMode

	// Setup logger (only log to stderr in CLI mode)
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if opts.tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting price tracker",
			"version", version,
			"command", opts.command,
			"environment", cfg.App.Environment,
		)
	}

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	// Only serve exposes HTTP
	var healthServer *health.Server
	if opts.command == "serve" {
		healthServer = health.NewServer(cfg.Server.Port, version, log)
	}

	var sinks []stream.Publisher
	if opts.tuiMode {
		sinks = append(sinks, dashboardSink(func(msg any) { ui.Send(msg) }))
	}

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log, healthServer, sinks...)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&pricing.Module{},  // Must be first - provides the repository
		&scraping.Module{}, // Depends on pricing for normalization and persistence
		&analysis.Module{}, // Depends on pricing for history
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if opts.command == "serve" {
		return serve(ctx, opts, cfg, mono, modules, healthServer, log)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	defer pricingDI.GetRepository(mono.Services()).Close()

	switch opts.command {
	case "scrape":
		return runScrape(ctx, opts, mono, os.Stdout)
	case "analyze":
		return runAnalyze(ctx, opts, cfg, mono, os.Stdout)
	case "demo":
		return runDemo(ctx, opts, cfg, mono, log, os.Stdout)
	case "status":
		return runStatus(ctx, mono, os.Stdout)
	case "prune":
		return runPrune(ctx, opts, cfg, mono, os.Stdout)
	}
	return nil
}

// setupTelemetry installs tracing and metrics when enabled and returns
// the shutdown func.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	// Set service name env var for OTEL
	if cfg.Telemetry.ServiceName != "" {
		os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	}

	traceProvider, err := apm.NewTraceProvider(log, apm.WithProvider(
		apm.Provider(cfg.Telemetry.TraceProvider),
		apm.ExporterConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
		},
		log,
	))
	if err != nil {
		log.Warn(ctx, "tracing disabled", "error", err)
	} else {
		log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider, "endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	// Initialize metrics with Prometheus
	if _, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{
			Provider: metrics.PrometheusProvider,
		}),
	); err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	} else {
		// Start Prometheus metrics server in background
		go metrics.ServePrometheusMetrics(log, metrics.WithPort(cfg.Telemetry.PrometheusPort))
	}

	return func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}
}

func serve(
	ctx context.Context,
	opts options,
	cfg *config.Config,
	mono interface {
		monolith.Monolith
		StartModules(context.Context, ...monolith.Module) error
	},
	modules []monolith.Module,
	healthServer *health.Server,
	log *logger.Logger,
) error {
	interval := opts.interval
	if interval <= 0 {
		interval = cfg.Scraping.Interval
	}

	var reporters []analysisApp.Reporter
	if opts.tuiMode {
		reporters = append(reporters, analysisInfra.NewTUIReporter())
	} else {
		reporters = append(reporters, analysisInfra.NewConsoleReporter(os.Stdout, cfg.Analysis.TopN))
	}
	if opts.output != "" {
		reporters = append(reporters, analysisInfra.NewFileReporter(opts.output))
	}

	var sched *scheduler
	startFunc := func(ctx context.Context) error {
		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		ui.Send(ui.StartupMsg{Step: "storage", Status: "connecting"})
		if err := mono.StartModules(ctx, modules...); err != nil {
			ui.Send(ui.StartupMsg{Step: "storage", Status: "failed"})
			return fmt.Errorf("failed to start modules: %w", err)
		}
		ui.Send(ui.StartupMsg{Step: "storage", Status: "done"})
		ui.Send(ui.StartupMsg{Step: "platforms", Status: "done"})

		ui.Send(ui.StartupMsg{Step: "server", Status: "connecting"})
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
			ui.Send(ui.StartupMsg{Step: "server", Status: "failed"})
		} else {
			log.Info(ctx, "health server started", "port", cfg.Server.Port)
			ui.Send(ui.StartupMsg{Step: "server", Status: "done"})
		}

		pricingSvc := pricingDI.GetPricingService(mono.Services())
		sched = newScheduler(
			scrapingDI.GetOrchestrator(mono.Services()),
			analysisDI.GetService(mono.Services()),
			pricingSvc,
			opts.req,
			opts.days,
			interval,
			log,
			reporters...,
		)
		if opts.tuiMode {
			sched.notify = func(msg any) { ui.Send(msg) }
			ui.OnRunCycle = sched.Trigger
			ui.OnPause = sched.SetPaused
		}
		return nil
	}
	stopFunc := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		healthServer.Stop(shutdownCtx)
		pricingDI.GetRepository(mono.Services()).Close()
	}

	if opts.tuiMode {
		return runTUI(ctx, func(ctx context.Context) error {
			if err := startFunc(ctx); err != nil {
				return err
			}
			return sched.Run(ctx)
		}, stopFunc)
	}

	// CLI mode: Start modules synchronously
	if err := startFunc(ctx); err != nil {
		return err
	}
	defer stopFunc()

	log.Info(ctx, "all modules started, scheduling scrape cycles", "interval", interval.String())
	err := sched.Run(ctx)
	log.Info(ctx, "shutting down")
	return err
}

func runTUI(ctx context.Context, startFunc func(context.Context) error, stopFunc func()) error {
	// Quitting the dashboard stops the tracker too
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	// Run tracker logic in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete (StartModulesMsg signal)
		select {
		case <-startSignal:
			// Welcome complete, start modules
		case <-ctx.Done():
			errCh <- nil
			return
		}

		// Starts modules then blocks in the scheduler until ctx ends
		err := startFunc(ctx)
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
		stopFunc()
		errCh <- err
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Wait for the scheduler to wind down
	cancel()
	select {
	case err := <-errCh:
		return err
	case <-time.After(10 * time.Second):
		return nil
	}
}
