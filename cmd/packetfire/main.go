package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/torosent/packetfire/internal/config"
	"github.com/torosent/packetfire/internal/dashboard"
	"github.com/torosent/packetfire/internal/metrics"
	"github.com/torosent/packetfire/internal/output"
	"github.com/torosent/packetfire/internal/runner"
	"github.com/torosent/packetfire/internal/shutdown"
	"github.com/torosent/packetfire/internal/threshold"
	"github.com/torosent/packetfire/internal/tracing"
	"github.com/torosent/packetfire/internal/transport"
)

const (
	progressInterval       = time.Second
	failureLogInterval     = time.Second
	tracingShutdownTimeout = 5 * time.Second
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoaderWithOutput(stdout)
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, parseLevel(cfg.LogLevel))
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	var exporter *metrics.Exporter
	if cfg.MetricsAddr != "" {
		exporter = metrics.NewExporter()
		exporter.SetBuildInfo(version, commit)
		serveCtx, stopServe := context.WithCancel(ctx)
		defer stopServe()
		if _, err := exporter.Serve(serveCtx, cfg.MetricsAddr, logger); err != nil {
			return err
		}
	}

	target := cfg.AddrPort()
	if !cfg.JSONOutput {
		output.PrintBanner(stdout, output.RunInfo{
			Target:      target.String(),
			Duration:    cfg.Duration,
			PayloadSize: cfg.PayloadSize,
			Workers:     cfg.Workers,
		})
	}

	// The dashboard owns the terminal while it runs.
	runLogger := logger
	if cfg.Dashboard {
		runLogger = slog.New(slog.DiscardHandler)
	}

	sig := shutdown.New()
	stopNotify := shutdown.NotifyOnInterrupt(sig, runLogger)
	defer stopNotify()

	collector := metrics.NewCollector(metrics.DefaultShards(cfg.Workers))
	var failures *failureLogger
	if cfg.LogErrors {
		failures = newFailureLogger(runLogger, failureLogInterval)
	}

	r, err := runner.New(runner.Options{
		Target:      target,
		Duration:    cfg.Duration,
		PayloadSize: cfg.PayloadSize,
		Workers:     cfg.Workers,
		Dialer: transport.UDPDialer{
			WriteBuffer: cfg.WriteBuffer,
			TTL:         cfg.TTL,
			TOS:         cfg.TOS,
		},
		Signal:   sig,
		Observer: observersFor(collector, exporter, failures),
		Logger:   runLogger,
		Tracer:   tp.Tracer(),
	})
	if err != nil {
		return err
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunConfig{
			Target:      target.String(),
			Workers:     cfg.Workers,
			PayloadSize: cfg.PayloadSize,
			Duration:    cfg.Duration,
			ConfigFile:  cfg.ConfigFile,
		}, func() { sig.Set() })
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, stdout)
		progress.Start()
	}

	collector.Start()
	if exporter != nil {
		exporter.RunStarted(cfg.Workers)
	}
	result := r.Run(ctx)
	if exporter != nil {
		exporter.RunFinished()
	}

	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}

	logger.Debug("run result",
		"successes", result.Successes,
		"failures", result.Failures,
		"duration", result.Duration,
		"stops", result.Stops,
	)

	stats := reportStats(collector, result)
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, stats); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, stats)
	}

	if len(thresholds) == 0 {
		return nil
	}
	// Keep stdout parseable in JSON mode.
	thresholdOut := stdout
	if cfg.JSONOutput {
		thresholdOut = stderr
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(stats)
	if !output.PrintThresholdResults(thresholdOut, results) {
		return errThresholdsFailed
	}
	return nil
}

// reportStats merges the collector's measurements with the engine's exact
// success and failure counters.
func reportStats(collector *metrics.Collector, result runner.Result) metrics.Stats {
	return collector.Stats(result.Duration).WithCounts(result.Successes, result.Failures)
}

// observersFor builds the per-worker observer chain. Nil sinks are skipped.
func observersFor(collector *metrics.Collector, exporter *metrics.Exporter, failures *failureLogger) func(worker int) runner.Observer {
	var shared []runner.Observer
	if exporter != nil {
		shared = append(shared, exporter)
	}
	if failures != nil {
		shared = append(shared, failures)
	}
	return func(worker int) runner.Observer {
		observers := append([]runner.Observer{collector.Shard(worker)}, shared...)
		return runner.MultiObserver(observers...)
	}
}
