// Command volley sends a fixed number of requests to an endpoint in bounded
// concurrent batches and stops as soon as the endpoint reports rate limiting.
//
// Usage:
//
//	volley -config target.yaml [flags]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"volley/internal/batch"
	"volley/internal/collector"
	"volley/internal/config"
	"volley/internal/core"
	httpprovider "volley/internal/http"
	"volley/internal/progress"
	"volley/internal/session"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
	ExitRateLimited     = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("volley", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file (required)")
	count := fs.Int("count", 0, "number of units to send (overrides run.count)")
	workers := fs.Int("workers", 0, "concurrent workers, 1-100 (overrides run.workers)")
	delay := fs.Duration("delay", 0, "pause after each settled unit (overrides run.delay)")
	output := fs.String("output", "text", "output format: text, json")
	quiet := fs.Bool("quiet", false, "suppress progress output during the run")
	verbose := fs.Bool("verbose", false, "enable debug output (request/response logging)")
	if err := fs.Parse(args); err != nil {
		return ExitError
	}

	if *configPath == "" {
		fmt.Fprintln(stderr, "error: --config is required")
		fs.Usage()
		return ExitError
	}
	if *output != "text" && *output != "json" {
		fmt.Fprintf(stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		return ExitError
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["count"] {
		cfg.Run.Count = *count
	}
	if set["workers"] {
		cfg.Run.Workers = *workers
	}
	if set["delay"] {
		cfg.Run.Delay = *delay
	}
	if !set["workers"] && cfg.Run.Workers == 0 {
		cfg.Run.Workers = batch.RecommendedWorkers(cfg.Run.Count)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: invalid config: %v\n", err)
		return ExitError
	}

	sources, err := cfg.LoadSources()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	opts := []httpprovider.Option{httpprovider.WithSources(sources)}
	if *verbose {
		opts = append(opts, httpprovider.WithDebug(httpprovider.NewDebugLogger(stderr)))
	}
	provider := httpprovider.NewProvider(cfg.Target, opts...)

	sess, err := session.New(session.Params{
		Target:   cfg.TargetName(),
		Count:    cfg.Run.Count,
		Workers:  cfg.Run.Workers,
		Delay:    cfg.Run.Delay,
		Provider: provider,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	prog := progress.NewProgress(sess, *quiet)
	prog.SetOutput(stderr)
	prog.Printf("Volley starting: %d units against %q, %d workers (batch %d), delay %v",
		cfg.Run.Count, cfg.TargetName(), sess.Workers(), 2*sess.Workers(), cfg.Run.Delay)
	if cfg.Target.MaxRPS > 0 {
		prog.Printf("Client-side rate cap: %d req/s", cfg.Target.MaxRPS)
	}

	prog.Start()
	result, err := sess.Start(ctx)
	prog.Stop()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}

	metrics := sess.Metrics()

	var thresholdResults *collector.ThresholdResults
	if cfg.Thresholds != nil {
		thresholdResults = cfg.Thresholds.Check(metrics)
	}

	if *output == "json" {
		collector.FormatJSON(stdout, result, metrics, thresholdResults)
	} else {
		collector.FormatText(stdout, result, metrics, thresholdResults)
	}

	return exitCode(result, thresholdResults, *output, stderr)
}

func exitCode(result core.Result, thresholds *collector.ThresholdResults, output string, stderr io.Writer) int {
	switch result.Reason {
	case core.ReasonCanceled:
		// Partial results are fine on interrupt.
		if output == "text" {
			fmt.Fprintln(stderr, "\nInterrupted, results are partial.")
		}
		return ExitSuccess
	case core.ReasonRateLimited:
		if output == "text" {
			fmt.Fprintf(stderr, "\nStopped early: endpoint is rate limiting after %d units.\n", result.Completed())
		}
		return ExitRateLimited
	}

	if thresholds != nil && !thresholds.Passed {
		if output == "text" {
			fmt.Fprintln(stderr, "\nThreshold check failed!")
		}
		return ExitThresholdFailed
	}
	return ExitSuccess
}
