// Command ering-bench measures the throughput of the SPSC ring buffers
// with a pinned producer and a pinned consumer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/FerroO2000/ering/internal/bench"
	"github.com/FerroO2000/ering/internal/config"
	"github.com/FerroO2000/ering/internal/report"
	"github.com/FerroO2000/ering/internal/telemetry"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}

		fmt.Fprintln(os.Stderr, "ering-bench:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelCtx()

	// Console logger for the configuration anomalies, replaced by Init
	telemetry.SetDefaultLogger(telemetry.DefaultConfig(), nil)

	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	if err := telemetry.Init(ctx, cfg.Telemetry.ToTelemetryConfig()); err != nil {
		return err
	}
	defer func() {
		if err := telemetry.Close(context.Background()); err != nil {
			slog.Error("failed to close telemetry", "error", err)
		}
	}()

	undoMaxProcs, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
	if err != nil {
		slog.Warn("failed to set GOMAXPROCS", "error", err)
	}
	defer undoMaxProcs()

	if flags.watch {
		return watch(ctx, flags, cfg)
	}

	return runBench(ctx, cfg)
}

// runBench benchmarks the configured kinds and writes every result to the sinks.
func runBench(ctx context.Context, cfg *config.Bench) error {
	runner := bench.NewRunner(cfg)
	runner.Init()

	fanout, err := report.Open(ctx, cfg.Sinks)
	if err != nil {
		return err
	}
	defer func() {
		if err := fanout.Close(context.Background()); err != nil {
			slog.Error("failed to close sinks", "error", err)
		}
	}()

	errs := []error{}
	for res, err := range runner.Run(ctx) {
		if res != nil {
			if err := fanout.Write(ctx, res); err != nil {
				errs = append(errs, err)
			}
		}

		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
