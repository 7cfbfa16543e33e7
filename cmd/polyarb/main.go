// Command polyarb scans Polymarket for events whose outcomes can be bought
// for less than 1.0 in total. It loads configuration, applies command line
// overrides, validates, and runs the application in the configured mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alanyoungcy/polyarb/internal/app"
	"github.com/alanyoungcy/polyarb/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file (.toml, .yaml)")
	category := flag.String("category", "", "market category, comma separated for several; empty scans all")
	minEdge := flag.Float64("min-edge", 0, "minimum edge (1 - total cost) to report")
	stake := flag.Float64("stake", 0, "stake per outcome used to size orders")
	maxMarkets := flag.Int("max-markets", 0, "maximum markets fetched per category")
	mode := flag.String("mode", "", "scan, monitor, server or full")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	replay := flag.String("replay", "", "evaluate an archived snapshot (local JSONL or s3:<key>) instead of fetching")
	flag.Parse()

	// Logs go to stderr so stdout carries only the scan report.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Only flags given on the command line override file and env values.
	var ov config.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "category":
			ov.Category = category
		case "min-edge":
			ov.MinEdge = minEdge
		case "stake":
			ov.Stake = stake
		case "max-markets":
			ov.MaxMarkets = maxMarkets
		case "mode":
			ov.Mode = mode
		case "verbose":
			ov.Verbose = *verbose
		}
	})
	ov.Apply(cfg)

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := checkReplay(*replay, cfg.Mode); err != nil {
		logger.Error(err.Error(), slog.String("mode", cfg.Mode))
		os.Exit(1)
	}

	logger.Debug("configuration loaded", slog.Any("config", config.RedactedConfig(cfg)))

	application := app.New(cfg, logger).WithReplay(*replay)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = application.Run(ctx)
	application.Close()
	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application exited with error", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// checkReplay rejects -replay outside scan mode. Modes are case-insensitive.
func checkReplay(replay, mode string) error {
	if replay != "" && !strings.EqualFold(mode, "scan") {
		return errors.New("-replay is only supported in scan mode")
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
