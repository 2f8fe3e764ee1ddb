// Command update runs the climate dataset pipeline once: fetch every
// configured series, sanitize, derive, snapshot the map products, and write
// the consolidated artifact. With --watch it keeps re-running on a fixed
// interval and serves health and metrics endpoints while doing so.
//
// Usage:
//
//	go run ./cmd/update
//	go run ./cmd/update --watch --interval-minutes=60
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/climate-dataset-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-dataset-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-dataset-etl/internal/adapter/postgres"
	"github.com/couchcryptid/climate-dataset-etl/internal/config"
	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/fetch"
	"github.com/couchcryptid/climate-dataset-etl/internal/maps"
	"github.com/couchcryptid/climate-dataset-etl/internal/observability"
	"github.com/couchcryptid/climate-dataset-etl/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "re-run the pipeline continuously")
	intervalMinutes := fs.Float64("interval-minutes", 360, "minutes between watch-mode runs")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		return 1
	}
	if *intervalMinutes <= 0 {
		fmt.Fprintf(os.Stderr, "--interval-minutes must be positive, got %g\n", *intervalMinutes)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.FetchTimeout, fetch.Policy{
		MaxAttempts: cfg.FetchMaxAttempts,
		BaseDelay:   cfg.FetchBaseDelay,
	}, metrics, logger)
	mapFetcher := maps.NewFetcher(client, cfg.DataDir, metrics, logger)

	// Post-run integrations are feature-flagged via KAFKA_BROKERS / DATABASE_URL.
	var notifiers []pipeline.Notifier
	if cfg.AnnounceEnabled() {
		announcer := kafkaadapter.NewAnnouncer(cfg, logger)
		defer func() {
			if err := announcer.Close(); err != nil {
				logger.Error("kafka announcer close error", "error", err)
			}
		}()
		notifiers = append(notifiers, announcer)
		logger.Info("kafka announcer enabled", "topic", cfg.KafkaAnnounceTopic)
	}
	if cfg.ArchiveEnabled() {
		archive, err := postgres.NewArchive(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect archive: %v\n", err)
			return 1
		}
		defer archive.Close()
		notifiers = append(notifiers, archive)
		logger.Info("postgres archive enabled")
	}

	p := pipeline.New(pipeline.DefaultCatalog(), client, mapFetcher, cfg.ArtifactPath(),
		notifiers, logger, metrics)

	if *watch {
		interval := time.Duration(*intervalMinutes * float64(time.Minute))
		return runWatch(ctx, cfg, p, logger, interval)
	}
	return runOnce(ctx, cfg, p)
}

// runOnce executes a single pipeline cycle and prints the dataset summary.
func runOnce(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) int {
	if err := p.Run(ctx); err != nil {
		var incomplete *pipeline.IncompleteDatasetError
		if errors.As(err, &incomplete) {
			fmt.Fprintln(os.Stderr, "incomplete dataset, empty series:")
			for _, key := range incomplete.Missing {
				fmt.Fprintf(os.Stderr, "  - %s\n", key)
			}
			return 1
		}
		fmt.Fprintf(os.Stderr, "pipeline run failed: %v\n", err)
		return 1
	}
	return printSummary(cfg.ArtifactPath())
}

// printSummary reloads the artifact so the report reflects what actually
// landed on disk.
func printSummary(path string) int {
	artifact, err := dataset.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read artifact: %v\n", err)
		return 1
	}

	keys := make([]string, 0, len(artifact.Summary))
	for key := range artifact.Summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Printf("dataset written: %s (generated %s)\n", path, artifact.GeneratedAtISO)
	for _, key := range keys {
		s := artifact.Summary[key]
		fmt.Printf("  %-40s %6d points   latest %s  %.3f\n", key, s.Points, s.LatestDate, s.LatestValue)
	}
	for _, w := range artifact.MapWarnings {
		fmt.Printf("  map warning: %s\n", w)
	}
	return 0
}

// runWatch serves the ops endpoints and re-runs the pipeline until a signal
// arrives.
func runWatch(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger, interval time.Duration) int {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.ArtifactPath(), logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go p.Watch(ctx, interval)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
