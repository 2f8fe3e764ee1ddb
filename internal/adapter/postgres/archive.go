package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/climate-dataset-etl/internal/config"
	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
)

// Archive records a row per run and per series so operators can chart
// coverage over time without parsing old artifacts. It implements
// pipeline.Notifier. The climate schema is managed by migrations, not here.
type Archive struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewArchive connects to the archive database and verifies the connection.
func NewArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Archive, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Archive{pool: pool, logger: logger}, nil
}

func (a *Archive) Name() string { return "postgres-archive" }

// NotifyRun upserts the run header and one row per series. Re-archiving the
// same artifact is harmless because both tables conflict on run_at.
func (a *Archive) NotifyRun(ctx context.Context, artifact *dataset.Artifact) error {
	runAt, err := time.Parse(time.RFC3339, artifact.GeneratedAtISO)
	if err != nil {
		return fmt.Errorf("parse generated_at: %w", err)
	}
	rows := runSeriesRows(artifact)

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO climate.runs (run_at, series_count, map_warnings, created_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (run_at) DO UPDATE
SET series_count = EXCLUDED.series_count,
    map_warnings = EXCLUDED.map_warnings`,
		runAt, len(rows), len(artifact.MapWarnings))

	query := `INSERT INTO climate.run_series (run_at, metric, points, latest_date, latest_value)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (run_at, metric) DO UPDATE
SET points = EXCLUDED.points,
    latest_date = EXCLUDED.latest_date,
    latest_value = EXCLUDED.latest_value`
	for _, r := range rows {
		batch.Queue(query, runAt, r.Metric, r.Points, r.LatestDate, r.LatestValue)
	}

	res := a.pool.SendBatch(ctx, batch)
	defer res.Close()

	for i := 0; i < len(rows)+1; i++ {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("archive run: %w", err)
		}
	}

	a.logger.Info("run archived", "run_at", artifact.GeneratedAtISO, "series", len(rows))
	return nil
}

func (a *Archive) Close() {
	a.pool.Close()
}

type seriesRow struct {
	Metric      string
	Points      int
	LatestDate  string
	LatestValue float64
}

func runSeriesRows(artifact *dataset.Artifact) []seriesRow {
	rows := make([]seriesRow, 0, len(artifact.Summary))
	for metric, s := range artifact.Summary {
		rows = append(rows, seriesRow{
			Metric:      metric,
			Points:      s.Points,
			LatestDate:  s.LatestDate,
			LatestValue: s.LatestValue,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Metric < rows[j].Metric })
	return rows
}
