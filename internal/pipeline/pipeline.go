package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
	"github.com/couchcryptid/climate-dataset-etl/internal/fetch"
	"github.com/couchcryptid/climate-dataset-etl/internal/maps"
	"github.com/couchcryptid/climate-dataset-etl/internal/observability"
)

// Fetcher is the slice of the fetch client the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) ([]byte, error)
}

// MapFetcher resolves the snapshot images for a run.
type MapFetcher interface {
	FetchAll(ctx context.Context, target domain.Date) []maps.Result
}

// Notifier is told about every artifact the pipeline writes. Notifier
// failures are logged and swallowed; announcing a run must never undo it.
type Notifier interface {
	Name() string
	NotifyRun(ctx context.Context, artifact *dataset.Artifact) error
}

// IncompleteDatasetError aborts a run when required series came back empty.
// The previous artifact stays on disk untouched.
type IncompleteDatasetError struct {
	Missing []string
}

func (e *IncompleteDatasetError) Error() string {
	return fmt.Sprintf("incomplete dataset: %d series empty: %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Pipeline drives the fetch-sanitize-derive-assemble cycle.
type Pipeline struct {
	catalog      Catalog
	client       Fetcher
	mapFetcher   MapFetcher
	artifactPath string
	notifiers    []Notifier
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Pipeline over the given metric catalog.
func New(catalog Catalog, client Fetcher, mapFetcher MapFetcher, artifactPath string,
	notifiers []Notifier, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		catalog:      catalog,
		client:       client,
		mapFetcher:   mapFetcher,
		artifactPath: artifactPath,
		notifiers:    notifiers,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once a run has produced an artifact, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no dataset produced yet")
	}
	return nil
}

// Run executes one full cycle: fan out every fetch chain, build derived
// series, enforce completeness, then write and announce the artifact.
func (p *Pipeline) Run(ctx context.Context) error {
	start := clock.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.logger.Info("pipeline run started",
		"sources", len(p.catalog.Sources), "derived", len(p.catalog.Derived))

	byKey, mapResults := p.collect(ctx)
	p.derive(byKey)

	var missing []string
	for _, key := range p.catalog.RequiredKeys() {
		if len(byKey[key]) == 0 {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		return &IncompleteDatasetError{Missing: missing}
	}

	artifact := p.assemble(byKey, mapResults)
	if err := artifact.Write(p.artifactPath); err != nil {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		return err
	}
	p.notify(ctx, artifact)

	p.ready.Store(true)
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(clock.Since(start).Seconds())
	p.logger.Info("pipeline run finished",
		"series", len(artifact.Series),
		"map_warnings", len(artifact.MapWarnings),
		"duration", clock.Since(start).Round(time.Millisecond).String())
	return nil
}

// Watch reruns the pipeline on a fixed interval until the context is
// cancelled. Failed iterations are logged; the loop never stops on them.
func (p *Pipeline) Watch(ctx context.Context, interval time.Duration) {
	p.logger.Info("watch mode started", "interval", interval.String())
	for {
		if err := p.Run(ctx); err != nil {
			p.logger.Error("pipeline run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("watch mode stopping", "reason", ctx.Err())
			return
		case <-clock.After(interval):
		}
	}
}

// collect fans out one goroutine per source plus one for the map snapshots.
// Each goroutine owns its result slot, so no locking is needed.
func (p *Pipeline) collect(ctx context.Context) (map[string]domain.Series, []maps.Result) {
	slots := make([]domain.Series, len(p.catalog.Sources))
	var mapResults []maps.Result

	var wg sync.WaitGroup
	for i, src := range p.catalog.Sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			slots[i] = p.fetchSeries(ctx, src)
		}(i, src)
	}
	if p.mapFetcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mapResults = p.mapFetcher.FetchAll(ctx, domain.Today())
		}()
	}
	wg.Wait()

	byKey := make(map[string]domain.Series, len(slots))
	for i, src := range p.catalog.Sources {
		byKey[src.Key] = slots[i]
	}
	return byKey, mapResults
}

// fetchSeries runs one metric's fetch-parse-sanitize chain. Any failure
// degrades the metric to an empty series; the completeness check decides
// whether that sinks the run.
func (p *Pipeline) fetchSeries(ctx context.Context, src Source) domain.Series {
	payload, err := p.client.Fetch(ctx, src.URL, src.Kind)
	if err != nil {
		p.logger.Warn("series fetch failed", "metric", src.Key, "error", err)
		p.metrics.SeriesMissing.WithLabelValues(src.Key).Inc()
		return nil
	}

	parsed := domain.Normalize(src.Parse(payload))
	clean := domain.Sanitize(parsed, src.Policy)
	if len(clean) == 0 {
		p.logger.Warn("series empty after sanitization",
			"metric", src.Key, "parsed_points", len(parsed))
		p.metrics.SeriesMissing.WithLabelValues(src.Key).Inc()
		return nil
	}

	latest, _ := clean.Latest()
	p.metrics.SeriesPoints.WithLabelValues(src.Key).Set(float64(len(clean)))
	p.logger.Info("series ready",
		"metric", src.Key, "points", len(clean), "latest", latest.Date.String())
	return clean
}

func (p *Pipeline) derive(byKey map[string]domain.Series) {
	for _, d := range p.catalog.Derived {
		clean := domain.Sanitize(d.Build(byKey), d.Policy)
		byKey[d.Key] = clean
		if len(clean) == 0 {
			p.logger.Warn("derived series empty", "metric", d.Key)
			p.metrics.SeriesMissing.WithLabelValues(d.Key).Inc()
			continue
		}
		p.metrics.SeriesPoints.WithLabelValues(d.Key).Set(float64(len(clean)))
	}
}

func (p *Pipeline) assemble(byKey map[string]domain.Series, mapResults []maps.Result) *dataset.Artifact {
	artifact := dataset.New(clock.Now())
	for _, src := range p.catalog.Sources {
		artifact.AddSeries(src.Key, src.Provenance, byKey[src.Key])
	}
	for _, d := range p.catalog.Derived {
		artifact.AddSeries(d.Key, d.Provenance, byKey[d.Key])
	}

	var previous map[string]dataset.MapRecord
	for _, res := range mapResults {
		switch res.Outcome {
		case maps.OutcomeFetched:
			artifact.AddMap(res.Product.Key, dataset.MapRecord{
				Path:       res.Snapshot.Path,
				SourceURL:  res.Snapshot.SourceURL,
				SourcePage: res.Snapshot.SourcePage,
				Date:       res.Snapshot.Date.String(),
			})
		case maps.OutcomeKeptExisting:
			if previous == nil {
				previous = p.previousMaps()
			}
			rec := dataset.MapRecord{
				Path:       res.Snapshot.Path,
				SourcePage: res.Snapshot.SourcePage,
			}
			if prev, ok := previous[res.Product.Key]; ok {
				rec.SourceURL = prev.SourceURL
				rec.Date = prev.Date
			}
			artifact.AddMap(res.Product.Key, rec)
			artifact.MapWarnings = append(artifact.MapWarnings, res.Warning)
		case maps.OutcomeMissing:
			artifact.MapWarnings = append(artifact.MapWarnings, res.Warning)
		}
	}
	return artifact
}

// previousMaps recovers snapshot provenance from the prior run's artifact so
// a kept-existing image keeps its original source URL and date.
func (p *Pipeline) previousMaps() map[string]dataset.MapRecord {
	prev, err := dataset.Read(p.artifactPath)
	if err != nil {
		return map[string]dataset.MapRecord{}
	}
	return prev.Maps
}

func (p *Pipeline) notify(ctx context.Context, artifact *dataset.Artifact) {
	for _, n := range p.notifiers {
		if err := n.NotifyRun(ctx, artifact); err != nil {
			p.logger.Warn("run notification failed", "notifier", n.Name(), "error", err)
		}
	}
}
