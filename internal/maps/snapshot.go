package maps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
	"github.com/couchcryptid/climate-dataset-etl/internal/fetch"
	"github.com/couchcryptid/climate-dataset-etl/internal/observability"
)

// defaultLookback bounds the day-by-day probe for a published image.
const defaultLookback = 20

// Product is one map image the dashboard embeds.
type Product struct {
	Key        string
	SourcePage string
	// Template builds the image URL from (year, year, day-of-year).
	Template string
}

// URL resolves the image URL for a given day.
func (p Product) URL(d domain.Date) string {
	return fmt.Sprintf(p.Template, d.Year(), d.Year(), d.DayOfYear())
}

// RelPath is where the snapshot lives relative to the data directory.
func (p Product) RelPath() string {
	return path.Join("maps", p.Key+".png")
}

// Products lists the map images refreshed on every run.
func Products() []Product {
	return []Product{
		{
			Key:        "surface_temperature",
			SourcePage: "https://climatereanalyzer.org/clim/t2_daily/",
			Template:   "https://climatereanalyzer.org/clim/t2_daily/clim_frames/%d/t2_world-ced_%d_d%03d.png",
		},
		{
			Key:        "surface_temperature_anomaly",
			SourcePage: "https://climatereanalyzer.org/clim/t2_daily/",
			Template:   "https://climatereanalyzer.org/clim/t2_daily/clim_frames/%d/t2anom_world-ced_%d_d%03d.png",
		},
		{
			Key:        "sea_surface_temperature",
			SourcePage: "https://climatereanalyzer.org/clim/sst_daily/",
			Template:   "https://climatereanalyzer.org/clim/sst_daily/clim_frames/%d/sst_world-wt3_%d_d%03d.png",
		},
		{
			Key:        "sea_surface_temperature_anomaly",
			SourcePage: "https://climatereanalyzer.org/clim/sst_daily/",
			Template:   "https://climatereanalyzer.org/clim/sst_daily/clim_frames/%d/sstanom_world-wt3_%d_d%03d.png",
		},
	}
}

// Outcome classifies how a snapshot probe ended.
type Outcome int

const (
	OutcomeFetched Outcome = iota
	OutcomeKeptExisting
	OutcomeMissing
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetched"
	case OutcomeKeptExisting:
		return "kept_existing"
	default:
		return "missing"
	}
}

// Snapshot describes an image that exists on disk after the probe.
type Snapshot struct {
	Key        string
	Path       string
	SourceURL  string
	SourcePage string
	Date       domain.Date
}

// Result is the terminal state of one product's probe.
type Result struct {
	Product  Product
	Outcome  Outcome
	Snapshot Snapshot
	Warning  string
}

// Downloader is the slice of the fetch client the prober needs.
type Downloader interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) ([]byte, error)
}

// Fetcher locates the most recent published image for each product, walking
// backward from the target date one day at a time.
type Fetcher struct {
	client   Downloader
	dataDir  string
	lookback int
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewFetcher(client Downloader, dataDir string, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:   client,
		dataDir:  dataDir,
		lookback: defaultLookback,
		metrics:  metrics,
		logger:   logger,
	}
}

// FetchAll probes every product concurrently. Each product's probing is
// sequential because candidate N+1 only matters once candidate N has failed.
func (f *Fetcher) FetchAll(ctx context.Context, target domain.Date) []Result {
	products := Products()
	results := make([]Result, len(products))
	var wg sync.WaitGroup
	for i, p := range products {
		wg.Add(1)
		go func(i int, p Product) {
			defer wg.Done()
			results[i] = f.fetchProduct(ctx, p, target)
		}(i, p)
	}
	wg.Wait()
	return results
}

func (f *Fetcher) fetchProduct(ctx context.Context, p Product, target domain.Date) Result {
	for i := 0; i < f.lookback; i++ {
		if ctx.Err() != nil {
			break
		}
		d := target.AddDays(-i)
		url := p.URL(d)
		data, err := f.client.Fetch(ctx, url, fetch.KindBinary)
		if err != nil || len(data) == 0 {
			continue
		}
		if err := f.write(p, data); err != nil {
			f.logger.Error("map snapshot write failed", "product", p.Key, "error", err)
			break
		}
		if i > 0 {
			f.logger.Info("map snapshot fell back",
				"product", p.Key, "requested", target.String(), "used", d.String())
		}
		f.metrics.MapSnapshots.WithLabelValues(p.Key, OutcomeFetched.String()).Inc()
		return Result{
			Product: p,
			Outcome: OutcomeFetched,
			Snapshot: Snapshot{
				Key:        p.Key,
				Path:       p.RelPath(),
				SourceURL:  url,
				SourcePage: p.SourcePage,
				Date:       d,
			},
		}
	}
	return f.keepExisting(p, target)
}

// keepExisting is the terminal state after an exhausted probe. A stale image
// beats an empty dashboard tile, so an existing file stays in place.
func (f *Fetcher) keepExisting(p Product, target domain.Date) Result {
	rel := p.RelPath()
	if _, err := os.Stat(filepath.Join(f.dataDir, rel)); err == nil {
		f.logger.Warn("map snapshot unavailable, keeping existing file",
			"product", p.Key, "target", target.String(), "lookback_days", f.lookback)
		f.metrics.MapSnapshots.WithLabelValues(p.Key, OutcomeKeptExisting.String()).Inc()
		return Result{
			Product:  p,
			Outcome:  OutcomeKeptExisting,
			Snapshot: Snapshot{Key: p.Key, Path: rel, SourcePage: p.SourcePage},
			Warning: fmt.Sprintf("%s: no image within %d days of %s, keeping previous snapshot",
				p.Key, f.lookback, target),
		}
	}

	f.logger.Warn("map snapshot unavailable",
		"product", p.Key, "target", target.String(), "lookback_days", f.lookback)
	f.metrics.MapSnapshots.WithLabelValues(p.Key, OutcomeMissing.String()).Inc()
	return Result{
		Product: p,
		Outcome: OutcomeMissing,
		Warning: fmt.Sprintf("%s: no image within %d days of %s and no previous snapshot",
			p.Key, f.lookback, target),
	}
}

// write lands the image atomically so a half-written file never replaces a
// good one.
func (f *Fetcher) write(p Product, data []byte) error {
	dest := filepath.Join(f.dataDir, p.RelPath())
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create maps dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+p.Key+"-*.png")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
