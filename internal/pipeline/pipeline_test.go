package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
	"github.com/couchcryptid/climate-dataset-etl/internal/fetch"
	"github.com/couchcryptid/climate-dataset-etl/internal/maps"
	"github.com/couchcryptid/climate-dataset-etl/internal/observability"
)

var runNow = time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

func freezeClocks(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(runNow)
	SetClock(fake)
	domain.SetClock(fake)
	t.Cleanup(func() {
		SetClock(nil)
		domain.SetClock(nil)
	})
	return fake
}

// parsePairs reads "YYYY-MM-DD,value" lines; the test feeds use it in place
// of the production provider parsers.
func parsePairs(data []byte) []domain.RawPoint {
	var points []domain.RawPoint
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Split(strings.TrimSpace(line), ",")
		if len(parts) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.RawPoint{Date: parts[0], Value: v})
	}
	return points
}

func testCatalog(baseURL string) Catalog {
	return Catalog{
		Sources: []Source{
			{
				Key: "alpha", URL: baseURL + "/alpha.csv", Kind: fetch.KindText,
				Parse:      parsePairs,
				Policy:     domain.Policy{Min: 0, Max: 10, MaxAgeDays: 10},
				Provenance: baseURL + "/alpha",
			},
			{
				Key: "beta", URL: baseURL + "/beta.csv", Kind: fetch.KindText,
				Parse:      parsePairs,
				Policy:     domain.Policy{Min: 0, Max: 10, MaxAgeDays: 10},
				Provenance: baseURL + "/beta",
			},
		},
		Derived: []DerivedSource{
			{
				Key:        "gamma",
				Policy:     domain.Policy{Min: 0, Max: 20, MaxAgeDays: 10},
				Provenance: "derived: alpha + beta",
				Build: func(byKey map[string]domain.Series) domain.Series {
					return domain.MergeSum(byKey["alpha"], byKey["beta"])
				},
			},
		},
	}
}

type fakeMapFetcher struct {
	results []maps.Result
	target  domain.Date
}

func (f *fakeMapFetcher) FetchAll(_ context.Context, target domain.Date) []maps.Result {
	f.target = target
	return f.results
}

type recordingNotifier struct {
	artifacts []*dataset.Artifact
	err       error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) NotifyRun(_ context.Context, a *dataset.Artifact) error {
	n.artifacts = append(n.artifacts, a)
	return n.err
}

func testPipeline(t *testing.T, catalog Catalog, mf MapFetcher, artifactPath string, notifiers ...Notifier) *Pipeline {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := fetch.NewClient(5*time.Second, fetch.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}, metrics, logger)
	return New(catalog, client, mf, artifactPath, notifiers, logger, metrics)
}

func feedServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/alpha.csv", func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fmt.Fprint(w, "2024-04-28,1.0\n2024-04-29,1.5\n2024-04-30,2.0\n")
	})
	mux.HandleFunc("/beta.csv", func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fmt.Fprint(w, "2024-04-28,2.0\n2024-04-29,2.5\n2024-04-30,3.0\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPipeline_Run(t *testing.T) {
	freezeClocks(t)
	srv := feedServer(t, nil)

	mf := &fakeMapFetcher{results: []maps.Result{
		{
			Product: maps.Product{Key: "surface_temperature", SourcePage: "https://example.org/t2"},
			Outcome: maps.OutcomeFetched,
			Snapshot: maps.Snapshot{
				Key:        "surface_temperature",
				Path:       "maps/surface_temperature.png",
				SourceURL:  "https://example.org/t2/2024/img_2024_d121.png",
				SourcePage: "https://example.org/t2",
				Date:       domain.NewDate(2024, 4, 30),
			},
		},
		{
			Product: maps.Product{Key: "sea_surface_temperature"},
			Outcome: maps.OutcomeMissing,
			Warning: "sea_surface_temperature: no image within 20 days of 2024-05-01 and no previous snapshot",
		},
	}}
	notifier := &recordingNotifier{}
	artifactPath := filepath.Join(t.TempDir(), "climate_data.json")
	p := testPipeline(t, testCatalog(srv.URL), mf, artifactPath, notifier)

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.CheckReadiness(context.Background()))

	got, err := dataset.Read(artifactPath)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01T06:00:00Z", got.GeneratedAtISO)
	require.Len(t, got.Series["alpha"], 3)
	require.Len(t, got.Series["gamma"], 3)
	assert.Equal(t, 3.0, got.Series["gamma"][0].Value)
	assert.Equal(t, 5.0, got.Series["gamma"][2].Value)
	assert.Equal(t, "derived: alpha + beta", got.Sources["gamma"])
	assert.Equal(t, 3, got.Summary["beta"].Points)
	assert.Equal(t, "2024-04-30", got.Summary["beta"].LatestDate)
	assert.Equal(t, 3.0, got.Summary["beta"].LatestValue)

	assert.Equal(t, "2024-05-01", mf.target.String())
	require.Contains(t, got.Maps, "surface_temperature")
	assert.Equal(t, "2024-04-30", got.Maps["surface_temperature"].Date)
	require.Len(t, got.MapWarnings, 1)
	assert.Contains(t, got.MapWarnings[0], "no previous snapshot")

	require.Len(t, notifier.artifacts, 1)
	assert.Equal(t, got.GeneratedAtISO, notifier.artifacts[0].GeneratedAtISO)
}

func TestPipeline_Run_IncompleteDataset(t *testing.T) {
	freezeClocks(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/alpha.csv", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "2024-04-30,2.0\n")
	})
	mux.HandleFunc("/beta.csv", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	artifactPath := filepath.Join(t.TempDir(), "climate_data.json")
	previous := []byte(`{"generatedAtIso":"2024-04-30T06:00:00Z"}`)
	require.NoError(t, os.WriteFile(artifactPath, previous, 0o600))

	notifier := &recordingNotifier{}
	p := testPipeline(t, testCatalog(srv.URL), nil, artifactPath, notifier)

	err := p.Run(context.Background())
	var incomplete *IncompleteDatasetError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"beta", "gamma"}, incomplete.Missing)
	assert.Contains(t, err.Error(), "beta, gamma")

	// The failed run must leave the previous artifact exactly as it was and
	// announce nothing.
	onDisk, readErr := os.ReadFile(artifactPath)
	require.NoError(t, readErr)
	assert.Equal(t, previous, onDisk)
	assert.Empty(t, notifier.artifacts)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SanitizationCanEmptyASeries(t *testing.T) {
	freezeClocks(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/alpha.csv", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "2024-04-30,2.0\n")
	})
	// Parses fine but every value is outside the alpha/beta policy range.
	mux.HandleFunc("/beta.csv", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "2024-04-30,-999.0\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := testPipeline(t, testCatalog(srv.URL), nil, filepath.Join(t.TempDir(), "climate_data.json"))

	err := p.Run(context.Background())
	var incomplete *IncompleteDatasetError
	require.ErrorAs(t, err, &incomplete)
	assert.Contains(t, incomplete.Missing, "beta")
}

func TestPipeline_Run_KeptExistingMapRecoversProvenance(t *testing.T) {
	freezeClocks(t)
	srv := feedServer(t, nil)
	artifactPath := filepath.Join(t.TempDir(), "climate_data.json")

	prior := dataset.New(runNow.Add(-24 * time.Hour))
	prior.AddMap("surface_temperature", dataset.MapRecord{
		Path:       "maps/surface_temperature.png",
		SourceURL:  "https://example.org/t2/2024/img_2024_d111.png",
		SourcePage: "https://example.org/t2",
		Date:       "2024-04-20",
	})
	require.NoError(t, prior.Write(artifactPath))

	mf := &fakeMapFetcher{results: []maps.Result{
		{
			Product: maps.Product{Key: "surface_temperature", SourcePage: "https://example.org/t2"},
			Outcome: maps.OutcomeKeptExisting,
			Snapshot: maps.Snapshot{
				Key:        "surface_temperature",
				Path:       "maps/surface_temperature.png",
				SourcePage: "https://example.org/t2",
			},
			Warning: "surface_temperature: no image within 20 days of 2024-05-01, keeping previous snapshot",
		},
	}}
	p := testPipeline(t, testCatalog(srv.URL), mf, artifactPath)
	require.NoError(t, p.Run(context.Background()))

	got, err := dataset.Read(artifactPath)
	require.NoError(t, err)
	rec := got.Maps["surface_temperature"]
	assert.Equal(t, "https://example.org/t2/2024/img_2024_d111.png", rec.SourceURL)
	assert.Equal(t, "2024-04-20", rec.Date)
	require.Len(t, got.MapWarnings, 1)
	assert.Contains(t, got.MapWarnings[0], "keeping previous snapshot")
}

func TestPipeline_Run_NotifierFailureIsNotFatal(t *testing.T) {
	freezeClocks(t)
	srv := feedServer(t, nil)
	artifactPath := filepath.Join(t.TempDir(), "climate_data.json")
	failing := &recordingNotifier{err: errors.New("broker unreachable")}

	p := testPipeline(t, testCatalog(srv.URL), nil, artifactPath, failing)
	require.NoError(t, p.Run(context.Background()))
	assert.FileExists(t, artifactPath)
	assert.Len(t, failing.artifacts, 1)
}

func TestPipeline_Watch(t *testing.T) {
	fake := freezeClocks(t)
	var hits atomic.Int64
	srv := feedServer(t, &hits)

	p := testPipeline(t, testCatalog(srv.URL), nil, filepath.Join(t.TempDir(), "climate_data.json"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Watch(ctx, 6*time.Hour)
	}()

	// First iteration has finished once the watcher parks on the interval.
	fake.BlockUntil(1)
	firstRun := hits.Load()
	assert.Equal(t, int64(2), firstRun)

	fake.Advance(6 * time.Hour)
	require.Eventually(t, func() bool { return hits.Load() > firstRun },
		5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
