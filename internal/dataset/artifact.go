package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

// Summary carries the headline numbers for one series so consumers can skip
// decoding the full point array.
type Summary struct {
	Points      int     `json:"points"`
	LatestDate  string  `json:"latestDate"`
	LatestValue float64 `json:"latestValue"`
}

// MapRecord references one snapshot image written next to the artifact.
type MapRecord struct {
	Path       string `json:"path"`
	SourceURL  string `json:"sourceUrl"`
	SourcePage string `json:"sourcePage"`
	Date       string `json:"date"`
}

// Artifact is the consolidated dataset produced by a pipeline run. It is
// built once per run and written whole; consumers never see a partially
// updated file.
type Artifact struct {
	GeneratedAtISO string                   `json:"generatedAtIso"`
	Sources        map[string]string        `json:"sources"`
	Series         map[string]domain.Series `json:"series"`
	Summary        map[string]Summary       `json:"summary"`
	Maps           map[string]MapRecord     `json:"maps"`
	MapWarnings    []string                 `json:"mapWarnings"`
}

// New returns an empty artifact stamped with the generation time in UTC.
func New(generatedAt time.Time) *Artifact {
	return &Artifact{
		GeneratedAtISO: generatedAt.UTC().Format(time.RFC3339),
		Sources:        make(map[string]string),
		Series:         make(map[string]domain.Series),
		Summary:        make(map[string]Summary),
		Maps:           make(map[string]MapRecord),
		MapWarnings:    []string{},
	}
}

// AddSeries stores a series with its provenance and computes the summary
// block from the stored points.
func (a *Artifact) AddSeries(key, provenance string, points domain.Series) {
	a.Sources[key] = provenance
	a.Series[key] = points
	latest, ok := points.Latest()
	if !ok {
		return
	}
	a.Summary[key] = Summary{
		Points:      len(points),
		LatestDate:  latest.Date.String(),
		LatestValue: latest.Value,
	}
}

// AddMap records a snapshot image entry.
func (a *Artifact) AddMap(key string, rec MapRecord) {
	a.Maps[key] = rec
}

// Write persists the artifact atomically: marshal into a temp file in the
// destination directory, then rename over the target. A failed run leaves
// the previous artifact untouched.
func (a *Artifact) Write(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Read loads a previously written artifact.
func Read(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return &a, nil
}
