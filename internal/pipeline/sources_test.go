package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c.Sources, 11)
	require.Len(t, c.Derived, 2)

	seen := make(map[string]bool)
	for _, s := range c.Sources {
		assert.False(t, seen[s.Key], "duplicate key %s", s.Key)
		seen[s.Key] = true
		assert.True(t, strings.HasPrefix(s.URL, "https://"), "%s should use https", s.Key)
		assert.NotNil(t, s.Parse, "%s needs a parser", s.Key)
		assert.NotEmpty(t, s.Provenance, "%s needs provenance", s.Key)
		assert.Less(t, s.Policy.Min, s.Policy.Max, "%s range is inverted", s.Key)
		assert.Positive(t, s.Policy.MaxAgeDays, "%s needs a max age", s.Key)
	}
	for _, d := range c.Derived {
		assert.False(t, seen[d.Key], "duplicate key %s", d.Key)
		seen[d.Key] = true
		assert.NotNil(t, d.Build, "%s needs a builder", d.Key)
		assert.True(t, strings.HasPrefix(d.Provenance, "derived:"), "%s provenance", d.Key)
	}

	keys := c.RequiredKeys()
	require.Len(t, keys, 13)
	assert.Equal(t, "global_surface_temperature", keys[0])
	assert.Contains(t, keys, "global_sea_ice_extent")

	checks := c.SeriesChecks()
	require.Len(t, checks, len(keys))
	for i, chk := range checks {
		assert.Equal(t, keys[i], chk.Key)
	}
}

func days(t *testing.T, start string, n int, value float64) domain.Series {
	t.Helper()
	d, err := domain.ParseDate(start)
	require.NoError(t, err)
	series := make(domain.Series, n)
	for i := range series {
		series[i] = domain.DailyPoint{Date: d.AddDays(i), Value: value}
	}
	return series
}

func derivedSource(t *testing.T, c Catalog, key string) DerivedSource {
	t.Helper()
	for _, d := range c.Derived {
		if d.Key == key {
			return d
		}
	}
	t.Fatalf("derived source %s not in catalog", key)
	return DerivedSource{}
}

func TestDefaultCatalog_GlobalSeaIceBuilder(t *testing.T) {
	build := derivedSource(t, DefaultCatalog(), "global_sea_ice_extent").Build

	byKey := map[string]domain.Series{
		"arctic_sea_ice_extent": {
			{Date: domain.NewDate(2020, 1, 1), Value: 10.0},
		},
		"antarctic_sea_ice_extent": {
			{Date: domain.NewDate(2020, 1, 1), Value: 5.0},
			{Date: domain.NewDate(2020, 1, 2), Value: 4.0},
		},
	}
	got := build(byKey)
	require.Len(t, got, 1)
	assert.Equal(t, "2020-01-01", got[0].Date.String())
	assert.Equal(t, 15.0, got[0].Value)
}

func TestDefaultCatalog_SSTAnomalyBuilder(t *testing.T) {
	build := derivedSource(t, DefaultCatalog(), "sea_surface_temperature_anomaly").Build

	// Ten January days inside the baseline window plus five recent days
	// half a degree warmer.
	sst := append(days(t, "1991-01-01", 10, 20.0), days(t, "2024-01-01", 5, 20.5)...)
	got := build(map[string]domain.Series{"sea_surface_temperature": sst})

	require.Len(t, got, 15)
	assert.Equal(t, 0.0, got[0].Value)
	latest, ok := got.Latest()
	require.True(t, ok)
	assert.Equal(t, "2024-01-05", latest.Date.String())
	assert.Equal(t, 0.5, latest.Value)
}
