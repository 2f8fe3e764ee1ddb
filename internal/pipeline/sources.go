package pipeline

import (
	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
	"github.com/couchcryptid/climate-dataset-etl/internal/fetch"
	"github.com/couchcryptid/climate-dataset-etl/internal/provider"
)

// Source is one fetched metric: where it comes from, how the payload turns
// into points, and the policy the points must satisfy.
type Source struct {
	Key        string
	URL        string
	Kind       fetch.Kind
	Parse      func([]byte) []domain.RawPoint
	Policy     domain.Policy
	Provenance string
}

// DerivedSource is a metric computed from already-sanitized series.
type DerivedSource struct {
	Key        string
	Policy     domain.Policy
	Provenance string
	Build      func(byKey map[string]domain.Series) domain.Series
}

// Catalog is the metric table for a run. The completeness check, assembly
// order, and verifier checks all derive from it, so adding a metric here is
// the whole job.
type Catalog struct {
	Sources []Source
	Derived []DerivedSource
}

// RequiredKeys lists every metric the artifact must carry.
func (c Catalog) RequiredKeys() []string {
	keys := make([]string, 0, len(c.Sources)+len(c.Derived))
	for _, s := range c.Sources {
		keys = append(keys, s.Key)
	}
	for _, d := range c.Derived {
		keys = append(keys, d.Key)
	}
	return keys
}

// SeriesChecks exposes the catalog to the artifact verifier.
func (c Catalog) SeriesChecks() []dataset.SeriesCheck {
	checks := make([]dataset.SeriesCheck, 0, len(c.Sources)+len(c.Derived))
	for _, s := range c.Sources {
		checks = append(checks, dataset.SeriesCheck{Key: s.Key, Policy: s.Policy})
	}
	for _, d := range c.Derived {
		checks = append(checks, dataset.SeriesCheck{Key: d.Key, Policy: d.Policy})
	}
	return checks
}

// DefaultCatalog is the production metric table. Value ranges are generous
// physical-plausibility bounds, not statistical envelopes; max ages follow
// each provider's publishing cadence with slack for holidays and outages.
func DefaultCatalog() Catalog {
	return Catalog{
		Sources: []Source{
			{
				Key:        "global_surface_temperature",
				URL:        "https://climatereanalyzer.org/clim/t2_daily/json/cfsr_world_t2_day.json",
				Kind:       fetch.KindJSON,
				Parse:      provider.ParseReanalyzerDaily,
				Policy:     domain.Policy{Min: -10, Max: 30, MaxAgeDays: 10},
				Provenance: "https://climatereanalyzer.org/clim/t2_daily/",
			},
			{
				Key:        "global_surface_temperature_anomaly",
				URL:        "https://climatereanalyzer.org/clim/t2_daily/json/cfsr_world_t2_day.json",
				Kind:       fetch.KindJSON,
				Parse:      provider.ParseReanalyzerAnomaly,
				Policy:     domain.Policy{Min: -10, Max: 10, MaxAgeDays: 10},
				Provenance: "https://climatereanalyzer.org/clim/t2_daily/",
			},
			{
				Key:        "sea_surface_temperature",
				URL:        "https://climatereanalyzer.org/clim/sst_daily/json/oisst2.1_world2_sst_day.json",
				Kind:       fetch.KindJSON,
				Parse:      provider.ParseReanalyzerDaily,
				Policy:     domain.Policy{Min: 0, Max: 30, MaxAgeDays: 10},
				Provenance: "https://climatereanalyzer.org/clim/sst_daily/",
			},
			{
				Key:        "arctic_sea_ice_extent",
				URL:        "https://noaadata.apps.nsidc.org/NOAA/G02135/north/daily/data/N_seaice_extent_daily_v3.0.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseNSIDCExtent,
				Policy:     domain.Policy{Min: 0, Max: 30, MaxAgeDays: 10},
				Provenance: "https://nsidc.org/data/seaice_index",
			},
			{
				Key:        "antarctic_sea_ice_extent",
				URL:        "https://noaadata.apps.nsidc.org/NOAA/G02135/south/daily/data/S_seaice_extent_daily_v3.0.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseNSIDCExtent,
				Policy:     domain.Policy{Min: 0, Max: 30, MaxAgeDays: 10},
				Provenance: "https://nsidc.org/data/seaice_index",
			},
			{
				Key:        "co2_concentration",
				URL:        "https://gml.noaa.gov/webdata/ccgg/trends/co2/co2_trend_gl.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseNOAACO2Daily,
				Policy:     domain.Policy{Min: 300, Max: 600, MaxAgeDays: 30},
				Provenance: "https://gml.noaa.gov/ccgg/trends/",
			},
			{
				Key:        "ch4_concentration",
				URL:        "https://gml.noaa.gov/webdata/ccgg/trends/ch4/ch4_mm_gl.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseNOAACH4Monthly,
				Policy:     domain.Policy{Min: 1500, Max: 2500, MaxAgeDays: 365},
				Provenance: "https://gml.noaa.gov/ccgg/trends_ch4/",
			},
			{
				Key:        "greenhouse_gas_index",
				URL:        "https://gml.noaa.gov/aggi/AGGI_Table.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseNOAAAGGIAnnual,
				Policy:     domain.Policy{Min: 0.5, Max: 2.5, MaxAgeDays: 800},
				Provenance: "https://gml.noaa.gov/aggi/aggi.html",
			},
			{
				Key:        "ocean_heat_content",
				URL:        "https://www.ncei.noaa.gov/data/oceans/woa/DATA_ANALYSIS/3M_HEAT_CONTENT/DATA/basin/yearly/ohc_levitus_climdash_seasonal.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseNCEIOceanHeat,
				Policy:     domain.Policy{Min: -20, Max: 100, MaxAgeDays: 800},
				Provenance: "https://www.ncei.noaa.gov/products/ocean-heat-salt-sea-level",
			},
			{
				Key:        "sea_level",
				URL:        "https://sealevel.colorado.edu/files/current/sl_ns_global.txt",
				Kind:       fetch.KindText,
				Parse:      provider.ParseSeaLevelText,
				Policy:     domain.Policy{Min: -100, Max: 150, MaxAgeDays: 400},
				Provenance: "https://sealevel.colorado.edu/",
			},
			{
				Key:        "era5_surface_temperature_anomaly",
				URL:        "https://sites.ecmwf.int/data/climatepulse/data/series/era5_daily_series_2t_global.csv",
				Kind:       fetch.KindText,
				Parse:      provider.ParseClimatePulse,
				Policy:     domain.Policy{Min: -2, Max: 4, MaxAgeDays: 10},
				Provenance: "https://pulse.climate.copernicus.eu/",
			},
		},
		Derived: []DerivedSource{
			{
				Key:        "sea_surface_temperature_anomaly",
				Policy:     domain.Policy{Min: -5, Max: 5, MaxAgeDays: 10},
				Provenance: "derived: sea_surface_temperature minus 1991-2020 day-of-year mean",
				Build: func(byKey map[string]domain.Series) domain.Series {
					sst := byKey["sea_surface_temperature"]
					baseline := domain.BuildClimatology(sst, 1991, 2020, 1)
					return domain.AnomalyFrom(sst, baseline)
				},
			},
			{
				Key:        "global_sea_ice_extent",
				Policy:     domain.Policy{Min: 0, Max: 60, MaxAgeDays: 10},
				Provenance: "derived: arctic_sea_ice_extent + antarctic_sea_ice_extent on overlapping dates",
				Build: func(byKey map[string]domain.Series) domain.Series {
					return domain.MergeSum(byKey["arctic_sea_ice_extent"], byKey["antarctic_sea_ice_extent"])
				},
			},
		},
	}
}
