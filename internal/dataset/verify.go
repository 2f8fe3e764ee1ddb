package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

const (
	minSeriesPoints    = 10
	summaryValueEps    = 1e-9
	seaIceIdentityEps  = 0.02
	maxMismatchReports = 5

	// Sparse-coverage warning applies only to feeds that update at least
	// monthly; slower feeds legitimately have few recent points.
	sparseDailyMaxAge = 31
	sparseWindowDays  = 365
	sparseMinPoints   = 5
)

// SeriesCheck names one series the artifact must carry and the policy its
// values are held to.
type SeriesCheck struct {
	Key    string
	Policy domain.Policy
}

// anomalyPairs maps each anomaly series to the absolute series its dates
// must align with.
var anomalyPairs = map[string]string{
	"sea_surface_temperature_anomaly":    "sea_surface_temperature",
	"global_surface_temperature_anomaly": "global_surface_temperature",
}

// Report is the outcome of a verification pass. Errors fail verification;
// warnings are informational only.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the pass found no errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// The verifier decodes with its own types instead of reusing Artifact so a
// writer-side marshalling bug cannot hide from it.
type rawArtifact struct {
	GeneratedAtISO string                     `json:"generatedAtIso"`
	Series         map[string]json.RawMessage `json:"series"`
	Summary        map[string]rawSummary      `json:"summary"`
}

type rawSummary struct {
	Points      int     `json:"points"`
	LatestDate  string  `json:"latestDate"`
	LatestValue float64 `json:"latestValue"`
}

type seriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// VerifyFile runs the verification pass over an artifact on disk.
func VerifyFile(path string, checks []SeriesCheck) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Verify(data, checks)
}

// Verify checks a serialized artifact against the configured series checks.
// A payload that is not an artifact at all is an error return; everything
// else lands in the report.
func Verify(data []byte, checks []SeriesCheck) (*Report, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	rep := &Report{}
	today := domain.Today()

	if _, err := time.Parse(time.RFC3339, raw.GeneratedAtISO); err != nil {
		rep.errorf("generatedAtIso %q is not a timestamp", raw.GeneratedAtISO)
	}

	parsed := make(map[string]domain.Series, len(checks))
	expected := make(map[string]bool, len(checks))
	for _, chk := range checks {
		expected[chk.Key] = true
		points, ok := decodeSeries(rep, &raw, chk.Key)
		if !ok {
			continue
		}
		verifySeries(rep, chk, points, today)
		verifySummary(rep, &raw, chk.Key, points)
		parsed[chk.Key] = points
	}

	var unknown []string
	for key := range raw.Series {
		if !expected[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		rep.warnf("series %s: present in artifact but not configured", key)
	}

	verifySeaIceIdentity(rep, parsed)
	for anomalyKey, absoluteKey := range anomalyPairs {
		verifyAnomalyAlignment(rep, parsed, anomalyKey, absoluteKey)
	}
	return rep, nil
}

func decodeSeries(rep *Report, raw *rawArtifact, key string) (domain.Series, bool) {
	msg, ok := raw.Series[key]
	if !ok {
		rep.errorf("series %s: missing from artifact", key)
		return nil, false
	}
	var pts []seriesPoint
	if err := json.Unmarshal(msg, &pts); err != nil {
		rep.errorf("series %s: not a point array: %v", key, err)
		return nil, false
	}

	points := make(domain.Series, 0, len(pts))
	invalid := 0
	for _, p := range pts {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			invalid++
			if invalid <= maxMismatchReports {
				rep.errorf("series %s: bad date %q", key, p.Date)
			}
			continue
		}
		points = append(points, domain.DailyPoint{Date: d, Value: p.Value})
	}
	if invalid > maxMismatchReports {
		rep.errorf("series %s: %d more bad dates", key, invalid-maxMismatchReports)
	}
	return points, true
}

func verifySeries(rep *Report, chk SeriesCheck, points domain.Series, today domain.Date) {
	key := chk.Key
	if len(points) < minSeriesPoints {
		rep.errorf("series %s: only %d points, need at least %d", key, len(points), minSeriesPoints)
	}

	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date.Time) {
			rep.errorf("series %s: dates not strictly increasing at %s", key, points[i].Date)
			break
		}
	}

	outOfRange := 0
	for _, p := range points {
		if p.Value < chk.Policy.Min || p.Value > chk.Policy.Max {
			outOfRange++
			if outOfRange <= maxMismatchReports {
				rep.errorf("series %s: value %v at %s outside [%v, %v]",
					key, p.Value, p.Date, chk.Policy.Min, chk.Policy.Max)
			}
		}
	}
	if outOfRange > maxMismatchReports {
		rep.errorf("series %s: %d more out-of-range values", key, outOfRange-maxMismatchReports)
	}

	latest, ok := points.Latest()
	if !ok {
		return
	}
	if latest.Date.After(today.Time) {
		rep.errorf("series %s: latest date %s is in the future", key, latest.Date)
	} else if age := today.DaysSince(latest.Date); age > chk.Policy.MaxAgeDays {
		rep.errorf("series %s: latest point %s is %d days old, max age %d",
			key, latest.Date, age, chk.Policy.MaxAgeDays)
	}

	if chk.Policy.MaxAgeDays <= sparseDailyMaxAge {
		cutoff := today.AddDays(-sparseWindowDays)
		recent := 0
		for _, p := range points {
			if p.Date.After(cutoff.Time) {
				recent++
			}
		}
		if recent < sparseMinPoints {
			rep.warnf("series %s: only %d points in the trailing %d days",
				key, recent, sparseWindowDays)
		}
	}
}

func verifySummary(rep *Report, raw *rawArtifact, key string, points domain.Series) {
	sum, ok := raw.Summary[key]
	if !ok {
		rep.errorf("summary %s: missing", key)
		return
	}
	if sum.Points != len(points) {
		rep.errorf("summary %s: claims %d points, series has %d", key, sum.Points, len(points))
	}
	latest, ok := points.Latest()
	if !ok {
		return
	}
	if sum.LatestDate != latest.Date.String() {
		rep.errorf("summary %s: claims latest %s, series ends %s", key, sum.LatestDate, latest.Date)
	}
	if math.Abs(sum.LatestValue-latest.Value) > summaryValueEps {
		rep.errorf("summary %s: claims latest value %v, series ends %v", key, sum.LatestValue, latest.Value)
	}
}

// verifySeaIceIdentity re-checks the merge arithmetic on overlapping dates.
func verifySeaIceIdentity(rep *Report, series map[string]domain.Series) {
	global := series["global_sea_ice_extent"]
	arctic := byDate(series["arctic_sea_ice_extent"])
	antarctic := byDate(series["antarctic_sea_ice_extent"])
	if len(global) == 0 || len(arctic) == 0 || len(antarctic) == 0 {
		return
	}

	mismatches := 0
	for _, p := range global {
		a, okA := arctic[p.Date.String()]
		b, okB := antarctic[p.Date.String()]
		if !okA || !okB {
			continue
		}
		if math.Abs(p.Value-(a+b)) > seaIceIdentityEps {
			mismatches++
			if mismatches <= maxMismatchReports {
				rep.errorf("global_sea_ice_extent: %s is %v, hemispheres sum to %v",
					p.Date, p.Value, a+b)
			}
		}
	}
	if mismatches > maxMismatchReports {
		rep.errorf("global_sea_ice_extent: %d more identity mismatches", mismatches-maxMismatchReports)
	}
}

func verifyAnomalyAlignment(rep *Report, series map[string]domain.Series, anomalyKey, absoluteKey string) {
	anomaly := series[anomalyKey]
	absolute := series[absoluteKey]
	if len(anomaly) == 0 || len(absolute) == 0 {
		return
	}

	absDates := byDate(absolute)
	missing := 0
	for _, p := range anomaly {
		if _, ok := absDates[p.Date.String()]; !ok {
			missing++
			if missing <= maxMismatchReports {
				rep.errorf("series %s: %s has no matching %s point", anomalyKey, p.Date, absoluteKey)
			}
		}
	}
	if missing > maxMismatchReports {
		rep.errorf("series %s: %d more unmatched dates", anomalyKey, missing-maxMismatchReports)
	}

	aLatest, _ := anomaly.Latest()
	bLatest, _ := absolute.Latest()
	if !aLatest.Date.Equal(bLatest.Date.Time) {
		rep.warnf("series %s: ends %s, %s ends %s", anomalyKey, aLatest.Date, absoluteKey, bLatest.Date)
	}
}

func byDate(points domain.Series) map[string]float64 {
	m := make(map[string]float64, len(points))
	for _, p := range points {
		m[p.Date.String()] = p.Value
	}
	return m
}
