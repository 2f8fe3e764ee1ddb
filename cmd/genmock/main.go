// Command genmock writes a synthetic dataset artifact so the verifier and
// downstream consumers can be exercised without hitting any provider. It
// builds the artifact with the real metric catalog, derivation builders, and
// assembly code, so derived series and summaries match actual pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/climate_data.json
//	go run ./cmd/verify
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
	"github.com/couchcryptid/climate-dataset-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/climate_data.json", "output path for the artifact")
	days := flag.Int("days", 400, "days of history for daily series")
	seed := flag.Int64("seed", 1, "random seed for reproducible values")
	flag.Parse()

	if *days < 10 {
		return fmt.Errorf("-days must be at least 10, got %d", *days)
	}

	rng := rand.New(rand.NewSource(*seed))
	catalog := pipeline.DefaultCatalog()
	today := domain.Today()

	byKey := make(map[string]domain.Series, len(catalog.Sources)+len(catalog.Derived))
	for _, src := range catalog.Sources {
		byKey[src.Key] = synthesize(rng, src, today, *days)
		log.Printf("%s: %d points", src.Key, len(byKey[src.Key]))
	}
	for _, d := range catalog.Derived {
		byKey[d.Key] = domain.Sanitize(d.Build(byKey), d.Policy)
		log.Printf("%s: %d points (derived)", d.Key, len(byKey[d.Key]))
	}

	artifact := dataset.New(time.Now())
	for _, src := range catalog.Sources {
		artifact.AddSeries(src.Key, "synthetic: "+src.Provenance, byKey[src.Key])
	}
	for _, d := range catalog.Derived {
		artifact.AddSeries(d.Key, "synthetic: "+d.Provenance, byKey[d.Key])
	}

	if err := artifact.Write(*out); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	log.Printf("wrote artifact: %s", *out)

	printStats(artifact)
	return nil
}

// synthesize produces a plausible series inside the policy range, at the
// cadence the feed's max age implies: daily feeds get -days of history,
// monthly feeds ten years, annual feeds thirty.
func synthesize(rng *rand.Rand, src pipeline.Source, today domain.Date, days int) domain.Series {
	var dates []domain.Date
	switch {
	case src.Policy.MaxAgeDays <= 31:
		start := today.AddDays(-(days - 1))
		if src.Key == "sea_surface_temperature" {
			// Reach back through the 1991-2020 anomaly baseline so the
			// derived climatology has samples for every day of year.
			start = domain.NewDate(1991, time.January, 1)
		}
		for d := start; !d.Time.After(today.Time); d = d.AddDays(1) {
			dates = append(dates, d)
		}
	case src.Policy.MaxAgeDays <= 400:
		for i := 119; i >= 0; i-- {
			dates = append(dates, domain.NewDate(today.Year(), today.Month()-time.Month(i), 1))
		}
	default:
		for y := today.Year() - 29; y <= today.Year(); y++ {
			dates = append(dates, domain.NewDate(y, time.January, 1))
		}
	}

	mid := (src.Policy.Min + src.Policy.Max) / 2
	span := src.Policy.Max - src.Policy.Min
	points := make(domain.Series, 0, len(dates))
	for _, d := range dates {
		seasonal := 0.25 * span * math.Sin(2*math.Pi*float64(d.DayOfYear())/365)
		jitter := (rng.Float64() - 0.5) * 0.05 * span
		v := mid + seasonal + jitter
		points = append(points, domain.DailyPoint{Date: d, Value: math.Round(v*1000) / 1000})
	}
	return points
}

func printStats(artifact *dataset.Artifact) {
	keys := make([]string, 0, len(artifact.Summary))
	for key := range artifact.Summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Println("\n=== Synthetic dataset ===")
	fmt.Printf("Generated: %s\n", artifact.GeneratedAtISO)
	for _, key := range keys {
		s := artifact.Summary[key]
		fmt.Printf("  %-40s %6d points   latest %s  %.3f\n", key, s.Points, s.LatestDate, s.LatestValue)
	}
	fmt.Println("\nRun ./cmd/verify against it to exercise the checks.")
}
