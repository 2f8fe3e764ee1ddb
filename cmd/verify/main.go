// Command verify re-reads the dataset artifact from disk and checks it
// against the metric catalog: point counts, date ordering, value ranges,
// freshness, summary agreement, and the cross-series identities. Warnings
// print to stderr without affecting the exit code; any error exits 1.
//
// Usage:
//
//	go run ./cmd/verify
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/climate-dataset-etl/internal/config"
	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/pipeline"
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	path := cfg.ArtifactPath()
	report, err := dataset.VerifyFile(path, pipeline.DefaultCatalog().SeriesChecks())
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify %s: %v\n", path, err)
		return 1
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", e)
	}

	if !report.OK() {
		fmt.Fprintf(os.Stderr, "verification failed: %s: %d errors, %d warnings\n",
			path, len(report.Errors), len(report.Warnings))
		return 1
	}
	fmt.Printf("verification passed: %s (%d warnings)\n", path, len(report.Warnings))
	return 0
}
