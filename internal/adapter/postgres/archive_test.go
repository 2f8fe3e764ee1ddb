package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

func TestRunSeriesRows(t *testing.T) {
	artifact := dataset.New(time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC))
	artifact.AddSeries("sea_level", "NOAA STAR", domain.Series{
		{Date: domain.NewDate(2024, 4, 1), Value: 61.5},
	})
	artifact.AddSeries("co2_concentration", "NOAA GML", domain.Series{
		{Date: domain.NewDate(2024, 4, 29), Value: 421.9},
		{Date: domain.NewDate(2024, 4, 30), Value: 422.1},
	})

	rows := runSeriesRows(artifact)

	assert.Equal(t, []seriesRow{
		{Metric: "co2_concentration", Points: 2, LatestDate: "2024-04-30", LatestValue: 422.1},
		{Metric: "sea_level", Points: 1, LatestDate: "2024-04-01", LatestValue: 61.5},
	}, rows)
}

func TestRunSeriesRows_Empty(t *testing.T) {
	artifact := dataset.New(time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC))

	assert.Empty(t, runSeriesRows(artifact))
}
