package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

func TestParseNCEIOceanHeat(t *testing.T) {
	t.Run("bare date value pairs read positionally", func(t *testing.T) {
		data := []byte(`2023-01-15,23.45
2023-04-15,23.61`)
		got := ParseNCEIOceanHeat(data)
		require.Len(t, got, 2)
		assert.Equal(t, domain.RawPoint{Date: "2023-01-15", Value: 23.45}, got[0])
		assert.Equal(t, domain.RawPoint{Date: "2023-04-15", Value: 23.61}, got[1])
	})

	t.Run("decimal year pairs resolve to first of month", func(t *testing.T) {
		data := []byte(`1955.5,2.3
1956.125,3.1`)
		got := ParseNCEIOceanHeat(data)
		require.Len(t, got, 2)
		assert.Equal(t, domain.RawPoint{Date: "1955-07-01", Value: 2.3}, got[0])
		assert.Equal(t, domain.RawPoint{Date: "1956-02-01", Value: 3.1}, got[1])
	})

	t.Run("US dates read positionally", func(t *testing.T) {
		data := []byte(`3/15/2024,20.1`)
		got := ParseNCEIOceanHeat(data)
		require.Len(t, got, 1)
		assert.Equal(t, "2024-03-15", got[0].Date)
	})

	t.Run("headered layout resolves columns by name", func(t *testing.T) {
		data := []byte(`Date,OHC (10^22 J)
2020-01-15,15.2
bogus,16.0
2020-04,16.4`)
		got := ParseNCEIOceanHeat(data)
		require.Len(t, got, 2)
		assert.Equal(t, domain.RawPoint{Date: "2020-01-15", Value: 15.2}, got[0])
		assert.Equal(t, domain.RawPoint{Date: "2020-04-01", Value: 16.4}, got[1])
	})

	t.Run("year header counts as a date column", func(t *testing.T) {
		data := []byte(`Year,Heat Content
2021,18.2`)
		got := ParseNCEIOceanHeat(data)
		require.Len(t, got, 1)
		assert.Equal(t, domain.RawPoint{Date: "2021-01-01", Value: 18.2}, got[0])
	})

	t.Run("no date column means no points", func(t *testing.T) {
		data := []byte(`foo,bar
1,2`)
		assert.Nil(t, ParseNCEIOceanHeat(data))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ParseNCEIOceanHeat(nil))
	})
}

func TestParseDateToken(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  string
		ok    bool
	}{
		{"ISO day", "2024-03-15", "2024-03-15", true},
		{"year month", "2024-3", "2024-03-01", true},
		{"US date", "3/15/2024", "2024-03-15", true},
		{"decimal year January", "1993.0417", "1993-01-01", true},
		{"decimal year mid-month boundary", "1955.375", "1955-05-01", true},
		{"decimal year end of year", "2024.999", "2024-12-01", true},
		{"small float is not a year", "9.99", "", false},
		{"far future year", "2210.5", "", false},
		{"month 13", "2024-13", "", false},
		{"prose", "Date", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := parseDateToken(tc.token)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, d.String())
			}
		})
	}
}
