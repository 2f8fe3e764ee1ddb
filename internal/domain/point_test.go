package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("valid calendar day", func(t *testing.T) {
		d, err := ParseDate("2024-03-15")
		require.NoError(t, err)
		assert.Equal(t, NewDate(2024, time.March, 15), d)
	})

	t.Run("rejects wrong shapes", func(t *testing.T) {
		for _, s := range []string{"", "2024-3-15", "03/15/2024", "2024-03-15T00:00:00Z", "20240315", "not a date"} {
			_, err := ParseDate(s)
			assert.Error(t, err, "input %q", s)
		}
	})

	t.Run("rejects impossible days", func(t *testing.T) {
		_, err := ParseDate("2023-02-29")
		assert.Error(t, err)
		_, err = ParseDate("2024-13-01")
		assert.Error(t, err)
	})

	t.Run("accepts leap day in leap years", func(t *testing.T) {
		d, err := ParseDate("2024-02-29")
		require.NoError(t, err)
		assert.Equal(t, 60, d.DayOfYear())
	})
}

func TestDateJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		out, err := json.Marshal(NewDate(2024, time.January, 2))
		require.NoError(t, err)
		assert.Equal(t, `"2024-01-02"`, string(out))

		var d Date
		require.NoError(t, json.Unmarshal(out, &d))
		assert.Equal(t, "2024-01-02", d.String())
	})

	t.Run("rejects non-date strings", func(t *testing.T) {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
		assert.Error(t, json.Unmarshal([]byte(`42`), &d))
	})
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-02-27", d.AddDays(-1).String())
	assert.Equal(t, 366, NewDate(2025, time.February, 28).DaysSince(d))
	assert.Equal(t, 0, d.DaysSince(d))
}

func TestNormalize(t *testing.T) {
	t.Run("sorts ascending by date", func(t *testing.T) {
		got := Normalize([]RawPoint{
			{Date: "2024-01-03", Value: 3},
			{Date: "2024-01-01", Value: 1},
			{Date: "2024-01-02", Value: 2},
		})
		require.Len(t, got, 3)
		assert.Equal(t, "2024-01-01", got[0].Date.String())
		assert.Equal(t, "2024-01-02", got[1].Date.String())
		assert.Equal(t, "2024-01-03", got[2].Date.String())
	})

	t.Run("duplicate dates collapse last-write-wins", func(t *testing.T) {
		got := Normalize([]RawPoint{
			{Date: "2024-01-01", Value: 10.0},
			{Date: "2024-01-01", Value: 12.0},
		})
		require.Len(t, got, 1)
		assert.Equal(t, 12.0, got[0].Value)
	})

	t.Run("drops invalid dates and non-finite values", func(t *testing.T) {
		nan := math.NaN()
		got := Normalize([]RawPoint{
			{Date: "2024-01-01", Value: 1},
			{Date: "2024-1-1", Value: 2},
			{Date: "2023-02-29", Value: 3},
			{Date: "2024-01-02", Value: nan},
			{Date: "2024-01-03", Value: math.Inf(1)},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "2024-01-01", got[0].Date.String())
	})

	t.Run("idempotent", func(t *testing.T) {
		first := Normalize([]RawPoint{
			{Date: "2024-01-02", Value: 2},
			{Date: "2024-01-01", Value: 1},
			{Date: "2024-01-01", Value: 1.5},
			{Date: "bogus", Value: 9},
		})

		again := make([]RawPoint, len(first))
		for i, p := range first {
			again[i] = RawPoint{Date: p.Date.String(), Value: p.Value}
		}
		second := Normalize(again)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("normalize not idempotent (-first +second):\n%s", diff)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Normalize(nil))
	})
}

func TestSeriesLatest(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		_, ok := Series{}.Latest()
		assert.False(t, ok)
	})

	t.Run("returns final point", func(t *testing.T) {
		s := Normalize([]RawPoint{
			{Date: "2024-01-01", Value: 1},
			{Date: "2024-01-05", Value: 5},
		})
		latest, ok := s.Latest()
		require.True(t, ok)
		assert.Equal(t, "2024-01-05", latest.Date.String())
		assert.Equal(t, 5.0, latest.Value)
	})
}
