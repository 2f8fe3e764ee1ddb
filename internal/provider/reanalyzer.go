package provider

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

// reanalyzerBaselineLabel tags the climatology row anomalies are computed
// against.
const reanalyzerBaselineLabel = "1991-2020"

var yearLabelRe = regexp.MustCompile(`^\d{4}$`)

// reanalyzerRow is one year (or reference period) of a Climate Reanalyzer
// daily payload. Data is either a JSON array of daily values or one
// CSV-encoded string; both use nulls or zeros for days without data.
type reanalyzerRow struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// ParseReanalyzerDaily flattens year-labeled rows of day-of-year values into
// daily points. Non-year rows (reference periods, sigma bands) are skipped.
func ParseReanalyzerDaily(data []byte) []domain.RawPoint {
	var rows []reanalyzerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil
	}

	var points []domain.RawPoint
	for _, row := range rows {
		if !yearLabelRe.MatchString(row.Name) {
			continue
		}
		year, err := strconv.Atoi(row.Name)
		if err != nil {
			continue
		}
		values, ok := rowValues(row.Data)
		if !ok {
			continue
		}
		points = append(points, yearPoints(year, trimPadding(values))...)
	}
	return points
}

// ParseReanalyzerAnomaly reads the same payload shape as
// ParseReanalyzerDaily but emits each value's departure from the 1991-2020
// baseline row, rounded to three decimals. Year rows ahead of the baseline
// row have nothing to resolve against and are skipped; without a baseline
// row the payload yields nothing.
func ParseReanalyzerAnomaly(data []byte) []domain.RawPoint {
	var rows []reanalyzerRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil
	}

	var baseline []float64
	var points []domain.RawPoint
	for _, row := range rows {
		if row.Name == reanalyzerBaselineLabel {
			if values, ok := rowValues(row.Data); ok {
				baseline = values
			}
			continue
		}
		if baseline == nil || !yearLabelRe.MatchString(row.Name) {
			continue
		}
		year, err := strconv.Atoi(row.Name)
		if err != nil {
			continue
		}
		values, ok := rowValues(row.Data)
		if !ok {
			continue
		}
		for i, v := range trimPadding(values) {
			if i >= len(baseline) || math.IsNaN(v) || math.IsNaN(baseline[i]) {
				continue
			}
			d, ok := DateFromYearDay(year, i+1)
			if !ok {
				continue
			}
			points = append(points, domain.RawPoint{
				Date:  d.String(),
				Value: round3(v - baseline[i]),
			})
		}
	}
	return points
}

// DateFromYearDay resolves a 1-based day-of-year within a year. Day 366
// only exists in leap years; anything that lands outside the year is
// rejected.
func DateFromYearDay(year, doy int) (domain.Date, bool) {
	if doy < 1 || doy > 366 {
		return domain.Date{}, false
	}
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	if t.Year() != year {
		return domain.Date{}, false
	}
	return domain.DateOf(t), true
}

func yearPoints(year int, values []float64) []domain.RawPoint {
	points := make([]domain.RawPoint, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d, ok := DateFromYearDay(year, i+1)
		if !ok {
			continue
		}
		points = append(points, domain.RawPoint{Date: d.String(), Value: v})
	}
	return points
}

// trimPadding drops the zero/null tail the provider pads incomplete years
// with.
func trimPadding(values []float64) []float64 {
	end := len(values)
	for end > 0 {
		v := values[end-1]
		if v != 0 && !math.IsNaN(v) {
			break
		}
		end--
	}
	return values[:end]
}

// rowValues decodes a row's data list, tolerating both wire encodings.
// Unparseable entries become NaN placeholders so indexes stay aligned with
// day-of-year.
func rowValues(raw json.RawMessage) ([]float64, bool) {
	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		out := make([]float64, len(arr))
		for i, v := range arr {
			out[i] = anyToFloat(v)
		}
		return out, true
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		fields := strings.Split(joined, ",")
		out := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				v = math.NaN()
			}
			out[i] = v
		}
		return out, true
	}
	return nil, false
}

func anyToFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
