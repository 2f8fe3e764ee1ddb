package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"time"
)

// dateRe is the only wire form a point date may take.
var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a UTC calendar day. It marshals to and from "YYYY-MM-DD".
type Date struct {
	time.Time
}

// ParseDate parses a strict YYYY-MM-DD calendar day.
func ParseDate(s string) (Date, error) {
	if !dateRe.MatchString(s) {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func (d Date) String() string { return d.Format("2006-01-02") }

// MarshalJSON encodes the day as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" day.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the day n days after d; negative n steps backward.
func (d Date) AddDays(n int) Date { return Date{d.AddDate(0, 0, n)} }

// DaysSince returns the whole days elapsed from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time.Sub(other.Time) / (24 * time.Hour))
}

// DayOfYear is the 1..366 climatology bucket key for d.
func (d Date) DayOfYear() int { return d.YearDay() }

// RawPoint is a provider observation before normalization: the date still in
// its wire form, the value already coerced to a float.
type RawPoint struct {
	Date  string
	Value float64
}

// DailyPoint is one normalized observation.
type DailyPoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// Series is the ordered run of daily points for one metric. A normalized
// series has unique, strictly ascending dates.
type Series []DailyPoint

// Latest returns the most recent point of a normalized series.
func (s Series) Latest() (DailyPoint, bool) {
	if len(s) == 0 {
		return DailyPoint{}, false
	}
	return s[len(s)-1], true
}

// Normalize reduces raw provider points to a clean series. Duplicate dates
// collapse last-write-wins, with input order as the documented tie-break.
// Every surviving entry must carry a YYYY-MM-DD calendar day and a finite
// value, and the result sorts ascending by date. Pure; no I/O.
func Normalize(points []RawPoint) Series {
	byDate := make(map[string]float64, len(points))
	for _, p := range points {
		byDate[p.Date] = p.Value
	}

	out := make(Series, 0, len(byDate))
	for s, v := range byDate {
		d, err := ParseDate(s)
		if err != nil || !isFinite(v) {
			continue
		}
		out = append(out, DailyPoint{Date: d, Value: v})
	}
	slices.SortFunc(out, func(a, b DailyPoint) int {
		return cmp.Compare(a.Date.Unix(), b.Date.Unix())
	})
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
