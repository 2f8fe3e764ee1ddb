package domain

import "math"

// BuildClimatology averages a series into day-of-year buckets over the years
// [startYear, endYear]. Buckets with fewer than minSamples observations are
// omitted from the result; minSamples below 1 is treated as 1.
func BuildClimatology(points Series, startYear, endYear, minSamples int) map[int]float64 {
	if minSamples < 1 {
		minSamples = 1
	}
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, p := range points {
		year := p.Date.Year()
		if year < startYear || year > endYear {
			continue
		}
		doy := p.Date.DayOfYear()
		sums[doy] += p.Value
		counts[doy]++
	}

	baseline := make(map[int]float64, len(counts))
	for doy, n := range counts {
		if n < minSamples {
			continue
		}
		baseline[doy] = sums[doy] / float64(n)
	}
	return baseline
}

// AnomalyFrom subtracts the day-of-year baseline from every point. Points
// whose day-of-year has no baseline entry are dropped. Values round to three
// decimals, matching the precision of the provider anomaly feeds.
func AnomalyFrom(points Series, baseline map[int]float64) Series {
	out := make(Series, 0, len(points))
	for _, p := range points {
		base, ok := baseline[p.Date.DayOfYear()]
		if !ok {
			continue
		}
		out = append(out, DailyPoint{Date: p.Date, Value: round3(p.Value - base)})
	}
	return out
}

// MergeSum intersects two normalized series by date and sums their values.
// Dates present on only one side are dropped: a half-summed point would
// break any identity derived from the merge.
func MergeSum(a, b Series) Series {
	other := make(map[string]float64, len(b))
	for _, p := range b {
		other[p.Date.String()] = p.Value
	}

	out := make(Series, 0, min(len(a), len(b)))
	for _, p := range a {
		v, ok := other[p.Date.String()]
		if !ok {
			continue
		}
		out = append(out, DailyPoint{Date: p.Date, Value: p.Value + v})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
