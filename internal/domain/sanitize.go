package domain

// Policy bounds one metric's plausible values and freshness. Min and Max are
// inclusive; MaxAgeDays is the most days the latest point may trail today
// before the series is considered dead.
type Policy struct {
	Min        float64
	Max        float64
	MaxAgeDays int
}

// Sanitize gates a normalized series through a per-metric policy. Points
// outside [Min, Max] or dated after today are dropped, the survivors are
// re-normalized, and finally the staleness gate runs: if the latest survivor
// is older than MaxAgeDays the whole series empties. A stale series reads as
// "still updating" to consumers, so it is withheld entirely rather than
// truncated.
func Sanitize(points Series, policy Policy) Series {
	today := Today()

	kept := make([]RawPoint, 0, len(points))
	for _, p := range points {
		if p.Value < policy.Min || p.Value > policy.Max {
			continue
		}
		if p.Date.After(today.Time) {
			continue
		}
		kept = append(kept, RawPoint{Date: p.Date.String(), Value: p.Value})
	}

	clean := Normalize(kept)
	if len(clean) == 0 {
		return nil
	}
	latest := clean[len(clean)-1]
	if today.DaysSince(latest.Date) > policy.MaxAgeDays {
		return nil
	}
	return clean
}
