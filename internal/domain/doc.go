// Package domain models the normalized daily time series that every climate
// feed is reduced to, and the policy gates a series must pass before the
// dataset will carry it.
//
// # Series Model
//
// All providers, whatever their wire format, reduce to the same shape: a
// list of (date, value) observations. Dates are UTC calendar days in strict
// "YYYY-MM-DD" form; sub-day precision is never carried because no upstream
// feed reliably publishes it. A normalized [Series] has unique, strictly
// ascending dates and only finite values. [Normalize] is the single funnel
// that establishes those invariants:
//
//   - duplicate dates collapse last-write-wins (input order is the tie-break,
//     so corrected provider rows later in a file beat earlier ones)
//   - entries whose date is not a real "YYYY-MM-DD" calendar day are dropped
//   - NaN and infinite values are dropped
//   - the survivors sort ascending by date
//
// # Sanitization
//
// Provider feeds carry sentinel values (-999.99), placeholder zeros, and
// occasionally rows dated in the future. [Sanitize] applies a per-metric
// [Policy] after normalization:
//
//	Range:     values outside [Min, Max] are dropped point-by-point.
//	Future:    points dated after today are dropped. No tolerance: a
//	           future-dated observation is always a provider defect.
//	Staleness: if the latest surviving point is older than MaxAgeDays,
//	           the WHOLE series empties. All-or-nothing, because a series
//	           that silently stopped updating misleads more than a gap.
//
// "Today" comes from the package clock so tests can freeze it; see
// [SetClock].
//
// # Climatology and Derived Series
//
// Some published metrics do not arrive from any feed and are derived here:
//
//	Anomaly: [BuildClimatology] buckets a series by day-of-year (1..366)
//	         and averages each bucket over a baseline window of years.
//	         [AnomalyFrom] then subtracts the bucket mean from every point.
//	         Points whose day-of-year has no baseline are dropped rather
//	         than guessed.
//	Sum:     [MergeSum] intersects two series by date and adds the values,
//	         used to combine hemispheric sea-ice extents into a global one.
//	         Dates present on only one side are dropped so the identity
//	         global = north + south holds on every published date.
//
// Derived output re-enters the same Normalize/Sanitize funnel as fetched
// data; nothing reaches the dataset around the gates.
package domain
