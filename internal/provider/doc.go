// Package provider parses the wire formats of every upstream climate feed
// into raw (date, value) points.
//
// Every parser is a pure function from a payload to a point list. Parsers
// never fail on a single bad row: malformed rows, headers, prose banners,
// and sentinel values simply produce fewer points. Date validation is NOT a
// parser concern; parsers emit date strings and the domain normalizer
// rejects anything that is not a real calendar day.
//
// # Feed Conventions
//
// Climate Reanalyzer daily JSON (air and sea surface temperature):
//
//	[{"name": "1979", "data": [v, v, ...]}, {"name": "1991-2020", ...}]
//	Row labels are 4-digit years or reference-period strings. Values index
//	by day-of-year starting January 1; incomplete years are padded with
//	trailing zeros (sometimes nulls), which are trimmed before use. Some
//	mirrors CSV-encode the data list as one comma-joined string.
//	The "1991-2020" row is the day-of-year climatology; anomaly rows
//	resolve as value minus baseline at the same index, rounded to three
//	decimals. Year rows seen before the baseline row cannot be resolved
//	and are skipped.
//
// NSIDC sea ice extent CSV (per hemisphere):
//
//	Year, Month, Day, Extent, Missing, Source Data
//	Header and units rows fail the numeric year check and drop out. The
//	extent column has drifted across product versions, so columns 3..5
//	are scanned and the first value inside (0, 100) million km² wins.
//
// NOAA GML trend CSVs (CO2 daily, CH4 monthly):
//
//	year,month[,day],then value columns. '#' lines are comments. CO2 scans
//	columns 3..5 for the first value in (0, 1000) ppm. CH4 prefers the
//	average column and falls back to the trend column, accepting only
//	(500, 5000) ppb; the -999.99 sentinel falls outside every window.
//	Monthly values land on the first of the month.
//
// NOAA AGGI annual table:
//
//	Prose banner, then a header row carrying "Year" and either an "AGGI"
//	column or the "1990 = 1" column depending on vintage. Columns are
//	resolved by name; without a recognizable header the file yields
//	nothing. Annual values land on January 1.
//
// NCEI ocean heat content CSV:
//
//	Either bare (date, value) rows or a headered table; the first row
//	decides. Date tokens appear as ISO days, "YYYY-M" months, "M/D/YYYY"
//	US dates, or decimal years like 1955.375.
//
// Global mean sea level text:
//
//	Whitespace-delimited "decimalYear value" rows in millimeters. Header
//	lines fail the numeric checks and drop out.
//
// ECMWF Climate Pulse daily CSV (ERA5 temperature anomaly):
//
//	Headered CSV with a "date" column and an "ano_91-20" column. Values
//	are shifted by +0.88 °C, the published offset from the 1991-2020
//	baseline to the 1850-1900 preindustrial one.
//
// # Decimal Years
//
// Several feeds timestamp with fractional years. The fraction resolves the
// month only (floor(frac*12)+1, clamped to December) and the day pins to
// the 1st: the source format has no day precision and none is invented.
package provider
