package provider

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

var yearMonthRe = regexp.MustCompile(`^\d{4}-\d{1,2}$`)

// parseDateToken accepts the date spellings seen across provider files: ISO
// days, "YYYY-M" months, US "M/D/YYYY" dates, and decimal years.
func parseDateToken(s string) (domain.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Date{}, false
	}

	if d, err := domain.ParseDate(s); err == nil {
		return d, true
	}

	if yearMonthRe.MatchString(s) {
		parts := strings.SplitN(s, "-", 2)
		year, _ := strconv.Atoi(parts[0])
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return domain.Date{}, false
		}
		return domain.NewDate(year, time.Month(month), 1), true
	}

	if t, err := time.Parse("1/2/2006", s); err == nil {
		return domain.DateOf(t), true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return dateFromDecimalYear(f)
	}
	return domain.Date{}, false
}

// dateFromDecimalYear converts e.g. 1993.0417 to 1993-01-01. The fraction
// resolves the month only; the source format carries no day precision, so
// the day pins to the 1st. Years outside a sane observational window are
// rejected so stray numeric cells cannot masquerade as dates.
func dateFromDecimalYear(f float64) (domain.Date, bool) {
	if f < 1800 || f >= 2200 {
		return domain.Date{}, false
	}
	year := int(f)
	month := 1 + int((f-float64(year))*12)
	if month > 12 {
		month = 12
	}
	return domain.NewDate(year, time.Month(month), 1), true
}
