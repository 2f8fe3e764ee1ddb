package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

// CH4 plausibility window in ppb; NOAA's -999.99 sentinel falls outside it.
const (
	ch4Min = 500
	ch4Max = 5000
)

// ParseNSIDCExtent reads an NSIDC daily sea-ice extent CSV. The extent
// column has drifted across product versions, so columns 3..5 are scanned
// and the first value inside (0, 100) million km² wins. Header and units
// rows fail the numeric year check and drop out.
func ParseNSIDCExtent(data []byte) []domain.RawPoint {
	return parseYMDCandidates(data, 0, 100)
}

// ParseNOAACO2Daily reads the NOAA GML daily CO2 trend CSV, scanning the
// same candidate columns with a (0, 1000) ppm window.
func ParseNOAACO2Daily(data []byte) []domain.RawPoint {
	return parseYMDCandidates(data, 0, 1000)
}

// parseYMDCandidates handles year,month,day CSVs whose value column
// position drifts: the first of columns 3..5 inside (lo, hi), exclusive,
// is taken.
func parseYMDCandidates(data []byte, lo, hi float64) []domain.RawPoint {
	var points []domain.RawPoint
	for _, cells := range csvRows(data) {
		if len(cells) < 4 {
			continue
		}
		year, errY := strconv.Atoi(cells[0])
		month, errM := strconv.Atoi(cells[1])
		day, errD := strconv.Atoi(cells[2])
		if errY != nil || errM != nil || errD != nil {
			continue
		}
		value, ok := firstInRange(cells, 3, 5, lo, hi)
		if !ok {
			continue
		}
		points = append(points, domain.RawPoint{
			Date:  fmt.Sprintf("%04d-%02d-%02d", year, month, day),
			Value: value,
		})
	}
	return points
}

// firstInRange scans cells[from..to] for the first float strictly inside
// (lo, hi).
func firstInRange(cells []string, from, to int, lo, hi float64) (float64, bool) {
	for i := from; i <= to && i < len(cells); i++ {
		v, err := strconv.ParseFloat(cells[i], 64)
		if err != nil {
			continue
		}
		if v > lo && v < hi {
			return v, true
		}
	}
	return 0, false
}

// ParseNOAACH4Monthly reads the NOAA GML monthly CH4 CSV
// (year,month,decimal,average,average_unc,trend,trend_unc). The average
// column is preferred with the trend column as fallback, each accepted only
// inside (500, 5000) ppb. Monthly values land on the first of the month.
func ParseNOAACH4Monthly(data []byte) []domain.RawPoint {
	var points []domain.RawPoint
	for _, cells := range csvRows(data) {
		if len(cells) < 4 {
			continue
		}
		year, errY := strconv.Atoi(cells[0])
		month, errM := strconv.Atoi(cells[1])
		if errY != nil || errM != nil {
			continue
		}
		value, ok := pickCH4Value(cells)
		if !ok {
			continue
		}
		points = append(points, domain.RawPoint{
			Date:  fmt.Sprintf("%04d-%02d-01", year, month),
			Value: value,
		})
	}
	return points
}

func pickCH4Value(cells []string) (float64, bool) {
	for _, idx := range []int{3, 5} {
		if idx >= len(cells) {
			continue
		}
		v, err := strconv.ParseFloat(cells[idx], 64)
		if err != nil {
			continue
		}
		if v > ch4Min && v < ch4Max {
			return v, true
		}
	}
	return 0, false
}

// ParseNOAAAGGIAnnual reads the NOAA Annual Greenhouse Gas Index table. The
// file leads with prose, so the header row is located first and columns are
// resolved by name: "Year" plus either an "AGGI" column or the "1990 = 1"
// column, depending on the table vintage. Annual values land on January 1.
func ParseNOAAAGGIAnnual(data []byte) []domain.RawPoint {
	rows := csvRows(data)
	headerIdx, yearCol, aggiCol := findAGGIHeader(rows)
	if headerIdx < 0 {
		return nil
	}

	var points []domain.RawPoint
	for _, cells := range rows[headerIdx+1:] {
		if yearCol >= len(cells) || aggiCol >= len(cells) {
			continue
		}
		year, err := strconv.Atoi(cells[yearCol])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(cells[aggiCol], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.RawPoint{
			Date:  fmt.Sprintf("%04d-01-01", year),
			Value: value,
		})
	}
	return points
}

func findAGGIHeader(rows [][]string) (headerIdx, yearCol, aggiCol int) {
	for i, cells := range rows {
		yearCol, aggiCol = -1, -1
		for j, cell := range cells {
			name := strings.ToLower(cell)
			if name == "year" && yearCol < 0 {
				yearCol = j
			}
			if (strings.Contains(name, "aggi") || strings.Contains(name, "= 1")) && aggiCol < 0 {
				aggiCol = j
			}
		}
		if yearCol >= 0 && aggiCol >= 0 {
			return i, yearCol, aggiCol
		}
	}
	return -1, -1, -1
}
