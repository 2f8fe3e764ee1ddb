package provider

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

// ParseNCEIOceanHeat reads the NCEI ocean heat content CSV. Two layouts are
// seen in the wild: bare (date, value) pairs per row, and a headered table.
// When the first row parses as a literal date+number pair the whole file is
// read positionally; otherwise the header picks the columns.
func ParseNCEIOceanHeat(data []byte) []domain.RawPoint {
	rows := csvRows(data)
	if len(rows) == 0 {
		return nil
	}

	if len(rows[0]) >= 2 {
		if _, ok := parseDateToken(rows[0][0]); ok {
			if _, err := strconv.ParseFloat(rows[0][1], 64); err == nil {
				return parseDateValueRows(rows, 0, 1)
			}
		}
	}

	dateCol, valueCol := findOHCColumns(rows)
	if dateCol < 0 || valueCol < 0 {
		return nil
	}
	return parseDateValueRows(rows[1:], dateCol, valueCol)
}

func parseDateValueRows(rows [][]string, dateCol, valueCol int) []domain.RawPoint {
	var points []domain.RawPoint
	for _, cells := range rows {
		if dateCol >= len(cells) || valueCol >= len(cells) {
			continue
		}
		d, ok := parseDateToken(cells[dateCol])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(cells[valueCol], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.RawPoint{Date: d.String(), Value: v})
	}
	return points
}

// findOHCColumns resolves the headered layout: the date column by name, the
// value column as the first remaining column whose first data cell is
// numeric.
func findOHCColumns(rows [][]string) (dateCol, valueCol int) {
	header := rows[0]
	dateCol = -1
	for j, cell := range header {
		name := strings.ToLower(cell)
		if strings.Contains(name, "date") || name == "year" || strings.Contains(name, "time") {
			dateCol = j
			break
		}
	}
	if dateCol < 0 || len(rows) < 2 {
		return -1, -1
	}

	first := rows[1]
	for j := range first {
		if j == dateCol {
			continue
		}
		if _, err := strconv.ParseFloat(first[j], 64); err == nil {
			return dateCol, j
		}
	}
	return dateCol, -1
}
