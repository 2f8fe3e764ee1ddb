package provider

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

// ParseSeaLevelText reads whitespace-delimited global mean sea level rows: a
// decimal year followed by the height in millimeters. Header lines fail the
// numeric checks and drop out like any other malformed row.
func ParseSeaLevelText(data []byte) []domain.RawPoint {
	var points []domain.RawPoint
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		yearToken, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		d, ok := dateFromDecimalYear(yearToken)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.RawPoint{Date: d.String(), Value: v})
	}
	return points
}
