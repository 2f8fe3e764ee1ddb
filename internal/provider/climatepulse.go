package provider

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-dataset-etl/internal/domain"
)

// preindustrialOffset shifts the ERA5 1991-2020 anomaly onto the 1850-1900
// preindustrial baseline. The constant is published alongside the Climate
// Pulse series, not derived here.
const preindustrialOffset = 0.88

// ParseClimatePulse reads the ECMWF Climate Pulse daily anomaly CSV. The
// header names a "date" column and an "ano_91-20" column; every value is
// shifted by the preindustrial offset.
func ParseClimatePulse(data []byte) []domain.RawPoint {
	rows := csvRows(data)
	if len(rows) == 0 {
		return nil
	}

	dateCol, valueCol := -1, -1
	for j, cell := range rows[0] {
		name := strings.ToLower(cell)
		if name == "date" && dateCol < 0 {
			dateCol = j
		}
		if strings.Contains(name, "ano_91-20") && valueCol < 0 {
			valueCol = j
		}
	}
	if dateCol < 0 || valueCol < 0 {
		return nil
	}

	var points []domain.RawPoint
	for _, cells := range rows[1:] {
		if dateCol >= len(cells) || valueCol >= len(cells) {
			continue
		}
		d, err := domain.ParseDate(cells[dateCol])
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(cells[valueCol], 64)
		if err != nil {
			continue
		}
		points = append(points, domain.RawPoint{
			Date:  d.String(),
			Value: round3(v + preindustrialOffset),
		})
	}
	return points
}
