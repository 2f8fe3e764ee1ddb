package provider

import "strings"

// csvRows splits a CSV payload into trimmed cells, line by line. None of the
// feeds quote commas, so a plain split is both sufficient and maximally
// tolerant: one mangled line can never poison the rest of the file. Blank
// lines and '#' comments are dropped.
func csvRows(data []byte) [][]string {
	lines := strings.Split(string(data), "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		cells := strings.Split(line, ",")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	return rows
}
