package normalization

import (
	"math"
	"strconv"
	"strings"
)

// IsBlank reports whether a CSV cell carries no value ("", nan, none, null).
func IsBlank(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// CellValue coerces a CSV cell into the JSON scalar it most likely represents:
// nil for blanks, then bool, int64, float64, and finally the trimmed string.
func CellValue(raw string) any {
	if IsBlank(raw) {
		return nil
	}
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return trimmed
}

// Row maps a CSV header onto one record's cells. Extra cells are ignored and
// missing cells become nil.
func Row(header, cells []string) map[string]any {
	row := make(map[string]any, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if i < len(cells) {
			row[col] = CellValue(cells[i])
		} else {
			row[col] = nil
		}
	}
	return row
}
