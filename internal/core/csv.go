package core

// csv.go serializes a tabular result for download. The payload is UTF-8 with
// a byte-order mark so spreadsheet tools detect the encoding; fields
// containing the delimiter are quoted by encoding/csv.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SerializeCSV converts a tabular result to a downloadable CSV payload.
// Column order is preserved exactly as returned by the query.
func SerializeCSV(result *TabularResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(result.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = formatCell(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// formatCell renders one cell value as text. Dates at midnight render as
// plain dates; everything else falls back to its natural representation.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
