package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const (
	CSVFilename    = "quotes_extracted.csv"
	CSVContentType = "text/csv"
)

// WriteCSV writes a header line followed by one line per record, in
// Columns order. Nil cells are written as empty fields.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, len(Columns))
	for _, rec := range records {
		for i, v := range rec.Values() {
			line[i] = formatCell(v)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
