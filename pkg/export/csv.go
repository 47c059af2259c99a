package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer writes a header row followed by one record per dataset row.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) Format() Format { return FormatCSV }

func (r *CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

func (r *CSVRenderer) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, ErrNoColumns
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.labels()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(data.Columns))
	for _, row := range data.Rows {
		for i, col := range data.Columns {
			record[i] = row[col.Key]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
