package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format names a rendered file type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ErrNoColumns is returned when a dataset declares no columns.
var ErrNoColumns = errors.New("dataset requires at least one column")

// Column describes one exported field.
type Column struct {
	Key   string
	Label string
	// Width is a relative weight used by the PDF layout. Zero means 1.
	Width float64
}

// Dataset is tabular export content keyed by Column.Key.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Format() Format
	ContentType() string
	Render(Dataset) ([]byte, error)
}

// ParseFormat accepts a case-insensitive format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Extension returns the file suffix for f including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

func (d Dataset) labels() []string {
	labels := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}
