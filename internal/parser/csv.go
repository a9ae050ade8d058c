package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docscope/internal/doctree"
)

const csvBatchSize = 20

// CSVParser handles CSV files. Each batch of rows is a page that opens
// with a bold "Rows a-b" label followed by one span per row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := &doctree.Document{Name: filename}
	if len(records) == 0 {
		return out, nil
	}

	headers := records[0]
	dataRows := records[1:]
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		page := i/csvBatchSize + 1

		label := fmt.Sprintf("Rows %d-%d", i+2, end+1) // 1-indexed, skip header
		out.Spans = append(out.Spans, newSpan(page, label, "csv", 14, true))
		for _, row := range dataRows[i:end] {
			out.Spans = append(out.Spans, newSpan(page, formatRow(headers, row), "csv", 10, false))
		}
	}
	return out, nil
}

func formatRow(headers, row []string) string {
	parts := make([]string, len(row))
	for j, cell := range row {
		if j < len(headers) {
			parts[j] = headers[j] + ": " + cell
		} else {
			parts[j] = cell
		}
	}
	return strings.Join(parts, ", ")
}
