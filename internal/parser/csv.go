package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsumm/internal/document"
)

// CSVParser handles CSV files. Each row is rendered as "header: value" pairs
// so the text stream stays meaningful after chunking.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &document.Document{
		Name:  filename,
		Title: titleFromFilename(filename),
	}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	var b textBuilder
	b.addParagraph("Columns: " + strings.Join(headers, ", "))

	for _, row := range records[1:] {
		var line strings.Builder
		for j, cell := range row {
			if j > 0 {
				line.WriteString(", ")
			}
			if j < len(headers) {
				line.WriteString(headers[j] + ": " + cell)
			} else {
				line.WriteString(cell)
			}
		}
		b.addParagraph(line.String())
	}

	doc.Text = b.String()
	return doc, nil
}
