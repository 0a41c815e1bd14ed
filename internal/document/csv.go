package document

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// loadCSV renders the file as a pipe table. The chunker's table
// detector then keeps the whole table as one atomic chunk instead of
// splitting rows across embedding boundaries.
func loadCSV(path string, data []byte) ([]RawDocument, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var b strings.Builder
	for i, record := range records {
		writePipeRow(&b, record)
		if i == 0 {
			writeSeparatorRow(&b, len(record))
		}
	}

	return []RawDocument{{
		Text:  strings.TrimRight(b.String(), "\n"),
		Title: defaultTitle(path),
		Meta:  baseMeta(path),
	}}, nil
}

func writePipeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(cell))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func writeSeparatorRow(b *strings.Builder, width int) {
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
}
