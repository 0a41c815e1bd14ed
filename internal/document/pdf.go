package document

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts text page by page so answers can cite the page an
// excerpt came from. Pages with no extractable text are skipped; an
// extraction failure fails the whole file.
func loadPDF(path string) ([]RawDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	title := defaultTitle(path)

	var docs []RawDocument
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", num, err)
		}
		content = normalizeText(content)
		if strings.TrimSpace(content) == "" {
			continue
		}

		meta := baseMeta(path)
		meta.Page = num
		docs = append(docs, RawDocument{Text: content, Title: title, Meta: meta})
	}
	return docs, nil
}
