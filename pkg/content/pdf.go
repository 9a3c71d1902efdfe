package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages bounds extraction; earnings call transcripts run to a few dozen pages.
const maxPDFPages = 200

var (
	errEmptyPDFContent = errors.New("pdf content is empty")
	errNoPDFText       = errors.New("pdf has no extractable text")
)

// ExtractPDFText returns the whitespace-normalized text of an in-memory PDF,
// as served by investor-relations sites for transcript documents. Text is
// read row by row so that "Name: ..." speaker lines keep their line breaks;
// pages are separated by a blank line.
func ExtractPDFText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errEmptyPDFContent
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := min(doc.NumPage(), maxPDFPages)
	fonts := make(map[string]*pdf.Font)
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		text := pageRowsText(page)
		if text == "" {
			// some generators emit one text object per page with no usable rows
			text, err = page.GetPlainText(pageFonts(page, fonts))
			if err != nil {
				return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
			}
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	out := NormalizeWhitespace(b.String())
	if out == "" {
		return "", errNoPDFText
	}
	return out, nil
}

func pageRowsText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	return rowsText(rows)
}

// rowsText renders rows top to bottom, one line per row.
func rowsText(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for _, t := range row.Content {
			line.WriteString(t.S)
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// pageFonts adds the page's fonts to the shared cache so character maps are
// parsed once per document.
func pageFonts(page pdf.Page, cache map[string]*pdf.Font) map[string]*pdf.Font {
	for _, name := range page.Fonts() {
		if _, ok := cache[name]; !ok {
			f := page.Font(name)
			cache[name] = &f
		}
	}
	return cache
}
