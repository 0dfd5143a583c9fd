package parser

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"slices"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}

	pages, err := extractPDFPages(data)
	if err != nil && p.FallbackPdftotext {
		if fbPages, fbErr := extractPdftotext(data); fbErr == nil {
			pages, err = fbPages, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return JoinPages(pages), nil
}

// extractPDFPages returns one entry per page. Pages without a text layer
// yield an empty string. The decoder panics on some malformed files, so a
// panic is reported as an error.
func extractPDFPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf decoder: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(page)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

const (
	// rowTolerance is how far apart, in points, two baselines may be and
	// still form one line.
	rowTolerance = 2.0
	// wordGap is the horizontal gap, as a fraction of the font size, that
	// separates two glyphs with a space.
	wordGap = 0.2
)

// pageText rebuilds a page's lines from glyph positions, top to bottom.
// Content streams often place each row with Td or Tm and no line operator,
// so the stream order alone does not say where lines break.
func pageText(page pdflib.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page content: %v", r)
		}
	}()
	return strings.Join(textLines(page.Content().Text), "\n"), nil
}

type textRow struct {
	y      float64
	glyphs []pdflib.Text
}

// textLines groups glyphs into rows by baseline, orders rows top to bottom
// and glyphs left to right, and inserts a space where two glyphs are
// visibly apart. Glyphs from fonts without width metrics carry no width and
// are joined as drawn.
func textLines(texts []pdflib.Text) []string {
	var rows []*textRow
	for _, t := range texts {
		if t.S == "\n" || t.S == "" {
			continue
		}
		var row *textRow
		for _, r := range rows {
			if math.Abs(r.y-t.Y) < rowTolerance {
				row = r
				break
			}
		}
		if row == nil {
			row = &textRow{y: t.Y}
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, t)
	}
	slices.SortStableFunc(rows, func(a, b *textRow) int { return cmp.Compare(b.y, a.y) })

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		slices.SortStableFunc(r.glyphs, func(a, b pdflib.Text) int { return cmp.Compare(a.X, b.X) })
		var sb strings.Builder
		for i, g := range r.glyphs {
			if i > 0 {
				prev := r.glyphs[i-1]
				gap := g.X - (prev.X + prev.W)
				if prev.W > 0 && gap > wordGap*g.FontSize && prev.S != " " && g.S != " " {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(g.S)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractPdftotext shells out to poppler's pdftotext, which needs a file on
// disk. Pages come back separated by form feeds.
func extractPdftotext(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "quotesheet-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", "-enc", "UTF-8", "-eol", "unix", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

func splitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
