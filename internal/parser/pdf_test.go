package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/quotesheet/internal/quote"
)

// buildPDF writes a minimal text-layer PDF with one page per content
// stream. An empty stream produces a page with no contents at all.
func buildPDF(t *testing.T, streams ...string) []byte {
	t.Helper()
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	const pageDict = "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>"

	kids := make([]string, 0, len(streams))
	for _, s := range streams {
		num := len(objs) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", num))
		if s == "" {
			objs = append(objs, pageDict+" >>")
			continue
		}
		objs = append(objs, fmt.Sprintf("%s /Contents %d 0 R >>", pageDict, num+1))
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(s), s))
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func parsePDF(t *testing.T, data []byte) string {
	t.Helper()
	p := &PDFParser{}
	text, err := p.Parse(bytes.NewReader(data), "quote.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return text
}

func TestPDFParser_RowsPlacedWithTd(t *testing.T) {
	stream := "BT /F1 10 Tf 50 700 Td (1 HW.MAGFOOT-170 27 EAC 3,600.00000) Tj " +
		"200 0 Td (EAC 97,200.00) Tj " +
		"-200 -12 Td (Magnetic foot) Tj " +
		"0 -12 Td (2 CW-22 10 EAC 12.50000) Tj " +
		"200 0 Td (EAC 125.00) Tj " +
		"-200 -12 Td (Copper wire) Tj " +
		"0 -12 Td (Product Total 97,325.00) Tj ET"

	text := parsePDF(t, buildPDF(t, stream))
	want := "1 HW.MAGFOOT-170 27 EAC 3,600.00000EAC 97,200.00\n" +
		"Magnetic foot\n" +
		"2 CW-22 10 EAC 12.50000EAC 125.00\n" +
		"Copper wire\n" +
		"Product Total 97,325.00\n"
	if text != want {
		t.Fatalf("expected %q, got %q", want, text)
	}

	items := quote.ExtractLineItems(text)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Description != "Magnetic foot" || items[1].ItemID != "CW-22" || items[1].Description != "Copper wire" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestPDFParser_RowsOrderedTopToBottom(t *testing.T) {
	stream := "BT /F1 10 Tf 1 0 0 1 50 600 Tm (second) Tj ET " +
		"BT /F1 10 Tf 1 0 0 1 50 700 Tm (first) Tj ET"

	if got := parsePDF(t, buildPDF(t, stream)); got != "first\nsecond\n" {
		t.Errorf("expected rows top to bottom, got %q", got)
	}
}

func TestPDFParser_PagesInOrder(t *testing.T) {
	data := buildPDF(t,
		"BT /F1 10 Tf 50 700 Td (Quote 120987) Tj ET",
		"",
		"BT /F1 10 Tf 50 700 Td (Product Total 1.00) Tj ET",
	)

	want := "Quote 120987\n\nProduct Total 1.00\n"
	if got := parsePDF(t, data); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPDFParser_NoPages(t *testing.T) {
	if got := parsePDF(t, buildPDF(t)); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestTextLines_WordGaps(t *testing.T) {
	glyph := func(s string, x, y float64) pdflib.Text {
		return pdflib.Text{S: s, X: x, Y: y, W: 5, FontSize: 10}
	}
	texts := []pdflib.Text{
		// Drawn out of order, with C half a point off its row's baseline.
		glyph("B", 5, 699.5),
		glyph("A", 0, 699.5),
		glyph("C", 30, 700),
		glyph("x", 0, 680),
		glyph(" ", 5, 680),
		glyph("y", 20, 680),
		{S: "\n", X: 0, Y: 680},
	}

	got := textLines(texts)
	want := []string{"AB C", "x y"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
