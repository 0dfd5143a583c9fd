package quote

import (
	"regexp"
	"strings"
)

const (
	markerQuotedFor = "Quoted For:"
	markerGoodThru  = "Quote Good Through"
	markerShipTo    = "Ship To:"
	countryUSAName  = "United States of America"
	countryUSACode  = "USA"
)

var (
	quoteRe    = regexp.MustCompile(`Quote\s+(\d+)\s+Date\s+(\d{1,2}/\d{1,2}/\d{4})`)
	customerRe = regexp.MustCompile(`Customer\s+(\d+)`)
	contactRe  = regexp.MustCompile(`Contact\s+([A-Za-z .'-]+)`)
	companyRe  = regexp.MustCompile(`Quoted For:\s*(.+?)\s+Ship To:`)
	validRe    = regexp.MustCompile(`Quote Good Through\s+(\d{1,2}/\d{1,2}/\d{4})`)

	// The layout prints the street address twice in a row; only the first
	// numeric-led run is kept.
	streetRe = regexp.MustCompile(`(\d{3,6}\s+[A-Za-z0-9 .]+?)\s+\d{3,6}\s+[A-Za-z0-9 ]+`)

	cityStateZipRe = regexp.MustCompile(`([A-Za-z .]+),\s*([A-Z]{2})\s+(\d{5})(?:-\d{4})?`)
)

// ExtractHeader recovers the quote-level fields from text. Every field is
// searched independently; a field whose pattern does not match is left out.
func ExtractHeader(text string) Header {
	h := Header{}

	if m := quoteRe.FindStringSubmatch(text); m != nil {
		h[QuoteNumber] = m[1]
		h[QuoteDate] = m[2]
	}

	if m := customerRe.FindStringSubmatch(text); m != nil {
		h[CustomerNumber] = m[1]
	}

	if m := contactRe.FindStringSubmatch(text); m != nil {
		parts := strings.Fields(m[1])
		if len(parts) > 0 {
			h[FirstName] = parts[0]
		}
		if len(parts) >= 2 {
			h[LastName] = strings.Join(parts[1:], " ")
		}
	}

	if block, ok := addressBlock(text); ok {
		extractAddress(block, h)
	}

	if m := validRe.FindStringSubmatch(text); m != nil {
		h[QuoteValidDate] = m[1]
	}

	return h
}

// addressBlock returns the text from the first "Quoted For:" up to the first
// "Quote Good Through". Both markers must be present. When the second marker
// precedes the first the block is empty.
func addressBlock(text string) (string, bool) {
	start := strings.Index(text, markerQuotedFor)
	end := strings.Index(text, markerGoodThru)
	if start < 0 || end < 0 {
		return "", false
	}
	if end < start {
		return "", true
	}
	return text[start:end], true
}

func extractAddress(block string, h Header) {
	// More than one ship-to block makes the company span ambiguous.
	if strings.Count(block, markerShipTo) <= 1 {
		if m := companyRe.FindStringSubmatch(block); m != nil {
			h[Company] = strings.TrimSpace(m[1])
		}
	}

	if m := streetRe.FindStringSubmatch(block); m != nil {
		h[Address] = strings.TrimSpace(m[1])
	}

	if m := cityStateZipRe.FindStringSubmatch(block); m != nil {
		h[City] = strings.TrimSpace(m[1])
		h[State] = m[2]
		h[ZipCode] = m[3]
	}

	if strings.Contains(block, countryUSAName) {
		h[Country] = countryUSACode
	}
}
