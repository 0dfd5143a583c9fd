// Package quote recognizes header fields and line items in the extracted text
// of a Cadre Wire quote. Matching is a fixed set of case-sensitive regular
// expressions; the first occurrence of each pattern wins.
package quote

// Field names a quote-level header field.
type Field string

const (
	QuoteNumber    Field = "QuoteNumber"
	QuoteDate      Field = "QuoteDate"
	CustomerNumber Field = "CustomerNumber"
	FirstName      Field = "FirstName"
	LastName       Field = "LastName"
	Company        Field = "Company"
	Address        Field = "Address"
	City           Field = "City"
	State          Field = "State"
	ZipCode        Field = "ZipCode"
	Country        Field = "Country"
	QuoteValidDate Field = "QuoteValidDate"
)

// Header holds the header fields recovered from one document. A field is
// present only when its pattern matched; absent fields have no key.
type Header map[Field]string

// Get returns the field value and whether it was recovered.
func (h Header) Get(f Field) (string, bool) {
	v, ok := h[f]
	return v, ok
}

// LineItem is one product row of a quote. Prices are kept as printed
// (thousands-separated); see export.ParseAmount for the numeric form.
type LineItem struct {
	LineNumber   string `json:"line_no"`
	ItemID       string `json:"item_id"`
	Quantity     string `json:"qty"`
	UnitPriceRaw string `json:"unit_price"`
	TotalRaw     string `json:"total"`
	Description  string `json:"description"`
}

// Quote is the result of running both extractors over one RawText.
type Quote struct {
	Header Header
	Items  []LineItem
}

// Parse runs header and line-item extraction over text.
func Parse(text string) Quote {
	return Quote{
		Header: ExtractHeader(text),
		Items:  ExtractLineItems(text),
	}
}
