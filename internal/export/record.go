// Package export joins extracted quotes into flat rows and writes them as a
// spreadsheet.
package export

import (
	"strconv"
	"strings"

	"github.com/dgallion1/quotesheet/internal/quote"
)

// Columns is the fixed column order of every export.
var Columns = []string{
	"ReferralManager",
	"ReferralEmail",
	"Brand",
	"QuoteNumber",
	"QuoteDate",
	"Company",
	"FirstName",
	"LastName",
	"ContactEmail",
	"ContactPhone",
	"Address",
	"County",
	"City",
	"State",
	"ZipCode",
	"Country",
	"item_id",
	"item_desc",
	"UnitPrice",
	"TotalSales",
	"QuoteValidDate",
	"CustomerNumber",
	"manufacturer_Name",
	"PDF",
	"DemoQuote",
}

// RunParams are the per-run constants copied onto every record.
type RunParams struct {
	ReferralManager string
	ReferralEmail   string
	Brand           string
}

// Record is one exported row: a document's header joined with one of its
// line items. UnitPrice and TotalSales are nil when the printed amount could
// not be parsed.
type Record struct {
	Run        RunParams
	Header     quote.Header
	Item       quote.LineItem
	UnitPrice  *float64
	TotalSales *float64
	Filename   string
}

// BuildRecords produces one record per item of q, in item order.
func BuildRecords(q quote.Quote, filename string, run RunParams) []Record {
	records := make([]Record, 0, len(q.Items))
	for _, it := range q.Items {
		records = append(records, Record{
			Run:        run,
			Header:     q.Header,
			Item:       it,
			UnitPrice:  ParseAmount(it.UnitPriceRaw),
			TotalSales: ParseAmount(it.TotalRaw),
			Filename:   filename,
		})
	}
	return records
}

// ParseAmount parses a thousands-separated decimal such as "97,200.00".
// It returns nil when the value is not a number.
func ParseAmount(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// Values returns the record's cells in Columns order. Unset header fields,
// empty run parameters, unparsed amounts and the reserved columns are nil.
func (r Record) Values() []any {
	h := func(f quote.Field) any {
		if v, ok := r.Header.Get(f); ok {
			return v
		}
		return nil
	}
	amount := func(p *float64) any {
		if p == nil {
			return nil
		}
		return *p
	}

	return []any{
		nonEmpty(r.Run.ReferralManager),
		nonEmpty(r.Run.ReferralEmail),
		nonEmpty(r.Run.Brand),
		h(quote.QuoteNumber),
		h(quote.QuoteDate),
		h(quote.Company),
		h(quote.FirstName),
		h(quote.LastName),
		nil, // ContactEmail
		nil, // ContactPhone
		h(quote.Address),
		nil, // County
		h(quote.City),
		h(quote.State),
		h(quote.ZipCode),
		h(quote.Country),
		r.Item.ItemID,
		r.Item.Description,
		amount(r.UnitPrice),
		amount(r.TotalSales),
		h(quote.QuoteValidDate),
		h(quote.CustomerNumber),
		nil, // manufacturer_Name
		r.Filename,
		nil, // DemoQuote
	}
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
