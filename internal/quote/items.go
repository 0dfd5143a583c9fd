package quote

import (
	"regexp"
	"strings"
)

// itemRe matches an item header line, e.g.
//
//	1 HW.MAGFOOT-170 27 EAC 3,600.00000EAC 97,200.00
var itemRe = regexp.MustCompile(`(?m)^(\d+)\s+([A-Z0-9.\-]+)\s+(\d+)\s+EAC\s+([\d,]+\.\d+)\s*EAC\s+([\d,]+\.\d{2})`)

// summaryMarker starts the totals section that follows the last item.
const summaryMarker = "Product"

// ExtractLineItems returns the items of text in order of appearance. The
// description of an item is the text between its header line and the next
// one; the last item stops at the summary section or the end of text. Lines
// that do not match the item pattern are skipped.
func ExtractLineItems(text string) []LineItem {
	matches := itemRe.FindAllStringSubmatchIndex(text, -1)
	items := make([]LineItem, 0, len(matches))

	for i, m := range matches {
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		} else if j := strings.Index(text[start:], summaryMarker); j >= 0 {
			end = start + j
		}

		items = append(items, LineItem{
			LineNumber:   text[m[2]:m[3]],
			ItemID:       text[m[4]:m[5]],
			Quantity:     text[m[6]:m[7]],
			UnitPriceRaw: text[m[8]:m[9]],
			TotalRaw:     text[m[10]:m[11]],
			Description:  collapseSpace(text[start:end]),
		})
	}
	return items
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
