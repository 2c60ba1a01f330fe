package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrFetchFailed = errors.New("could not fetch order page")
	ErrNoItemTable = errors.New("no item table found")
)

// column header aliases, lower case
var columnAliases = map[string][]string{
	"code":        {"code", "item code", "sku", "article", "art. no", "ref"},
	"description": {"description", "product", "item", "article name"},
	"quantity":    {"qty", "quantity", "amount"},
	"unit":        {"unit", "uom"},
	"unit_price":  {"unit price", "price", "price/unit"},
	"total":       {"total", "line total", "net total", "total amount"},
}

const maxPageBytes = 5 << 20

// FetchOrderPage downloads a supplier portal order page and parses it.
func FetchOrderPage(ctx context.Context, client *http.Client, url string) (*ParsedInvoice, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	// some portals reject clients without a browser agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	return ParseOrderPage(io.LimitReader(resp.Body, maxPageBytes))
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(h, ":")))
		for field, aliases := range columnAliases {
			if _, taken := idx[field]; taken {
				continue
			}
			for _, a := range aliases {
				if h == a {
					idx[field] = i
				}
			}
		}
	}
	return idx
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// ParseOrderPage reads the first table whose header names a description, quantity,
// unit price and total column. Header fields come from the page text.
func ParseOrderPage(r io.Reader) (*ParsedInvoice, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	pageText := doc.Find("body").Text()
	res := &ParsedInvoice{Lines: []ParsedLine{}}
	if m := numberRe.FindStringSubmatch(pageText); m != nil {
		res.Number = m[1]
	}
	if m := dateRe.FindStringSubmatch(pageText); m != nil {
		res.Date = normalizeDate(m[1], m[2], m[3])
	} else if m := anyDateRe.FindStringSubmatch(pageText); m != nil {
		res.Date = normalizeDate(m[1], m[2], m[3])
	}
	for _, line := range strings.Split(pageText, "\n") {
		if m := supplierRe.FindStringSubmatch(line); m != nil {
			res.Supplier = m[1]
			break
		}
	}

	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var headers []string
		headerRow := table.Find("thead tr").First()
		if headerRow.Length() == 0 {
			headerRow = table.Find("tr").First()
		}
		headerRow.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cellText(cell))
		})

		idx := headerIndex(headers)
		for _, required := range []string{"description", "quantity", "unit_price", "total"} {
			if _, ok := idx[required]; !ok {
				return true
			}
		}
		found = true

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if row.Find("th").Length() > 0 {
				return
			}
			cells := row.Find("td")
			get := func(field string) string {
				i, ok := idx[field]
				if !ok || i >= cells.Length() {
					return ""
				}
				return cellText(cells.Eq(i))
			}

			desc := get("description")
			if desc == "" {
				return
			}
			if isFooter(desc) || isFooter(get("code")) {
				if m := totalRe.FindStringSubmatch(cellText(row)); m != nil {
					if d, err := ParseAmount(m[1]); err == nil {
						res.DeclaredTotal = &d
					}
				}
				return
			}

			qtyText := get("quantity")
			unit := get("unit")
			if m := unitQtyRe.FindStringSubmatch(strings.ReplaceAll(qtyText, " ", "")); m != nil {
				qtyText, unit = m[1], m[2]
			}
			qty, err1 := ParseAmount(qtyText)
			price, err2 := ParseAmount(get("unit_price"))
			total, err3 := ParseAmount(get("total"))
			if err1 != nil || err2 != nil || err3 != nil {
				res.SkippedLines++
				return
			}

			res.Lines = append(res.Lines, ParsedLine{
				Code:        get("code"),
				Description: desc,
				Quantity:    qty,
				Unit:        unit,
				UnitPrice:   price,
				Total:       total,
			})
		})
		return false
	})

	if !found {
		return res, ErrNoItemTable
	}
	if res.DeclaredTotal == nil {
		doc.Find("tfoot tr, .total, #total").Each(func(_ int, s *goquery.Selection) {
			if m := totalRe.FindStringSubmatch(cellText(s)); m != nil {
				if d, err := ParseAmount(m[1]); err == nil {
					res.DeclaredTotal = &d
				}
			}
		})
	}
	if len(res.Lines) == 0 {
		return res, ErrNoLines
	}
	return res, nil
}
