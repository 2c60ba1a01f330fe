// Package invoice turns supplier documents into invoice lines and checks them against
// the declared total.
package invoice

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrNoLines       = errors.New("no invoice lines found")
	ErrInvalidAmount = errors.New("invalid amount")
)

type ParsedLine struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type ParsedInvoice struct {
	Supplier      string           `json:"supplier"`
	Number        string           `json:"number"`
	Date          string           `json:"date"` // YYYY-MM-DD, empty when not found
	DeclaredTotal *decimal.Decimal `json:"declared_total"`
	Lines         []ParsedLine     `json:"lines"`
	SkippedLines  int              `json:"skipped_lines"`
}

var (
	numberRe   = regexp.MustCompile(`(?i)\b(?:invoice|order|inv)\s*(?:no\.?|number|nr\.?|#)\s*[:.]?\s*([A-Z0-9][A-Z0-9/-]*)`)
	dateRe     = regexp.MustCompile(`(?i)\bdate\s*[:.]?\s*(\d{1,2})[./-](\d{1,2})[./-](\d{4})`)
	anyDateRe  = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)
	supplierRe = regexp.MustCompile(`(?i)^\s*(?:supplier|vendor|from)\s*[:.]\s*(.+?)\s*$`)
	totalRe    = regexp.MustCompile(`(?i)^\s*(?:grand\s+total|total\s+due|invoice\s+total|total)\s*(?:\(?(?:eur|€)\)?)?\s*[:.]?\s*(?:eur|€)?\s*(-?[\d.,]+)\s*(?:eur|€)?\s*$`)
	unitQtyRe  = regexp.MustCompile(`^([\d.,]+)([\p{L}]+)$`)
)

// summary rows that look like item rows but are not
var footerWords = []string{"subtotal", "total", "vat", "tax", "discount", "shipping"}

// ParseAmount reads a European formatted amount (1.234,56) with an optional currency
// marker. A lone dot followed by exactly three digits is a thousands separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("€", "", "EUR", "", "eur", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func isAmount(s string) bool {
	_, err := ParseAmount(s)
	return err == nil && strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func isFooter(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range footerWords {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}

// ParseLine reads "code description qty [unit] unit_price total". The second return is
// false when the line is not an item row.
func ParseLine(line string) (ParsedLine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 || isFooter(line) {
		return ParsedLine{}, false
	}

	n := len(fields)
	if !isAmount(fields[n-1]) || !isAmount(fields[n-2]) {
		return ParsedLine{}, false
	}
	total, _ := ParseAmount(fields[n-1])
	unitPrice, _ := ParseAmount(fields[n-2])

	var (
		qty    decimal.Decimal
		unit   string
		qtyIdx int
	)
	switch {
	case isAmount(fields[n-3]):
		qty, _ = ParseAmount(fields[n-3])
		qtyIdx = n - 3
	case unitQtyRe.MatchString(fields[n-3]):
		m := unitQtyRe.FindStringSubmatch(fields[n-3])
		var err error
		if qty, err = ParseAmount(m[1]); err != nil {
			return ParsedLine{}, false
		}
		unit = m[2]
		qtyIdx = n - 3
	case n >= 6 && isAmount(fields[n-4]):
		qty, _ = ParseAmount(fields[n-4])
		unit = fields[n-3]
		qtyIdx = n - 4
	default:
		return ParsedLine{}, false
	}

	code := fields[0]
	if qtyIdx < 2 || strings.IndexFunc(code, unicode.IsDigit) < 0 {
		return ParsedLine{}, false
	}

	return ParsedLine{
		Code:        code,
		Description: strings.Join(fields[1:qtyIdx], " "),
		Quantity:    qty,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Total:       total,
	}, true
}

func normalizeDate(day, month, year string) string {
	t, err := time.Parse("2-1-2006", day+"-"+month+"-"+year)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// ParseText extracts header fields and item rows from plain invoice text. A line that
// is not an item row but follows one is treated as a wrapped description.
func ParseText(text string) (*ParsedInvoice, error) {
	res := &ParsedInvoice{Lines: []ParsedLine{}}

	if m := numberRe.FindStringSubmatch(text); m != nil {
		res.Number = m[1]
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		res.Date = normalizeDate(m[1], m[2], m[3])
	} else if m := anyDateRe.FindStringSubmatch(text); m != nil {
		res.Date = normalizeDate(m[1], m[2], m[3])
	}

	inItems := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			inItems = false
			continue
		}
		if m := supplierRe.FindStringSubmatch(line); m != nil && res.Supplier == "" {
			res.Supplier = m[1]
			continue
		}
		if m := totalRe.FindStringSubmatch(line); m != nil {
			if d, err := ParseAmount(m[1]); err == nil {
				// the last total row is the grand total
				res.DeclaredTotal = &d
			}
			inItems = false
			continue
		}

		if pl, ok := ParseLine(line); ok {
			res.Lines = append(res.Lines, pl)
			inItems = true
			continue
		}

		switch {
		case !inItems || isFooter(line):
		case strings.IndexFunc(line, unicode.IsDigit) < 0:
			last := &res.Lines[len(res.Lines)-1]
			last.Description += " " + line
		default:
			res.SkippedLines++
		}
	}

	if len(res.Lines) == 0 {
		return res, ErrNoLines
	}
	return res, nil
}
