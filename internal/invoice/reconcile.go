package invoice

import (
	"controlos-backend/internal/models"

	"github.com/shopspring/decimal"
)

var Tolerance = decimal.NewFromFloat(0.01)

type LineMismatch struct {
	Position    int             `json:"position"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Expected    decimal.Decimal `json:"expected"` // quantity * unit price, rounded to cents
	Total       decimal.Decimal `json:"total"`
	Difference  decimal.Decimal `json:"difference"`
}

type Reconciliation struct {
	InvoiceID     uint                 `json:"invoice_id"`
	LinesTotal    decimal.Decimal      `json:"lines_total"`
	DeclaredTotal decimal.Decimal      `json:"declared_total"`
	Difference    decimal.Decimal      `json:"difference"`
	Mismatches    []LineMismatch       `json:"mismatches"`
	Status        models.InvoiceStatus `json:"status"`
}

func withinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerance)
}

// Reconcile compares the sum of line totals with the declared total and every line's
// quantity times unit price with its total.
func Reconcile(inv *models.Invoice) Reconciliation {
	rec := Reconciliation{
		InvoiceID:     inv.ID,
		LinesTotal:    decimal.Zero,
		DeclaredTotal: inv.DeclaredTotal,
		Mismatches:    []LineMismatch{},
	}

	for _, l := range inv.Lines {
		rec.LinesTotal = rec.LinesTotal.Add(l.Total)

		expected := l.Quantity.Mul(l.UnitPrice).Round(2)
		diff := l.Total.Sub(expected)
		if !withinTolerance(diff) {
			rec.Mismatches = append(rec.Mismatches, LineMismatch{
				Position:    l.Position,
				Code:        l.Code,
				Description: l.Description,
				Expected:    expected,
				Total:       l.Total,
				Difference:  diff,
			})
		}
	}

	rec.Difference = inv.DeclaredTotal.Sub(rec.LinesTotal)
	rec.Status = models.InvoiceReconciled
	if !withinTolerance(rec.Difference) || len(rec.Mismatches) > 0 {
		rec.Status = models.InvoiceMismatch
	}
	return rec
}
