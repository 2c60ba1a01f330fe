package invoice

import (
	"testing"

	"controlos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(pos int, qty, price, total string) models.InvoiceLine {
	return models.InvoiceLine{Position: pos, Quantity: dec(qty), UnitPrice: dec(price), Total: dec(total)}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		declared   string
		lines      []models.InvoiceLine
		status     models.InvoiceStatus
		mismatches int
		difference string
	}{
		{
			name:       "exact",
			declared:   "44.40",
			lines:      []models.InvoiceLine{line(0, "4", "2.50", "10.00"), line(1, "3", "7.80", "23.40"), line(2, "10", "1.10", "11.00")},
			status:     models.InvoiceReconciled,
			difference: "0",
		},
		{
			name:       "one cent rounding is tolerated",
			declared:   "10.01",
			lines:      []models.InvoiceLine{line(0, "3", "3.333", "10.00")},
			status:     models.InvoiceReconciled,
			difference: "0.01",
		},
		{
			name:       "declared total off",
			declared:   "50.00",
			lines:      []models.InvoiceLine{line(0, "4", "2.50", "10.00")},
			status:     models.InvoiceMismatch,
			difference: "40",
		},
		{
			name:       "line arithmetic off",
			declared:   "12.00",
			lines:      []models.InvoiceLine{line(0, "4", "2.50", "12.00")},
			status:     models.InvoiceMismatch,
			mismatches: 1,
			difference: "0",
		},
		{
			name:       "no lines",
			declared:   "0",
			status:     models.InvoiceReconciled,
			difference: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.Invoice{ID: 9, DeclaredTotal: dec(tt.declared), Lines: tt.lines}
			rec := Reconcile(inv)

			assert.Equal(t, tt.status, rec.Status)
			assert.Len(t, rec.Mismatches, tt.mismatches)
			assertDec(t, tt.difference, rec.Difference)
			assert.Equal(t, uint(9), rec.InvoiceID)
		})
	}
}

func TestReconcile_MismatchDetail(t *testing.T) {
	inv := &models.Invoice{DeclaredTotal: dec("12.00"), Lines: []models.InvoiceLine{line(3, "4", "2.50", "12.00")}}
	rec := Reconcile(inv)

	require.Len(t, rec.Mismatches, 1)
	m := rec.Mismatches[0]
	assert.Equal(t, 3, m.Position)
	assertDec(t, "10", m.Expected)
	assertDec(t, "2", m.Difference)
}

func TestBuildInvoice(t *testing.T) {
	req := CreateInvoiceRequest{
		Supplier:      " ACME ",
		Number:        "INV-1",
		Date:          "2024-03-05",
		DeclaredTotal: dec("10.00"),
		Lines: []CreateLineRequest{
			{Code: "TM0012", Description: "Buns", Quantity: dec("4"), UnitPrice: dec("2.50"), Total: dec("10.00")},
		},
	}

	inv, err := BuildInvoice(5, req)
	require.NoError(t, err)
	assert.Equal(t, uint(5), inv.RestaurantID)
	assert.Equal(t, "ACME", inv.Supplier)
	assert.Equal(t, "manual", inv.Source)
	assert.Equal(t, models.InvoiceReconciled, inv.Status)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, 0, inv.Lines[0].Position)

	bad := req
	bad.Date = "05/03/2024"
	_, err = BuildInvoice(5, bad)
	assert.Error(t, err)

	bad = req
	bad.Lines = nil
	_, err = BuildInvoice(5, bad)
	assert.Error(t, err)

	bad = req
	bad.Source = "fax"
	_, err = BuildInvoice(5, bad)
	assert.Error(t, err)

	bad = req
	bad.Lines = []CreateLineRequest{{Description: "Buns", Quantity: dec("-1")}}
	_, err = BuildInvoice(5, bad)
	assert.Error(t, err)
}
