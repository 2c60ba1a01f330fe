package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "1.234,56", want: "1234.56"},
		{in: "12,50", want: "12.5"},
		{in: "12.50", want: "12.5"},
		{in: "1.234", want: "1234"},
		{in: "1.234.567", want: "1234567"},
		{in: "€ 3,20", want: "3.2"},
		{in: "3,20 EUR", want: "3.2"},
		{in: "1,234.56", want: "1234.56"},
		{in: "-4,00", want: "-4"},
		{in: "7", want: "7"},
		{in: "", err: true},
		{in: "abc", err: true},
		{in: "1,2,3", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assertDec(t, tt.want, got)
		})
	}
}

func TestParseLine(t *testing.T) {
	t.Run("quantity without unit", func(t *testing.T) {
		l, ok := ParseLine("SC1 Ketchup 10 1,10 11,00")
		require.True(t, ok)
		assert.Equal(t, "SC1", l.Code)
		assert.Equal(t, "Ketchup", l.Description)
		assertDec(t, "10", l.Quantity)
		assert.Empty(t, l.Unit)
		assertDec(t, "1.1", l.UnitPrice)
		assertDec(t, "11", l.Total)
	})

	t.Run("quantity with unit", func(t *testing.T) {
		l, ok := ParseLine("TM0012 Burger buns 4 pack 2,50 10,00")
		require.True(t, ok)
		assert.Equal(t, "Burger buns", l.Description)
		assertDec(t, "4", l.Quantity)
		assert.Equal(t, "pack", l.Unit)
	})

	t.Run("unit glued to quantity", func(t *testing.T) {
		l, ok := ParseLine("CH7 Cheddar slices 2,5kg 8,00 20,00")
		require.True(t, ok)
		assertDec(t, "2.5", l.Quantity)
		assert.Equal(t, "kg", l.Unit)
		assert.Equal(t, "Cheddar slices", l.Description)
	})

	for _, line := range []string{
		"Code Description Qty Unit Unit price Total",
		"Subtotal 44,40",
		"VAT 21% 9,32 1,00 2,00",
		"Burger buns 4 2,50 10,00",
		"TM0012 4 2,50 10,00",
		"TM0012 Burger buns four 2,50 10,00",
	} {
		t.Run("rejects "+line, func(t *testing.T) {
			_, ok := ParseLine(line)
			assert.False(t, ok)
		})
	}
}

const sampleInvoice = `ACME Food Supplies
Supplier: ACME Food Supplies B.V.
Invoice No: INV-2024/0042
Invoice Date: 05.03.2024

Code Description Qty Unit Unit price Total
TM0012 Burger buns 4 pack 2,50 10,00
FR220 Fries frozen 2,5kg 3 bag 7,80 23,40
SC1 Ketchup 10 1,10 11,00
portion cups
Subtotal 44,40
VAT 21% 9,32
Total: 53,72 €
`

func TestParseText(t *testing.T) {
	res, err := ParseText(sampleInvoice)
	require.NoError(t, err)

	assert.Equal(t, "ACME Food Supplies B.V.", res.Supplier)
	assert.Equal(t, "INV-2024/0042", res.Number)
	assert.Equal(t, "2024-03-05", res.Date)
	require.NotNil(t, res.DeclaredTotal)
	assertDec(t, "53.72", *res.DeclaredTotal)

	require.Len(t, res.Lines, 3)
	assert.Equal(t, "Fries frozen 2,5kg", res.Lines[1].Description)
	assert.Equal(t, "bag", res.Lines[1].Unit)
	assert.Equal(t, "Ketchup portion cups", res.Lines[2].Description)
	assert.Zero(t, res.SkippedLines)
}

func TestParseText_NoLines(t *testing.T) {
	res, err := ParseText("Invoice No: 12\nthank you for your order\n")
	assert.ErrorIs(t, err, ErrNoLines)
	require.NotNil(t, res)
	assert.Equal(t, "12", res.Number)
	assert.Empty(t, res.Lines)
}

func TestParseText_DateWithoutLabel(t *testing.T) {
	res, err := ParseText("Delivered 7/11/2024\nA1 Napkins 2 1,00 2,00\n")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-07", res.Date)
}
