package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"go-pos-core/internal/database"
	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestParseStockCount(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Product_ID", "Barcode", "Counted", "Notes"},
		{12, "", 7, "back room"},
		{"", "4006381333931", "1,200", ""},
		{"", "", "", ""},
		{3, "", 0, ""},
	})

	rows, err := ParseStockCount(buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, CountRow{Row: 2, ProductID: 12, Counted: 7, Notes: "back room"}, rows[0])
	assert.Equal(t, "4006381333931", rows[1].Barcode)
	assert.Equal(t, 1200, rows[1].Counted)
	assert.Equal(t, 0, rows[2].Counted)
}

func TestParseStockCountErrors(t *testing.T) {
	cases := map[string][][]any{
		"no count column":   {{"Barcode", "Notes"}, {"1", "x"}},
		"no product column": {{"Counted"}, {5}},
		"fractional count":  {{"ID", "Qty"}, {1, 2.5}},
		"negative count":    {{"ID", "Qty"}, {1, -3}},
		"no data":           {{"ID", "Qty"}},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStockCount(workbook(t, rows))
			assert.Error(t, err)
		})
	}

	_, err := ParseStockCount(bytes.NewBufferString("not a workbook"))
	assert.Error(t, err)
}

func TestWriteSalesReport(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	report := SalesReport{
		Sales: []models.Sale{
			{
				InvoiceNumber: "INV-0000ABCD", CreatedAt: when, CashierID: 2, PaymentMethod: "cash",
				Cashier:        &models.User{ID: 2, Username: "till2", FullName: "Rina Akter"},
				CustomerName:   "Jane",
				TotalAmount:    decimal.RequireFromString("65.00"),
				DiscountAmount: decimal.RequireFromString("5.00"),
				TaxAmount:      decimal.RequireFromString("1.50"),
				FinalAmount:    decimal.RequireFromString("61.50"),
			},
		},
		Summary: database.SalesSummary{
			Count:    1,
			Total:    decimal.RequireFromString("65.00"),
			Discount: decimal.RequireFromString("5.00"),
			Tax:      decimal.RequireFromString("1.50"),
			Final:    decimal.RequireFromString("61.50"),
		},
		Top: []database.TopProduct{{ProductID: 1, ProductName: "A", Sold: 2, Revenue: decimal.RequireFromString("50")}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSalesReport(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sales", "Top Products"}, f.GetSheetList())

	rows, err := f.GetRows("Sales")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Invoice", rows[0][0])
	assert.Equal(t, "Cashier", rows[0][2])
	assert.Equal(t, []string{"INV-0000ABCD", "2026-03-14 09:30", "Rina Akter", "cash", "Jane", "65", "5", "1.5", "61.5"}, rows[1])
	assert.Equal(t, "TOTAL", rows[2][0])
	assert.Equal(t, "1 sales", rows[2][1])
	assert.Equal(t, "61.5", rows[2][8])

	top, err := f.GetRows("Top Products")
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, []string{"A", "2", "50"}, top[1])
}

func TestCashierName(t *testing.T) {
	cases := map[string]struct {
		sale models.Sale
		want string
	}{
		"full name":    {models.Sale{CashierID: 4, Cashier: &models.User{Username: "till4", FullName: "Karim Hossain"}}, "Karim Hossain"},
		"username":     {models.Sale{CashierID: 4, Cashier: &models.User{Username: "till4", FullName: "  "}}, "till4"},
		"not loaded":   {models.Sale{CashierID: 4}, "#4"},
		"empty record": {models.Sale{CashierID: 9, Cashier: &models.User{}}, "#9"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, cashierName(tc.sale))
		})
	}
}
