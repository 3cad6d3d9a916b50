package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"go-pos-core/internal/database"
	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	salesSheet = "Sales"
	topSheet   = "Top Products"
)

var salesHeader = []any{
	"Invoice", "Date", "Cashier", "Payment", "Customer",
	"Subtotal", "Discount", "Tax", "Final",
}

// SalesReport is the content of an exported sales workbook.
type SalesReport struct {
	Sales   []models.Sale
	Summary database.SalesSummary
	Top     []database.TopProduct
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// cashierName prefers the full name, then the username. The id is the last
// resort when the cashier was not loaded.
func cashierName(s models.Sale) string {
	switch {
	case s.Cashier == nil:
		return fmt.Sprintf("#%d", s.CashierID)
	case strings.TrimSpace(s.Cashier.FullName) != "":
		return s.Cashier.FullName
	case s.Cashier.Username != "":
		return s.Cashier.Username
	}
	return fmt.Sprintf("#%d", s.CashierID)
}

// WriteSalesReport renders r as an xlsx workbook: one row per sale with a
// totals row, plus a best sellers sheet.
func WriteSalesReport(w io.Writer, r SalesReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(salesSheet, "A1", &salesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range r.Sales {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			s.InvoiceNumber,
			s.CreatedAt.Format("2006-01-02 15:04"),
			cashierName(s),
			s.PaymentMethod,
			s.CustomerName,
			money(s.TotalAmount),
			money(s.DiscountAmount),
			money(s.TaxAmount),
			money(s.FinalAmount),
		}
		if err := f.SetSheetRow(salesSheet, cell, &row); err != nil {
			return fmt.Errorf("write sale %s: %w", s.InvoiceNumber, err)
		}
	}

	totalRow := len(r.Sales) + 2
	totalCell, _ := excelize.CoordinatesToCellName(1, totalRow)
	totals := []any{
		"TOTAL", fmt.Sprintf("%d sales", r.Summary.Count), "", "", "",
		money(r.Summary.Total),
		money(r.Summary.Discount),
		money(r.Summary.Tax),
		money(r.Summary.Final),
	}
	if err := f.SetSheetRow(salesSheet, totalCell, &totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(salesHeader), totalRow)
	if err := f.SetCellStyle(salesSheet, "A1", "I1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(salesSheet, totalCell, lastCell, bold); err != nil {
		return fmt.Errorf("style totals: %w", err)
	}

	if _, err := f.NewSheet(topSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := f.SetSheetRow(topSheet, "A1", &[]any{"Product", "Sold", "Revenue"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range r.Top {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(topSheet, cell, &[]any{p.ProductName, p.Sold, money(p.Revenue)}); err != nil {
			return fmt.Errorf("write top product: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
