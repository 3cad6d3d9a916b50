// Package spreadsheet reads stock count sheets and writes sales reports as
// .xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CountRow is one counted product from a stock count sheet. A row names the
// product by id or by barcode.
type CountRow struct {
	Row       int    `json:"row"`
	ProductID uint   `json:"product_id,omitempty"`
	Barcode   string `json:"barcode,omitempty"`
	Counted   int    `json:"counted"`
	Notes     string `json:"notes,omitempty"`
}

var countHeaderAliases = map[string]string{
	"product id": "product_id",
	"id":         "product_id",
	"barcode":    "barcode",
	"sku":        "barcode",
	"counted":    "counted",
	"count":      "counted",
	"quantity":   "counted",
	"qty":        "counted",
	"notes":      "notes",
	"note":       "notes",
}

// ParseStockCount reads the first sheet of an xlsx stock count.
func ParseStockCount(reader io.Reader) ([]CountRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	colMap := mapColumns(rows[0])
	if _, ok := colMap["counted"]; !ok {
		return nil, fmt.Errorf("missing required column: counted")
	}
	_, hasID := colMap["product_id"]
	_, hasBarcode := colMap["barcode"]
	if !hasID && !hasBarcode {
		return nil, fmt.Errorf("missing required column: product_id or barcode")
	}

	result := make([]CountRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		row := CountRow{Row: index + 1}

		if idx, ok := colMap["product_id"]; ok {
			if raw := strings.TrimSpace(readCell(cells, idx)); raw != "" {
				id, err := parseInt(raw)
				if err != nil || id <= 0 {
					return nil, fmt.Errorf("row %d invalid product_id", index+1)
				}
				row.ProductID = uint(id)
			}
		}
		if idx, ok := colMap["barcode"]; ok {
			row.Barcode = strings.TrimSpace(readCell(cells, idx))
		}
		if row.ProductID == 0 && row.Barcode == "" {
			// blank line
			continue
		}

		counted, err := parseInt(readCell(cells, colMap["counted"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid counted: %w", index+1, err)
		}
		if counted < 0 {
			return nil, fmt.Errorf("row %d counted must not be negative", index+1)
		}
		row.Counted = counted

		if idx, ok := colMap["notes"]; ok {
			row.Notes = strings.TrimSpace(readCell(cells, idx))
		}
		result = append(result, row)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no valid data rows")
	}
	return result, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		canonical, ok := countHeaderAliases[normalizeHeader(col)]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	return strings.Join(strings.Fields(value), " ")
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	asFloat, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(asFloat), nil
}
