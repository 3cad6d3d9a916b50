package ai

import (
	"context"
	"fmt"
	"time"

	"go-pos-core/internal/catalog"
	"go-pos-core/internal/database"

	"github.com/google/generative-ai-go/genai"
	"gorm.io/gorm"
)

// Toolbox holds the read-only functions the model may call.
type Toolbox struct {
	db      *gorm.DB
	catalog *catalog.Store
	now     func() time.Time
}

// NewToolbox builds the tools over db.
func NewToolbox(db *gorm.DB, store *catalog.Store) *Toolbox {
	return &Toolbox{db: db, catalog: store, now: time.Now}
}

// Declarations describes the tools to the model.
func (t *Toolbox) Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_inventory",
			Description: "List active products with ID, name, category, price and stock. Use this to find ANY product detail.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search": {Type: genai.TypeString, Description: "Optional part of a product name or barcode"},
				},
			},
		},
		{
			Name:        "low_stock_items",
			Description: "List active products at or below their minimum stock level.",
		},
		{
			Name:        "get_sales_report",
			Description: "Get sales count and totals (subtotal, discount, tax, final) for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "top_selling",
			Description: "Best selling products by units sold.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"limit": {Type: genai.TypeInteger, Description: "How many products to return (default 5)"},
				},
			},
		},
	}
}

type inventoryRow struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	LowStock bool   `json:"low_stock"`
}

// Execute runs one tool call and returns its JSON-able result.
func (t *Toolbox) Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		search, _ := args["search"].(string)
		products, _, err := t.catalog.ListProducts(ctx, catalog.ProductFilter{Search: search, ActiveOnly: true, Limit: 200})
		if err != nil {
			return nil, err
		}
		rows := make([]inventoryRow, 0, len(products))
		for _, p := range products {
			row := inventoryRow{
				ID:       p.ID,
				Name:     p.Name,
				Price:    p.Price.StringFixed(2),
				Stock:    p.StockQuantity,
				LowStock: p.IsLowStock(),
			}
			if p.Category != nil {
				row.Category = p.Category.Name
			}
			rows = append(rows, row)
		}
		return map[string]any{"inventory": rows}, nil

	case "low_stock_items":
		products, err := t.catalog.LowStock(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(products))
		for _, p := range products {
			rows = append(rows, map[string]any{
				"id": p.ID, "name": p.Name, "stock": p.StockQuantity, "min_stock_level": p.MinStockLevel,
			})
		}
		return map[string]any{"low_stock": rows}, nil

	case "get_sales_report":
		start, err := parseDay(args, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := parseDay(args, "end_date")
		if err != nil {
			return nil, err
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		report, err := database.GetSalesReport(ctx, t.db, database.SaleFilter{Start: &start, End: &end})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"sales_count":     report.Count,
			"subtotal":        report.Total.StringFixed(2),
			"discount_amount": report.Discount.StringFixed(2),
			"tax_amount":      report.Tax.StringFixed(2),
			"revenue":         report.Final.StringFixed(2),
		}, nil

	case "top_selling":
		limit := 5
		if v, ok := args["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}
		top, err := database.TopSelling(ctx, t.db, database.SaleFilter{}, limit)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(top))
		for _, p := range top {
			rows = append(rows, map[string]any{"name": p.ProductName, "sold": p.Sold, "revenue": p.Revenue.StringFixed(2)})
		}
		return map[string]any{"top_selling": rows}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}
