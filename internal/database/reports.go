package database

import (
	"context"
	"sort"
	"time"

	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleFilter narrows sale listings and reports. Zero fields are ignored.
type SaleFilter struct {
	Start         *time.Time
	End           *time.Time
	CashierID     uint
	PaymentMethod string
	Limit         int
	Offset        int
}

// Apply adds the filter's WHERE clauses to q.
func (f SaleFilter) Apply(q *gorm.DB) *gorm.DB {
	if f.Start != nil {
		q = q.Where("sales.created_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("sales.created_at <= ?", *f.End)
	}
	if f.CashierID != 0 {
		q = q.Where("sales.cashier_id = ?", f.CashierID)
	}
	if f.PaymentMethod != "" {
		q = q.Where("sales.payment_method = ?", f.PaymentMethod)
	}
	return q
}

// SalesSummary holds the aggregate totals of a set of sales.
type SalesSummary struct {
	Count    int64           `json:"count"`
	Total    decimal.Decimal `json:"total_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Final    decimal.Decimal `json:"final_amount"`
}

// GetSalesReport sums the sales matching f.
func GetSalesReport(ctx context.Context, db *gorm.DB, f SaleFilter) (*SalesSummary, error) {
	var result SalesSummary

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := f.Apply(db.WithContext(ctx).Model(&models.Sale{})).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(total_amount), 0) AS total,
			COALESCE(SUM(discount_amount), 0) AS discount,
			COALESCE(SUM(tax_amount), 0) AS tax,
			COALESCE(SUM(final_amount), 0) AS final`).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TopProduct is one row of the best sellers table.
type TopProduct struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int64           `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopSelling ranks products by units sold within the sales matching f.
// Ties go to the lower product id. f's paging fields are ignored.
func TopSelling(ctx context.Context, db *gorm.DB, f SaleFilter, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	q := db.WithContext(ctx).Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id")
	q = f.Apply(q)

	var rows []TopProduct
	err := q.Select("sale_items.product_id, sale_items.product_name, SUM(sale_items.quantity) AS sold, SUM(sale_items.total_price) AS revenue").
		Group("sale_items.product_id, sale_items.product_name").
		Order("sold DESC").
		Order("sale_items.product_id").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DashboardSummary is the landing page snapshot.
type DashboardSummary struct {
	TotalProducts     int64           `json:"total_products"`
	LowStockProducts  int64           `json:"low_stock_products"`
	TransactionsToday int64           `json:"transactions_today"`
	SalesToday        decimal.Decimal `json:"sales_today"`
	SalesWeek         decimal.Decimal `json:"sales_week"`
	RecentSales       []models.Sale   `json:"recent_sales"`
}

// Dashboard computes the snapshot relative to now.
func Dashboard(ctx context.Context, db *gorm.DB, now time.Time) (*DashboardSummary, error) {
	var d DashboardSummary
	q := db.WithContext(ctx)

	if err := q.Model(&models.Product{}).Where("is_active = ?", true).Count(&d.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := q.Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity <= min_stock_level", true).
		Count(&d.LowStockProducts).Error; err != nil {
		return nil, err
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := startOfDay.AddDate(0, 0, -7)

	today, err := GetSalesReport(ctx, db, SaleFilter{Start: &startOfDay})
	if err != nil {
		return nil, err
	}
	week, err := GetSalesReport(ctx, db, SaleFilter{Start: &weekAgo})
	if err != nil {
		return nil, err
	}
	d.TransactionsToday = today.Count
	d.SalesToday = today.Final
	d.SalesWeek = week.Final

	// Last 5 sales, newest first
	if err := q.Order("created_at DESC").Limit(5).Find(&d.RecentSales).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ValuationItem is one product row of the stock valuation.
type ValuationItem struct {
	ProductID  uint            `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// CategoryGroup is one category block of the valuation (e.g. "DRINKS").
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Valuation is the retail value of everything on the shelves.
type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// StockValuation values active stock at its current selling price, grouped
// by category.
func StockValuation(ctx context.Context, db *gorm.DB) (*Valuation, error) {
	var products []models.Product
	if err := db.WithContext(ctx).Preload("Category").
		Where("is_active = ?", true).
		Order("name").
		Find(&products).Error; err != nil {
		return nil, err
	}

	groups := make(map[string]*CategoryGroup)
	grandTotal := decimal.Zero
	for _, p := range products {
		catName := "Uncategorized"
		if p.Category != nil && p.Category.Name != "" {
			catName = p.Category.Name
		}
		g, ok := groups[catName]
		if !ok {
			g = &CategoryGroup{CategoryName: catName, Subtotal: decimal.Zero}
			groups[catName] = g
		}

		value := p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
		g.Items = append(g.Items, ValuationItem{
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   p.StockQuantity,
			UnitPrice:  p.Price,
			TotalValue: value,
		})
		g.Subtotal = g.Subtotal.Add(value)
		grandTotal = grandTotal.Add(value)
	}

	out := &Valuation{GrandTotal: grandTotal}
	for _, g := range groups {
		out.Categories = append(out.Categories, *g)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return out, nil
}
