package database_test

import (
	"context"
	"testing"
	"time"

	"go-pos-core/internal/database"
	"go-pos-core/internal/models"
	"go-pos-core/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func sale(t *testing.T, db *gorm.DB, invoice string, cashierID uint, method, final string, at time.Time, items ...models.SaleItem) {
	t.Helper()
	amount := decimal.RequireFromString(final)
	require.NoError(t, db.Create(&models.Sale{
		InvoiceNumber:  invoice,
		CashierID:      cashierID,
		TotalAmount:    amount,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		FinalAmount:    amount,
		PaymentMethod:  method,
		CreatedAt:      at,
		Items:          items,
	}).Error)
}

func item(productID uint, name string, qty int, total string) models.SaleItem {
	return models.SaleItem{
		ProductID:   productID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(total).Div(decimal.NewFromInt(int64(qty))),
		TotalPrice:  decimal.RequireFromString(total),
	}
}

func TestSalesReportAndTopSelling(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Now()
	cat := testutil.Category(t, db, "Produce")
	apple := testutil.Product(t, db, cat.ID, "Apple", "0.50", 100)
	pear := testutil.Product(t, db, cat.ID, "Pear", "0.80", 100)
	ann := testutil.User(t, db, "ann", models.RoleCashier)
	ben := testutil.User(t, db, "ben", models.RoleCashier)

	sale(t, db, "INV-R0000001", ann.ID, "cash", "5.00", now, item(apple.ID, "Apple", 10, "5.00"))
	sale(t, db, "INV-R0000002", ben.ID, "card", "4.00", now, item(pear.ID, "Pear", 5, "4.00"))
	sale(t, db, "INV-R0000003", ann.ID, "card", "1.50", now.AddDate(0, 0, -3), item(apple.ID, "Apple", 3, "1.50"))

	all, err := database.GetSalesReport(ctx, db, database.SaleFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Count)
	assert.Equal(t, "10.50", all.Final.StringFixed(2))
	assert.Equal(t, "0.00", all.Discount.StringFixed(2))

	cards, err := database.GetSalesReport(ctx, db, database.SaleFilter{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, cards.Count)
	assert.Equal(t, "5.50", cards.Final.StringFixed(2))

	start := now.Add(-time.Hour)
	recentAnn, err := database.GetSalesReport(ctx, db, database.SaleFilter{Start: &start, CashierID: ann.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, recentAnn.Count)
	assert.Equal(t, "5.00", recentAnn.Total.StringFixed(2))

	future := now.Add(time.Hour)
	none, err := database.GetSalesReport(ctx, db, database.SaleFilter{Start: &future})
	require.NoError(t, err)
	assert.EqualValues(t, 0, none.Count)
	assert.True(t, none.Final.IsZero())

	top, err := database.TopSelling(ctx, db, database.SaleFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Apple", top[0].ProductName)
	assert.EqualValues(t, 13, top[0].Sold)
	assert.Equal(t, "6.50", top[0].Revenue.StringFixed(2))
}

func TestTopSellingHonoursFilter(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Now()
	cat := testutil.Category(t, db, "Snacks")
	chips := testutil.Product(t, db, cat.ID, "Chips", "1.00", 100)
	nuts := testutil.Product(t, db, cat.ID, "Nuts", "2.00", 100)
	gum := testutil.Product(t, db, cat.ID, "Gum", "0.50", 100)
	ann := testutil.User(t, db, "ann", models.RoleCashier)
	ben := testutil.User(t, db, "ben", models.RoleCashier)

	// last month's bulk order would dominate an unfiltered ranking
	sale(t, db, "INV-T0000001", ann.ID, "cash", "50.00", now.AddDate(0, -1, 0), item(chips.ID, "Chips", 50, "50.00"))
	sale(t, db, "INV-T0000002", ann.ID, "cash", "8.00", now, item(nuts.ID, "Nuts", 4, "8.00"))
	sale(t, db, "INV-T0000003", ben.ID, "card", "3.00", now, item(chips.ID, "Chips", 2, "2.00"), item(gum.ID, "Gum", 2, "1.00"))

	all, err := database.TopSelling(ctx, db, database.SaleFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Chips", all[0].ProductName)
	assert.EqualValues(t, 52, all[0].Sold)

	start := now.Add(-time.Hour)
	recent, err := database.TopSelling(ctx, db, database.SaleFilter{Start: &start}, 5)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Nuts", recent[0].ProductName)
	assert.EqualValues(t, 4, recent[0].Sold)
	assert.Equal(t, "8.00", recent[0].Revenue.StringFixed(2))
	// chips and gum tie on two units, lower product id first
	assert.Equal(t, chips.ID, recent[1].ProductID)
	assert.EqualValues(t, 2, recent[1].Sold)
	assert.Equal(t, "2.00", recent[1].Revenue.StringFixed(2))
	assert.Equal(t, gum.ID, recent[2].ProductID)

	byBen, err := database.TopSelling(ctx, db, database.SaleFilter{CashierID: ben.ID, PaymentMethod: "card"}, 1)
	require.NoError(t, err)
	require.Len(t, byBen, 1)
	assert.Equal(t, chips.ID, byBen[0].ProductID)

	end := now.AddDate(0, 0, -7)
	old, err := database.TopSelling(ctx, db, database.SaleFilter{End: &end}, 5)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.EqualValues(t, 50, old[0].Sold)

	future := now.Add(time.Hour)
	none, err := database.TopSelling(ctx, db, database.SaleFilter{Start: &future}, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	cat := testutil.Category(t, db, "Dairy")
	testutil.Product(t, db, cat.ID, "Milk", "1.10", 40)
	testutil.Product(t, db, cat.ID, "Butter", "2.40", 3)
	cheese := testutil.Product(t, db, cat.ID, "Cheese", "4.00", 1)
	require.NoError(t, db.Model(&cheese).Update("is_active", false).Error)
	u := testutil.User(t, db, "u", models.RoleCashier)

	sale(t, db, "INV-D0000001", u.ID, "cash", "2.20", now)
	sale(t, db, "INV-D0000002", u.ID, "cash", "7.00", now.AddDate(0, 0, -2))
	sale(t, db, "INV-D0000003", u.ID, "cash", "9.00", now.AddDate(0, 0, -30))

	d, err := database.Dashboard(context.Background(), db, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalProducts)
	assert.EqualValues(t, 1, d.LowStockProducts)
	assert.EqualValues(t, 1, d.TransactionsToday)
	assert.Equal(t, "2.20", d.SalesToday.StringFixed(2))
	assert.Equal(t, "9.20", d.SalesWeek.StringFixed(2))
	require.Len(t, d.RecentSales, 3)
	assert.Equal(t, "INV-D0000001", d.RecentSales[0].InvoiceNumber)
}

func TestStockValuation(t *testing.T) {
	db := testutil.NewDB(t)
	drinks := testutil.Category(t, db, "Drinks")
	bakery := testutil.Category(t, db, "Bakery")
	testutil.Product(t, db, drinks.ID, "Water", "0.75", 20)
	testutil.Product(t, db, drinks.ID, "Juice", "2.10", 5)
	testutil.Product(t, db, bakery.ID, "Bagel", "1.25", 8)

	v, err := database.StockValuation(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, v.Categories, 2)
	assert.Equal(t, "Bakery", v.Categories[0].CategoryName)
	assert.Equal(t, "10.00", v.Categories[0].Subtotal.StringFixed(2))
	assert.Equal(t, "Drinks", v.Categories[1].CategoryName)
	assert.Equal(t, "25.50", v.Categories[1].Subtotal.StringFixed(2))
	assert.Equal(t, "35.50", v.GrandTotal.StringFixed(2))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, database.LogLevel("silent"))
	assert.Equal(t, logger.Info, database.LogLevel("info"))
	assert.Equal(t, logger.Warn, database.LogLevel("nonsense"))

	_, err := database.OpenDSN("oracle", "x", logger.Silent)
	assert.Error(t, err)
}
