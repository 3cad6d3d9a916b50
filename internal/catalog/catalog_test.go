package catalog

import (
	"context"
	"testing"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/ledger"
	"go-pos-core/internal/models"
	"go-pos-core/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	return NewStore(testutil.NewDB(t)), context.Background()
}

func intPtr(v int) *int { return &v }

func TestCategoryLifecycle(t *testing.T) {
	s, ctx := newStore(t)

	c, err := s.CreateCategory(ctx, CategoryInput{Name: "  Drinks "})
	require.NoError(t, err)
	assert.Equal(t, "Drinks", c.Name)
	assert.True(t, c.IsActive)

	_, err = s.CreateCategory(ctx, CategoryInput{Name: "Drinks"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = s.CreateCategory(ctx, CategoryInput{Name: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	c, err = s.UpdateCategory(ctx, c.ID, CategoryInput{Name: "Beverages", Description: "cold"})
	require.NoError(t, err)
	assert.Equal(t, "Beverages", c.Name)

	_, err = s.SetCategoryActive(ctx, c.ID, false)
	require.NoError(t, err)

	active, err := s.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := s.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.UpdateCategory(ctx, 404, CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
}

func TestDeleteCategoryInUse(t *testing.T) {
	s, ctx := newStore(t)
	c, err := s.CreateCategory(ctx, CategoryInput{Name: "Snacks"})
	require.NoError(t, err)
	empty, err := s.CreateCategory(ctx, CategoryInput{Name: "Empty"})
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, ProductInput{Name: "Chips", CategoryID: c.ID, Price: decimal.RequireFromString("2.50")}, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteCategory(ctx, c.ID), apperrors.ErrCategoryInUse)
	assert.NoError(t, s.DeleteCategory(ctx, empty.ID))
	assert.ErrorIs(t, s.DeleteCategory(ctx, empty.ID), apperrors.ErrNotFound)
}

func TestCreateProductRecordsOpeningStock(t *testing.T) {
	s, ctx := newStore(t)
	c, err := s.CreateCategory(ctx, CategoryInput{Name: "Dairy"})
	require.NoError(t, err)

	p, err := s.CreateProduct(ctx, ProductInput{
		Name:          "Milk",
		CategoryID:    c.ID,
		Barcode:       "4006381333931",
		Price:         decimal.RequireFromString("1.25"),
		StockQuantity: 20,
	}, 7)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinStockLevel, p.MinStockLevel)
	assert.True(t, p.IsActive)

	movements, err := ledger.List(ctx, s.db, ledger.Filter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	m := movements[0]
	assert.Equal(t, models.MovementIn, m.MovementType)
	assert.Equal(t, models.ReferenceOpening, m.ReferenceType)
	assert.Equal(t, 20, m.Quantity)
	assert.Equal(t, 20, m.StockAfter)
	assert.Equal(t, uint(7), m.CreatedBy)

	rec, err := ledger.Reconcile(ctx, s.db, p.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestCreateProductValidation(t *testing.T) {
	s, ctx := newStore(t)
	c, err := s.CreateCategory(ctx, CategoryInput{Name: "Misc"})
	require.NoError(t, err)

	price := decimal.RequireFromString("1.00")
	cases := map[string]struct {
		in   ProductInput
		kind error
	}{
		"zero price":       {ProductInput{Name: "A", CategoryID: c.ID, Price: decimal.Zero}, apperrors.ErrValidation},
		"fractional cents": {ProductInput{Name: "A", CategoryID: c.ID, Price: decimal.RequireFromString("1.005")}, apperrors.ErrValidation},
		"negative stock":   {ProductInput{Name: "A", CategoryID: c.ID, Price: price, StockQuantity: -1}, apperrors.ErrValidation},
		"negative min":     {ProductInput{Name: "A", CategoryID: c.ID, Price: price, MinStockLevel: intPtr(-2)}, apperrors.ErrValidation},
		"blank name":       {ProductInput{Name: " ", CategoryID: c.ID, Price: price}, apperrors.ErrValidation},
		"missing category": {ProductInput{Name: "A", CategoryID: 999, Price: price}, apperrors.ErrCategoryNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.CreateProduct(ctx, tc.in, 1)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
	assert.Zero(t, testutil.Count(t, s.db, &models.Product{}))
}

func TestBarcodeUniquenessAndLookup(t *testing.T) {
	s, ctx := newStore(t)
	c, err := s.CreateCategory(ctx, CategoryInput{Name: "Pantry"})
	require.NoError(t, err)
	price := decimal.RequireFromString("3.10")

	rice, err := s.CreateProduct(ctx, ProductInput{Name: "Rice", CategoryID: c.ID, Barcode: "111", Price: price}, 1)
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, ProductInput{Name: "Other Rice", CategoryID: c.ID, Barcode: "111", Price: price}, 1)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateBarcode)

	// products without a barcode never collide
	_, err = s.CreateProduct(ctx, ProductInput{Name: "Beans", CategoryID: c.ID, Price: price}, 1)
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, ProductInput{Name: "Lentils", CategoryID: c.ID, Price: price}, 1)
	require.NoError(t, err)

	found, err := s.FindByBarcode(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, rice.ID, found.ID)
	require.NotNil(t, found.Category)
	assert.Equal(t, "Pantry", found.Category.Name)

	_, err = s.SetProductActive(ctx, rice.ID, false)
	require.NoError(t, err)
	_, err = s.FindByBarcode(ctx, "111")
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)

	// still reachable by id for history screens
	got, err := s.GetProduct(ctx, rice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestUpdateProductLeavesStockAlone(t *testing.T) {
	s, ctx := newStore(t)
	c, err := s.CreateCategory(ctx, CategoryInput{Name: "Fruit"})
	require.NoError(t, err)
	c2, err := s.CreateCategory(ctx, CategoryInput{Name: "Veg"})
	require.NoError(t, err)
	p, err := s.CreateProduct(ctx, ProductInput{Name: "Apple", CategoryID: c.ID, Price: decimal.RequireFromString("0.50"), StockQuantity: 12}, 1)
	require.NoError(t, err)

	newName := "Green Apple"
	newPrice := decimal.RequireFromString("0.65")
	updated, err := s.UpdateProduct(ctx, p.ID, ProductUpdate{Name: &newName, Price: &newPrice, CategoryID: &c2.ID})
	require.NoError(t, err)
	assert.Equal(t, "Green Apple", updated.Name)
	assert.Equal(t, "0.65", updated.Price.StringFixed(2))
	assert.Equal(t, c2.ID, updated.CategoryID)
	assert.Equal(t, 12, updated.StockQuantity)

	bad := decimal.RequireFromString("-1")
	_, err = s.UpdateProduct(ctx, p.ID, ProductUpdate{Price: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	missing := uint(500)
	_, err = s.UpdateProduct(ctx, p.ID, ProductUpdate{CategoryID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrCategoryNotFound)

	_, err = s.UpdateProduct(ctx, 404, ProductUpdate{Name: &newName})
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
}

func TestListProductsAndLowStock(t *testing.T) {
	s, ctx := newStore(t)
	food, err := s.CreateCategory(ctx, CategoryInput{Name: "Food"})
	require.NoError(t, err)
	drink, err := s.CreateCategory(ctx, CategoryInput{Name: "Drink"})
	require.NoError(t, err)
	price := decimal.RequireFromString("1.00")

	mk := func(name string, cat uint, stock, min int) *models.Product {
		p, err := s.CreateProduct(ctx, ProductInput{Name: name, CategoryID: cat, Price: price, StockQuantity: stock, MinStockLevel: intPtr(min)}, 1)
		require.NoError(t, err)
		return p
	}
	mk("Bagel", food.ID, 50, 5)
	mk("Cookie", food.ID, 2, 5)
	water := mk("Water", drink.ID, 0, 0)
	juice := mk("Juice", drink.ID, 3, 10)
	_, err = s.SetProductActive(ctx, juice.ID, false)
	require.NoError(t, err)

	got, total, err := s.ListProducts(ctx, ProductFilter{CategoryID: food.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "Bagel", got[0].Name)

	got, _, err = s.ListProducts(ctx, ProductFilter{ActiveOnly: true, InStockOnly: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, _, err = s.ListProducts(ctx, ProductFilter{Search: "ook"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cookie", got[0].Name)

	got, total, err = s.ListProducts(ctx, ProductFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, got, 2)

	// Water sits at 0 with a reorder level of 0, which still counts as low
	low, err := s.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, water.ID, low[0].ID)
	assert.Equal(t, "Cookie", low[1].Name)
	assert.True(t, low[1].IsLowStock())
}
