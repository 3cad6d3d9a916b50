package ledger

import (
	"context"
	"errors"
	"testing"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/models"
	"go-pos-core/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReplay(t *testing.T) {
	movements := []models.StockMovement{
		{MovementType: models.MovementIn, Quantity: 20},
		{MovementType: models.MovementOut, Quantity: 3},
		{MovementType: models.MovementAdjustment, Quantity: 7},
		{MovementType: models.MovementIn, Quantity: 2},
		{MovementType: models.MovementOut, Quantity: 9},
	}
	assert.Equal(t, 0, Replay(movements))
	assert.Equal(t, 9, Replay(movements[:4]))
	assert.Equal(t, 17, Replay(movements[:2]))
	assert.Equal(t, 0, Replay(nil))
}

func TestApplyRejectsUnknownType(t *testing.T) {
	got, err := Apply(4, "transfer", 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidMovementType)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 4, got)
}

func TestRecordValidates(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.Category(t, db, "Drinks")
	p := testutil.Product(t, db, cat.ID, "Cola", "1.50", 0)

	cases := map[string]models.StockMovement{
		"unknown type":      {ProductID: p.ID, MovementType: "gift", Quantity: 1},
		"negative quantity": {ProductID: p.ID, MovementType: models.MovementIn, Quantity: -1},
		"no product":        {MovementType: models.MovementIn, Quantity: 1},
		"negative result":   {ProductID: p.ID, MovementType: models.MovementOut, Quantity: 1, StockAfter: -1},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			err := Record(db, &m)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
	assert.Zero(t, testutil.Count(t, db, &models.StockMovement{}))
}

func TestRecordRollsBackWithTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	cat := testutil.Category(t, db, "Snacks")
	p := testutil.Product(t, db, cat.ID, "Chips", "2.00", 0)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, Record(tx, &models.StockMovement{
			ProductID:    p.ID,
			MovementType: models.MovementIn,
			Quantity:     4,
			StockAfter:   4,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, testutil.Count(t, db, &models.StockMovement{}))
}

func TestListAndReconcile(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	cat := testutil.Category(t, db, "Bakery")
	bread := testutil.Product(t, db, cat.ID, "Bread", "3.00", 10)
	milk := testutil.Product(t, db, cat.ID, "Milk", "1.20", 4)

	require.NoError(t, Record(db, &models.StockMovement{
		ProductID: bread.ID, MovementType: models.MovementOut, Quantity: 3,
		StockBefore: 10, StockAfter: 7, ReferenceType: models.ReferenceManual,
	}))
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", bread.ID).
		Update("stock_quantity", 7).Error)

	all, err := List(ctx, db, Filter{ProductID: bread.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.MovementOut, all[0].MovementType, "newest first")
	require.NotNil(t, all[0].Product)
	assert.Equal(t, "Bread", all[0].Product.Name)

	manual, err := List(ctx, db, Filter{ReferenceType: models.ReferenceManual})
	require.NoError(t, err)
	assert.Len(t, manual, 1)

	rec, err := Reconcile(ctx, db, bread.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 7, rec.LedgerStock)
	assert.Equal(t, 2, rec.Movements)

	// stock changed behind the ledger's back
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", milk.ID).
		Update("stock_quantity", 9).Error)
	rec, err = Reconcile(ctx, db, milk.ID)
	require.NoError(t, err)
	assert.False(t, rec.Consistent)
	assert.Equal(t, 4, rec.LedgerStock)

	_, err = Reconcile(ctx, db, 999)
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
}
