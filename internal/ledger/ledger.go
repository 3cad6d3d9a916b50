// Package ledger is the append-only stock movement log. Every change to a
// product's stock_quantity writes exactly one movement through Record, inside
// the same transaction as the change.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/models"

	"gorm.io/gorm"
)

// Record appends m using tx. Callers pass their open transaction so the
// movement commits or rolls back with the stock change it describes.
func Record(tx *gorm.DB, m *models.StockMovement) error {
	if !models.ValidMovementType(m.MovementType) {
		return apperrors.ErrInvalidMovementType
	}
	if m.Quantity < 0 {
		return apperrors.Validation("movement quantity must not be negative")
	}
	if m.ProductID == 0 {
		return apperrors.Validation("movement needs a product")
	}
	if m.StockAfter < 0 {
		return apperrors.Validation("stock after movement would be %d", m.StockAfter)
	}
	if err := tx.Create(m).Error; err != nil {
		return apperrors.Storage("record stock movement", err)
	}
	return nil
}

// Apply returns the stock level after applying one movement to current.
func Apply(current int, movementType string, quantity int) (int, error) {
	switch movementType {
	case models.MovementIn:
		return current + quantity, nil
	case models.MovementOut:
		return current - quantity, nil
	case models.MovementAdjustment:
		return quantity, nil
	}
	return current, apperrors.ErrInvalidMovementType
}

// Replay folds movements, oldest first, starting from zero stock.
func Replay(movements []models.StockMovement) int {
	stock := 0
	for _, m := range movements {
		// Record never lets an unknown type in
		stock, _ = Apply(stock, m.MovementType, m.Quantity)
	}
	return stock
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	ProductID     uint
	MovementType  string
	ReferenceType string
	ReferenceID   uint
	Limit         int
	Offset        int
}

// List returns movements newest first.
func List(ctx context.Context, db *gorm.DB, f Filter) ([]models.StockMovement, error) {
	q := db.WithContext(ctx).Model(&models.StockMovement{}).Preload("Product")
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.MovementType != "" {
		q = q.Where("movement_type = ?", f.MovementType)
	}
	if f.ReferenceType != "" {
		q = q.Where("reference_type = ?", f.ReferenceType)
	}
	if f.ReferenceID != 0 {
		q = q.Where("reference_id = ?", f.ReferenceID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.StockMovement
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, apperrors.Storage("list stock movements", err)
	}
	return out, nil
}

// Reconciliation compares the stored stock level with what the ledger implies.
type Reconciliation struct {
	ProductID     uint `json:"product_id"`
	StockQuantity int  `json:"stock_quantity"`
	LedgerStock   int  `json:"ledger_stock"`
	Movements     int  `json:"movements"`
	Consistent    bool `json:"consistent"`
}

// Reconcile replays a product's full history and compares it with its stock.
func Reconcile(ctx context.Context, db *gorm.DB, productID uint) (*Reconciliation, error) {
	var p models.Product
	if err := db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Storage("load product", err)
	}

	var movements []models.StockMovement
	if err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&movements).Error; err != nil {
		return nil, apperrors.Storage("load movements", err)
	}

	ledgerStock := Replay(movements)
	return &Reconciliation{
		ProductID:     productID,
		StockQuantity: p.StockQuantity,
		LedgerStock:   ledgerStock,
		Movements:     len(movements),
		Consistent:    ledgerStock == p.StockQuantity,
	}, nil
}

// Describe renders a movement for log lines and notes.
func Describe(m models.StockMovement) string {
	return fmt.Sprintf("%s %d (%d -> %d)", m.MovementType, m.Quantity, m.StockBefore, m.StockAfter)
}
