package pos

import (
	"context"
	"strings"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/ledger"
	"go-pos-core/internal/models"

	"gorm.io/gorm"
)

// StockAdjustment is a manual stock change made by an admin.
//
//	in:         stock += Quantity
//	out:        stock -= Quantity, refused if that goes below zero
//	adjustment: stock  = Quantity (a recount, not a delta)
type StockAdjustment struct {
	ProductID    uint   `json:"product_id" binding:"required"`
	MovementType string `json:"movement_type" binding:"required"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes"`
	ActorID      uint   `json:"-"`
}

func (a *StockAdjustment) validate() error {
	a.MovementType = strings.ToLower(strings.TrimSpace(a.MovementType))
	if !models.ValidMovementType(a.MovementType) {
		return apperrors.ErrInvalidMovementType
	}
	if a.ProductID == 0 {
		return apperrors.Validation("adjustment needs a product")
	}
	switch a.MovementType {
	case models.MovementAdjustment:
		if a.Quantity < 0 {
			return apperrors.Validation("counted quantity must not be negative")
		}
	default:
		if a.Quantity <= 0 {
			return apperrors.ErrInvalidQuantity
		}
	}
	return nil
}

// AdjustStock applies a manual change and records exactly one movement for
// it in the same transaction.
func (e *Engine) AdjustStock(ctx context.Context, adj StockAdjustment) (*models.StockMovement, error) {
	if err := adj.validate(); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the row so concurrent sales wait for us
		p, err := lockProduct(tx, adj.ProductID)
		if err != nil {
			return err
		}

		// 2. Work out the new level
		after, err := ledger.Apply(p.StockQuantity, adj.MovementType, adj.Quantity)
		if err != nil {
			return err
		}
		if after < 0 {
			return &apperrors.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   adj.Quantity,
				Available:   p.StockQuantity,
			}
		}

		// 3. Write it, guarding outgoing stock the same way a sale does
		q := tx.Model(&models.Product{}).Where("id = ?", p.ID)
		var res *gorm.DB
		switch adj.MovementType {
		case models.MovementIn:
			res = q.Update("stock_quantity", gorm.Expr("stock_quantity + ?", adj.Quantity))
		case models.MovementOut:
			res = q.Where("stock_quantity >= ?", adj.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", adj.Quantity))
		case models.MovementAdjustment:
			res = q.Update("stock_quantity", adj.Quantity)
		}
		if res.Error != nil {
			return apperrors.Storage("update stock", res.Error)
		}
		if adj.MovementType == models.MovementOut && res.RowsAffected == 0 {
			return &apperrors.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   adj.Quantity,
				Available:   p.StockQuantity,
			}
		}

		// 4. Ledger entry
		movement = &models.StockMovement{
			ProductID:     p.ID,
			MovementType:  adj.MovementType,
			Quantity:      adj.Quantity,
			StockBefore:   p.StockQuantity,
			StockAfter:    after,
			ReferenceType: models.ReferenceManual,
			Notes:         strings.TrimSpace(adj.Notes),
			CreatedBy:     adj.ActorID,
		}
		return ledger.Record(tx, movement)
	})
	if err != nil {
		return nil, err
	}

	e.log.Printf("📦 Stock %s for product %d: %s", adj.MovementType, adj.ProductID, ledger.Describe(*movement))
	return movement, nil
}
