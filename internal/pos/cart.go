package pos

import (
	"context"
	"fmt"
	"math"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
)

// CartLine is one requested product and quantity.
type CartLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// ValidatedLine is a cart line checked against the catalog, with the price
// snapshot it will be sold at.
type ValidatedLine struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Available   int             `json:"available"`
}

// Cart is a validated cart ready for checkout.
type Cart struct {
	Lines    []ValidatedLine `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []CartLine) ([]CartLine, error) {
	if len(lines) == 0 {
		return nil, apperrors.ErrEmptyCart
	}
	merged := make([]CartLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, l := range lines {
		if l.ProductID == 0 {
			return nil, apperrors.Validation("cart line is missing a product")
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, apperrors.ErrInvalidQuantity)
		}
		if i, ok := index[l.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt-l.Quantity {
				return nil, fmt.Errorf("product %d: %w", l.ProductID, apperrors.ErrInvalidQuantity)
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// ValidateCart checks every line against current catalog state and prices
// the cart. It writes nothing.
func (e *Engine) ValidateCart(ctx context.Context, lines []CartLine) (*Cart, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(merged))
	for i, l := range merged {
		ids[i] = l.ProductID
	}
	var products []models.Product
	if err := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, apperrors.Storage("load cart products", err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	cart := &Cart{Lines: make([]ValidatedLine, 0, len(merged)), Subtotal: decimal.Zero}
	for _, l := range merged {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", l.ProductID, apperrors.ErrProductNotFound)
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%s: %w", p.Name, apperrors.ErrProductInactive)
		}
		if l.Quantity > p.StockQuantity {
			return nil, &apperrors.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.StockQuantity,
			}
		}

		line := ValidatedLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			LineTotal:   LineTotal(l.Quantity, p.Price),
			Available:   p.StockQuantity,
		}
		cart.Lines = append(cart.Lines, line)
		cart.Subtotal = cart.Subtotal.Add(line.LineTotal)
	}
	return cart, nil
}
