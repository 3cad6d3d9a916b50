package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/database"
	"go-pos-core/internal/ledger"
	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errDuplicateSale marks a unique index hit on the sale header itself
// (invoice number or idempotency key).
var errDuplicateSale = errors.New("duplicate sale header")

// SaleRequest is everything needed to commit a validated cart.
type SaleRequest struct {
	Cart           *Cart
	PaymentMethod  string
	DiscountAmount decimal.Decimal
	TaxAmount      *decimal.Decimal // overrides the engine's tax policy when set
	CustomerName   string
	CustomerPhone  string
	Notes          string
	CashierID      uint
	IdempotencyKey string
}

func (r *SaleRequest) validate() error {
	if r.Cart == nil || len(r.Cart.Lines) == 0 {
		return apperrors.ErrEmptyCart
	}
	for _, l := range r.Cart.Lines {
		if l.ProductID == 0 {
			return apperrors.Validation("cart line is missing a product")
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("product %d: %w", l.ProductID, apperrors.ErrInvalidQuantity)
		}
	}
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	if !models.ValidPaymentMethod(r.PaymentMethod) {
		return fmt.Errorf("%q: %w", r.PaymentMethod, apperrors.ErrInvalidPaymentMethod)
	}
	if r.DiscountAmount.IsNegative() {
		return apperrors.Validation("discount must not be negative")
	}
	if r.TaxAmount != nil && r.TaxAmount.IsNegative() {
		return apperrors.Validation("tax must not be negative")
	}
	if r.CashierID == 0 {
		return apperrors.Validation("sale needs a cashier")
	}
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	if len(r.IdempotencyKey) > 64 {
		return apperrors.Validation("idempotency key is longer than 64 characters")
	}
	return nil
}

// Quote prices a validated cart. A nil tax uses the engine's tax policy on
// the discounted subtotal.
func (e *Engine) Quote(cart *Cart, discount decimal.Decimal, tax *decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range cart.Lines {
		subtotal = subtotal.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	t := e.tax.Tax(subtotal.Sub(discount))
	if tax != nil {
		t = *tax
	}
	return ComputeTotals(subtotal, discount, t)
}

// Checkout validates lines and completes the sale in one call. A replayed
// idempotency key returns the recorded sale before the cart is looked at, so
// a retry still gets its receipt after the stock it bought is gone.
func (e *Engine) Checkout(ctx context.Context, lines []CartLine, req SaleRequest) (*models.Sale, error) {
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		existing, err := e.saleByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			e.log.Printf("🔁 Idempotent replay for key %s -> %s", key, existing.InvoiceNumber)
			return existing, nil
		}
	}

	cart, err := e.ValidateCart(ctx, lines)
	if err != nil {
		return nil, err
	}
	req.Cart = cart
	return e.CompleteSale(ctx, req)
}

// CompleteSale commits the sale header, one item per cart line, the stock
// decrements and one "out" movement per line, all or nothing. A request
// that repeats an idempotency key returns the sale already recorded for it.
func (e *Engine) CompleteSale(ctx context.Context, req SaleRequest) (*models.Sale, error) {
	// 1. Validate before touching the database
	if err := req.validate(); err != nil {
		return nil, err
	}

	// 2. Replayed request?
	if req.IdempotencyKey != "" {
		existing, err := e.saleByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			e.log.Printf("🔁 Idempotent replay for key %s -> %s", req.IdempotencyKey, existing.InvoiceNumber)
			return existing, nil
		}
	}

	// 3. Price it
	totals := e.Quote(req.Cart, req.DiscountAmount, req.TaxAmount)
	if totals.Final.IsNegative() {
		e.log.Printf("⚠️ Discount %s exceeds subtotal %s, final amount is %s",
			totals.Discount.StringFixed(2), totals.Subtotal.StringFixed(2), totals.Final.StringFixed(2))
	}

	// 4. Persist, retrying the whole transaction on an invoice collision
	for attempt := 1; attempt <= e.invoiceAttempts; attempt++ {
		invoice := e.newInvoice()
		sale, err := e.persistSale(ctx, req, totals, invoice)
		if err == nil {
			e.log.Printf("🧾 Sale %s completed: %d line(s), final %s", sale.InvoiceNumber, len(sale.Items), sale.FinalAmount.StringFixed(2))
			return sale, nil
		}
		if !errors.Is(err, errDuplicateSale) {
			return nil, err
		}
		if req.IdempotencyKey != "" {
			// a concurrent request with the same key may have won
			existing, lookupErr := e.saleByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		e.log.Printf("Invoice number %s already taken, retrying (%d/%d)", invoice, attempt, e.invoiceAttempts)
	}
	return nil, apperrors.ErrInvoiceExhausted
}

func (e *Engine) persistSale(ctx context.Context, req SaleRequest, totals Totals, invoice string) (*models.Sale, error) {
	sale := models.Sale{
		InvoiceNumber:  invoice,
		CashierID:      req.CashierID,
		TotalAmount:    totals.Subtotal,
		DiscountAmount: totals.Discount,
		TaxAmount:      totals.Tax,
		FinalAmount:    totals.Final,
		PaymentMethod:  req.PaymentMethod,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
		Notes:          req.Notes,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		sale.IdempotencyKey = &key
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&sale).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateSale
			}
			return apperrors.Storage("create sale", err)
		}

		for _, line := range req.Cart.Lines {
			item := models.SaleItem{
				SaleID:      sale.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TotalPrice:  LineTotal(line.Quantity, line.UnitPrice),
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperrors.Storage("create sale item", err)
			}

			before, after, err := decrementStock(tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			saleID := sale.ID
			if err := ledger.Record(tx, &models.StockMovement{
				ProductID:     line.ProductID,
				MovementType:  models.MovementOut,
				Quantity:      line.Quantity,
				StockBefore:   before,
				StockAfter:    after,
				ReferenceType: models.ReferenceSale,
				ReferenceID:   &saleID,
				Notes:         "Sale - Invoice #" + invoice,
				CreatedBy:     req.CashierID,
			}); err != nil {
				return err
			}
			sale.Items = append(sale.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// lockProduct reads a product row under FOR UPDATE.
func lockProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var p models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, apperrors.ErrProductNotFound)
		}
		return nil, apperrors.Storage("lock product", err)
	}
	return &p, nil
}

// decrementStock removes qty from a sellable product. The WHERE guard makes
// the update a no-op instead of a negative balance if stock moved since the
// cart was validated.
func decrementStock(tx *gorm.DB, productID uint, qty int) (before, after int, err error) {
	p, err := lockProduct(tx, productID)
	if err != nil {
		return 0, 0, err
	}
	if !p.IsActive {
		return 0, 0, fmt.Errorf("%s: %w", p.Name, apperrors.ErrProductInactive)
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return 0, 0, apperrors.Storage("decrement stock", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, 0, &apperrors.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   qty,
			Available:   p.StockQuantity,
		}
	}
	return p.StockQuantity, p.StockQuantity - qty, nil
}

func (e *Engine) saleByIdempotencyKey(ctx context.Context, key string) (*models.Sale, error) {
	var sale models.Sale
	err := e.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("idempotency_key = ?", key).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage("lookup idempotency key", err)
	}
	return &sale, nil
}

// GetSale loads a sale with its items.
func (e *Engine) GetSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := e.db.WithContext(ctx).Preload("Cashier").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSaleNotFound
		}
		return nil, apperrors.Storage("get sale", err)
	}
	return &sale, nil
}

// ListSales returns one page of sales, newest first, and the total count.
func (e *Engine) ListSales(ctx context.Context, f database.SaleFilter) ([]models.Sale, int64, error) {
	q := f.Apply(e.db.WithContext(ctx).Model(&models.Sale{}))

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage("count sales", err)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Sale
	if err := q.Preload("Cashier").Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, 0, apperrors.Storage("list sales", err)
	}
	return out, total, nil
}

// SaleEdit is an after-the-fact correction. Nil fields are left alone. Items
// and inventory are never touched by an edit.
type SaleEdit struct {
	CustomerName   *string          `json:"customer_name"`
	CustomerPhone  *string          `json:"customer_phone"`
	PaymentMethod  *string          `json:"payment_method"`
	Notes          *string          `json:"notes"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	TaxAmount      *decimal.Decimal `json:"tax_amount"`
}

// EditSaleTotals changes discount and tax and recomputes the final amount.
func (e *Engine) EditSaleTotals(ctx context.Context, saleID uint, discount, tax decimal.Decimal) (*models.Sale, error) {
	return e.EditSale(ctx, saleID, SaleEdit{DiscountAmount: &discount, TaxAmount: &tax})
}

// EditSale applies a correction and keeps final = total - discount + tax.
func (e *Engine) EditSale(ctx context.Context, saleID uint, in SaleEdit) (*models.Sale, error) {
	updates := map[string]any{}
	if in.CustomerName != nil {
		updates["customer_name"] = strings.TrimSpace(*in.CustomerName)
	}
	if in.CustomerPhone != nil {
		updates["customer_phone"] = strings.TrimSpace(*in.CustomerPhone)
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.PaymentMethod != nil {
		pm := strings.ToLower(strings.TrimSpace(*in.PaymentMethod))
		if !models.ValidPaymentMethod(pm) {
			return nil, fmt.Errorf("%q: %w", pm, apperrors.ErrInvalidPaymentMethod)
		}
		updates["payment_method"] = pm
	}
	if in.DiscountAmount != nil && in.DiscountAmount.IsNegative() {
		return nil, apperrors.Validation("discount must not be negative")
	}
	if in.TaxAmount != nil && in.TaxAmount.IsNegative() {
		return nil, apperrors.Validation("tax must not be negative")
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSaleNotFound
			}
			return apperrors.Storage("lock sale", err)
		}

		discount, tax := sale.DiscountAmount, sale.TaxAmount
		if in.DiscountAmount != nil {
			discount = *in.DiscountAmount
		}
		if in.TaxAmount != nil {
			tax = *in.TaxAmount
		}
		totals := ComputeTotals(sale.TotalAmount, discount, tax)
		updates["discount_amount"] = totals.Discount
		updates["tax_amount"] = totals.Tax
		updates["final_amount"] = totals.Final
		if totals.Final.IsNegative() {
			e.log.Printf("⚠️ Sale %s edited to a negative final amount %s", sale.InvoiceNumber, totals.Final.StringFixed(2))
		}

		if err := tx.Model(&sale).Updates(updates).Error; err != nil {
			return apperrors.Storage("update sale", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.GetSale(ctx, saleID)
}
