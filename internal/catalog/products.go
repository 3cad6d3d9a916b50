// Package catalog owns categories and products: their identity, pricing and
// visibility. It never changes stock on its own except for the opening
// balance of a new product, which goes through the ledger like any other.
package catalog

import (
	"context"
	"errors"
	"strings"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/ledger"
	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultMinStockLevel is the reorder level used when none is given.
const DefaultMinStockLevel = 5

// Store is the catalog backed by a gorm database.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ProductInput describes a new product.
type ProductInput struct {
	Name          string          `json:"name" binding:"required"`
	CategoryID    uint            `json:"category_id" binding:"required"`
	Barcode       string          `json:"barcode"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel *int            `json:"min_stock_level"`
	Description   string          `json:"description"`
}

// ProductUpdate changes product details. Nil fields are left alone. Stock
// only moves through sales and stock adjustments.
type ProductUpdate struct {
	Name          *string          `json:"name"`
	CategoryID    *uint            `json:"category_id"`
	Barcode       *string          `json:"barcode"`
	Price         *decimal.Decimal `json:"price"`
	MinStockLevel *int             `json:"min_stock_level"`
	Description   *string          `json:"description"`
}

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return apperrors.Validation("price must be greater than zero")
	}
	if !p.Equal(p.Round(2)) {
		return apperrors.Validation("price has more than two decimal places")
	}
	return nil
}

func barcodePtr(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}

// CreateProduct adds an active product. Opening stock is written to the
// ledger in the same transaction.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput, actorID uint) (*models.Product, error) {
	// 1. Validate input
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperrors.Validation("product name is required")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if in.StockQuantity < 0 {
		return nil, apperrors.Validation("stock quantity must not be negative")
	}
	minLevel := DefaultMinStockLevel
	if in.MinStockLevel != nil {
		if *in.MinStockLevel < 0 {
			return nil, apperrors.Validation("minimum stock level must not be negative")
		}
		minLevel = *in.MinStockLevel
	}

	p := models.Product{
		Name:          in.Name,
		CategoryID:    in.CategoryID,
		Barcode:       barcodePtr(in.Barcode),
		Price:         in.Price.Round(2),
		StockQuantity: in.StockQuantity,
		MinStockLevel: minLevel,
		Description:   strings.TrimSpace(in.Description),
		IsActive:      true,
	}

	// 2. Save product + opening balance together
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, in.CategoryID); err != nil {
			return err
		}
		if err := tx.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateBarcode
			}
			return apperrors.Storage("create product", err)
		}
		if minLevel == 0 {
			// gorm skips zero values that have a column default
			if err := tx.Model(&p).Update("min_stock_level", 0).Error; err != nil {
				return apperrors.Storage("create product", err)
			}
			p.MinStockLevel = 0
		}
		if p.StockQuantity == 0 {
			return nil
		}
		return ledger.Record(tx, &models.StockMovement{
			ProductID:     p.ID,
			MovementType:  models.MovementIn,
			Quantity:      p.StockQuantity,
			StockBefore:   0,
			StockAfter:    p.StockQuantity,
			ReferenceType: models.ReferenceOpening,
			Notes:         "Opening stock",
			CreatedBy:     actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func categoryExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperrors.Storage("check category", err)
	}
	if n == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// UpdateProduct applies a partial update.
func (s *Store) UpdateProduct(ctx context.Context, id uint, in ProductUpdate) (*models.Product, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("product name is required")
		}
		updates["name"] = name
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		updates["price"] = in.Price.Round(2)
	}
	if in.MinStockLevel != nil {
		if *in.MinStockLevel < 0 {
			return nil, apperrors.Validation("minimum stock level must not be negative")
		}
		updates["min_stock_level"] = *in.MinStockLevel
	}
	if in.Barcode != nil {
		updates["barcode"] = barcodePtr(*in.Barcode)
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}

	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrProductNotFound
			}
			return apperrors.Storage("get product", err)
		}
		if in.CategoryID != nil {
			if err := categoryExists(tx, *in.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *in.CategoryID
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&p).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateBarcode
			}
			return apperrors.Storage("update product", err)
		}
		return tx.First(&p, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetProductActive hides or restores a product. Inactive products cannot be
// sold but keep their history.
func (s *Store) SetProductActive(ctx context.Context, id uint, active bool) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(p).Update("is_active", active).Error; err != nil {
		return nil, apperrors.Storage("update product", err)
	}
	p.IsActive = active
	return p, nil
}

// SetProductImage stores the public URL of an uploaded product photo.
func (s *Store) SetProductImage(ctx context.Context, id uint, url string) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(p).Update("image_url", url).Error; err != nil {
		return nil, apperrors.Storage("update product image", err)
	}
	p.ImageURL = url
	return p, nil
}

// GetProduct loads a product whether or not it is active.
func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Storage("get product", err)
	}
	return &p, nil
}

// FindByBarcode is the scanner lookup. Only sellable products match.
func (s *Store) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation("barcode is required")
	}
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("barcode = ? AND is_active = ?", code, true).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Storage("find product by barcode", err)
	}
	return &p, nil
}

// ProductFilter narrows ListProducts. Zero fields are ignored.
type ProductFilter struct {
	Search      string
	CategoryID  uint
	ActiveOnly  bool
	InStockOnly bool
	Limit       int
	Offset      int
}

// ListProducts returns one page of products and the total match count.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR barcode LIKE ? OR description LIKE ?", like, like, like)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.InStockOnly {
		q = q.Where("stock_quantity > 0")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage("count products", err)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.Product
	if err := q.Preload("Category").Order("name").Find(&out).Error; err != nil {
		return nil, 0, apperrors.Storage("list products", err)
	}
	return out, total, nil
}

// LowStock lists active products at or below their reorder level, emptiest first.
func (s *Store) LowStock(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("is_active = ? AND stock_quantity <= min_stock_level", true).
		Order("stock_quantity ASC").Order("name").
		Find(&out).Error
	if err != nil {
		return nil, apperrors.Storage("list low stock", err)
	}
	return out, nil
}
