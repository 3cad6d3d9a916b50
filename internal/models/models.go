package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Payment methods accepted at checkout.
const (
	PaymentCash    = "cash"
	PaymentCard    = "card"
	PaymentDigital = "digital"
)

// ValidPaymentMethod reports whether m is one of the accepted payment methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigital:
		return true
	}
	return false
}

// Movement types. Quantity on a movement is always a magnitude; the type
// decides whether it adds, subtracts or overwrites.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

// ValidMovementType reports whether t is a known movement type.
func ValidMovementType(t string) bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// What caused a movement.
const (
	ReferenceSale    = "sale"
	ReferenceManual  = "manual"
	ReferenceOpening = "opening"
)

// User - someone allowed to log in and ring up sales
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never return this in JSON
	FullName     string    `gorm:"size:150" json:"full_name"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Role         string    `gorm:"size:20;not null;default:cashier" json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Category - grouping for products
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product - the inventory
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	CategoryID    uint            `gorm:"index;not null" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Barcode       *string         `gorm:"uniqueIndex;size:50" json:"barcode"` // NULL when the item has none
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	MinStockLevel int             `gorm:"not null;default:5" json:"min_stock_level"`
	Description   string          `gorm:"type:text" json:"description"`
	ImageURL      string          `gorm:"size:255" json:"image_url"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsLowStock is true once stock drops to or below the reorder level.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// Sale - the transaction header
type Sale struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber  string          `gorm:"uniqueIndex;size:20;not null" json:"invoice_number"`
	CashierID      uint            `gorm:"index;not null" json:"cashier_id"` // Who processed it
	Cashier        *User           `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"final_amount"`
	PaymentMethod  string          `gorm:"size:20;not null" json:"payment_method"`
	CustomerName   string          `gorm:"size:100" json:"customer_name"`
	CustomerPhone  string          `gorm:"size:20" json:"customer_phone"`
	Notes          string          `gorm:"type:text" json:"notes"`
	IdempotencyKey *string         `gorm:"uniqueIndex;size:64" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// SaleItem - one line of a sale. Price and name are snapshots taken at checkout.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"index;not null" json:"sale_id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"size:200" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// StockMovement - one row of the inventory ledger. Rows are never updated.
type StockMovement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"index;not null" json:"product_id"`
	Product       *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	MovementType  string    `gorm:"size:20;not null" json:"movement_type"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	StockBefore   int       `gorm:"not null" json:"stock_before"`
	StockAfter    int       `gorm:"not null" json:"stock_after"`
	ReferenceType string    `gorm:"size:20;index" json:"reference_type"`
	ReferenceID   *uint     `json:"reference_id"`
	Notes         string    `gorm:"type:text" json:"notes"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// All lists every model for AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Sale{},
		&SaleItem{},
		&StockMovement{},
	}
}
