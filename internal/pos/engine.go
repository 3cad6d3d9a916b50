// Package pos turns carts into sales. It validates carts against the
// catalog, prices them, and commits the sale, its items, the stock
// decrements and their ledger movements as one transaction. Manual stock
// adjustments go through the same engine so every stock change shares one
// locking and ledger path.
package pos

import (
	"io"
	"log"

	"gorm.io/gorm"
)

// DefaultInvoiceAttempts bounds how many invoice numbers a sale tries before
// giving up.
const DefaultInvoiceAttempts = 5

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Tax             TaxPolicy
	InvoiceAttempts int
	InvoiceNumbers  func() string
	Logger          *log.Logger
}

// Engine runs cart validation, checkout, sale corrections and stock
// adjustments against one database.
type Engine struct {
	db              *gorm.DB
	tax             TaxPolicy
	newInvoice      func() string
	invoiceAttempts int
	log             *log.Logger
}

// NewEngine builds an engine over db.
func NewEngine(db *gorm.DB, opts Options) *Engine {
	e := &Engine{
		db:              db,
		tax:             opts.Tax,
		newInvoice:      opts.InvoiceNumbers,
		invoiceAttempts: opts.InvoiceAttempts,
		log:             opts.Logger,
	}
	if e.tax == nil {
		e.tax = NoTax{}
	}
	if e.newInvoice == nil {
		e.newInvoice = NewInvoiceNumber
	}
	if e.invoiceAttempts <= 0 {
		e.invoiceAttempts = DefaultInvoiceAttempts
	}
	if e.log == nil {
		e.log = log.New(io.Discard, "", 0)
	}
	return e
}
