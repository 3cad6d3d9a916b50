// Package apperrors holds the error kinds shared by the catalog, ledger and
// sale engines. Callers branch with errors.Is / errors.As, never on messages.
package apperrors

import (
	"errors"
	"fmt"
)

// Kinds.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage failure")
)

var (
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrProductInactive  = fmt.Errorf("product is inactive: %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrSaleNotFound     = fmt.Errorf("sale %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrEmptyCart            = fmt.Errorf("cart is empty: %w", ErrValidation)
	ErrInvalidQuantity      = fmt.Errorf("quantity must be positive: %w", ErrValidation)
	ErrInvalidMovementType  = fmt.Errorf("invalid movement type: %w", ErrValidation)
	ErrInvalidPaymentMethod = fmt.Errorf("invalid payment method: %w", ErrValidation)

	ErrDuplicateBarcode  = fmt.Errorf("barcode already exists: %w", ErrConflict)
	ErrDuplicateCategory = fmt.Errorf("category name already exists: %w", ErrConflict)
	ErrCategoryInUse     = fmt.Errorf("category still has products: %w", ErrConflict)
	ErrDuplicateUsername = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrInvoiceExhausted  = fmt.Errorf("could not allocate a unique invoice number: %w", ErrConflict)
)

// InsufficientStockError reports which product could not cover a request.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (id %d): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Validation builds a validation error with a field-level message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Storage wraps an unexpected persistence failure. Errors that already carry
// a domain kind pass through untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// IsDomain reports whether err already belongs to one of the kinds above.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStorage)
}
