package pos

import (
	"strings"

	"github.com/google/uuid"
)

// InvoicePrefix starts every invoice number.
const InvoicePrefix = "INV-"

// NewInvoiceNumber returns INV- followed by 8 upper-case hex characters taken
// from a random UUID. Collisions are possible; the unique index on
// sales.invoice_number catches them and the sale is retried.
func NewInvoiceNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return InvoicePrefix + strings.ToUpper(id[:8])
}
