package handlers

import (
	"net/http"

	"go-pos-core/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartRequest is what the register sends to preview a cart.
type CartRequest struct {
	Items          []pos.CartLine   `json:"items" binding:"required"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxAmount      *decimal.Decimal `json:"tax_amount"`
}

// CheckoutRequest is what the register sends to ring up a sale.
type CheckoutRequest struct {
	Items          []pos.CartLine   `json:"items" binding:"required"`
	PaymentMethod  string           `json:"payment_method" binding:"required"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxAmount      *decimal.Decimal `json:"tax_amount"`
	CustomerName   string           `json:"customer_name"`
	CustomerPhone  string           `json:"customer_phone"`
	Notes          string           `json:"notes"`
	IdempotencyKey string           `json:"idempotency_key"`
}

// --- POST: /api/cart/validate ---
// Nothing is written, stock is checked again at checkout.
func (h *Handlers) ValidateCart(c *gin.Context) {
	var req CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	cart, err := h.Engine.ValidateCart(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":   cart,
		"totals": h.Engine.Quote(cart, req.DiscountAmount, req.TaxAmount),
	})
}

// --- POST: /api/checkout ---
func (h *Handlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// The cashier is whoever holds the token
	userID, _ := currentUser(c)
	key := req.IdempotencyKey
	if header := c.GetHeader("Idempotency-Key"); header != "" {
		key = header
	}

	sale, err := h.Engine.Checkout(c.Request.Context(), req.Items, pos.SaleRequest{
		PaymentMethod:  req.PaymentMethod,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Notes:          req.Notes,
		CashierID:      userID,
		IdempotencyKey: key,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Sale successful!",
		"sale_id":        sale.ID,
		"invoice_number": sale.InvoiceNumber,
		"final_amount":   sale.FinalAmount,
		"sale":           sale,
	})
}

// --- GET: /api/sales (admin) ---
func (h *Handlers) GetSales(c *gin.Context) {
	f, err := saleFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	sales, total, err := h.Engine.ListSales(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": total})
}

// --- GET: /api/sales/mine ---
func (h *Handlers) GetMySales(c *gin.Context) {
	f, err := saleFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	f.CashierID, _ = currentUser(c)
	sales, total, err := h.Engine.ListSales(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": total})
}

// --- GET: /api/sales/:id ---
// The receipt. Cashiers only see their own sales.
func (h *Handlers) GetSale(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	sale, err := h.Engine.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	userID, role := currentUser(c)
	if !isAdmin(role) && sale.CashierID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
		return
	}
	c.JSON(http.StatusOK, sale)
}

// --- PUT: /api/sales/:id (admin) ---
// Corrects discount, tax and customer details. Items and stock stay as sold.
func (h *Handlers) UpdateSale(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var edit pos.SaleEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	sale, err := h.Engine.EditSale(c.Request.Context(), id, edit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sale updated successfully", "sale": sale})
}
