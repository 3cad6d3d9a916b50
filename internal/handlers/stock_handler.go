package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"go-pos-core/internal/ledger"
	"go-pos-core/internal/models"
	"go-pos-core/internal/pos"
	"go-pos-core/internal/spreadsheet"

	"github.com/gin-gonic/gin"
)

// --- POST: /api/stock/adjust ---
func (h *Handlers) AdjustStock(c *gin.Context) {
	var adj pos.StockAdjustment
	if err := c.ShouldBindJSON(&adj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	adj.ActorID, _ = currentUser(c)

	movement, err := h.Engine.AdjustStock(c.Request.Context(), adj)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// --- GET: /api/stock/movements ---
func (h *Handlers) GetMovements(c *gin.Context) {
	productID, _ := strconv.ParseUint(c.Query("product_id"), 10, 64)
	movements, err := ledger.List(c.Request.Context(), h.DB, ledger.Filter{
		ProductID:     uint(productID),
		MovementType:  c.Query("movement_type"),
		ReferenceType: c.Query("reference_type"),
		Limit:         queryInt(c, "limit", 100),
		Offset:        queryInt(c, "offset", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// --- GET: /api/stock/low ---
func (h *Handlers) GetLowStock(c *gin.Context) {
	products, err := h.Catalog.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/stock/reconcile/:id ---
func (h *Handlers) ReconcileStock(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	rec, err := ledger.Reconcile(c.Request.Context(), h.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !rec.Consistent {
		log.Printf("⚠️ Product %d: stock %d but ledger says %d", rec.ProductID, rec.StockQuantity, rec.LedgerStock)
	}
	c.JSON(http.StatusOK, rec)
}

// ImportResult is the outcome of one stock count row.
type ImportResult struct {
	Row         int    `json:"row"`
	ProductID   uint   `json:"product_id,omitempty"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	Error       string `json:"error,omitempty"`
}

// --- POST: /api/stock/import ---
// Applies a physical stock count workbook. Every row becomes its own
// "adjustment" so one bad row never blocks the rest.
func (h *Handlers) ImportStockCount(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	defer src.Close()

	// 2. Parse the workbook
	rows, err := spreadsheet.ParseStockCount(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. Apply row by row
	actorID, _ := currentUser(c)
	results := make([]ImportResult, 0, len(rows))
	applied := 0
	for _, row := range rows {
		res := h.applyCount(c.Request.Context(), row, actorID)
		if res.Error == "" {
			applied++
		}
		results = append(results, res)
	}
	log.Printf("📦 Stock count import: %d/%d rows applied", applied, len(rows))

	c.JSON(http.StatusOK, gin.H{
		"applied": applied,
		"failed":  len(rows) - applied,
		"results": results,
	})
}

func (h *Handlers) applyCount(ctx context.Context, row spreadsheet.CountRow, actorID uint) ImportResult {
	res := ImportResult{Row: row.Row, ProductID: row.ProductID}
	if res.ProductID == 0 {
		p, err := h.Catalog.FindByBarcode(ctx, row.Barcode)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.ProductID = p.ID
	}

	notes := "Stock count import"
	if n := strings.TrimSpace(row.Notes); n != "" {
		notes += ": " + n
	}
	m, err := h.Engine.AdjustStock(ctx, pos.StockAdjustment{
		ProductID:    res.ProductID,
		MovementType: models.MovementAdjustment,
		Quantity:     row.Counted,
		Notes:        notes,
		ActorID:      actorID,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.StockBefore, res.StockAfter = m.StockBefore, m.StockAfter
	return res
}
