package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/database"
	"go-pos-core/internal/models"
	"go-pos-core/internal/spreadsheet"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportData defines the shape of our analytics response
type ReportData struct {
	Summary     *database.SalesSummary `json:"summary"`
	TopSelling  []database.TopProduct  `json:"top_selling"`
	RecentSales []models.Sale          `json:"recent_sales"`
}

// --- GET: /api/reports ---
// Totals for the filtered range, best sellers and the latest transactions.
func (h *Handlers) GetSalesReport(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := saleFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// 1. Totals
	summary, err := database.GetSalesReport(ctx, h.DB, f)
	if err != nil {
		respondError(c, apperrors.Storage("sales report", err))
		return
	}

	// 2. Top 5 best sellers
	top, err := database.TopSelling(ctx, h.DB, f, 5)
	if err != nil {
		respondError(c, apperrors.Storage("top selling", err))
		return
	}

	// 3. Last 10 sales in the range
	f.Limit, f.Offset = 10, 0
	recent, _, err := h.Engine.ListSales(ctx, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReportData{Summary: summary, TopSelling: top, RecentSales: recent})
}

// --- GET: /api/reports/dashboard ---
func (h *Handlers) GetDashboard(c *gin.Context) {
	summary, err := database.Dashboard(c.Request.Context(), h.DB, time.Now())
	if err != nil {
		respondError(c, apperrors.Storage("dashboard", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation values everything on the shelves at its selling price
func (h *Handlers) GetStockValuation(c *gin.Context) {
	valuation, err := database.StockValuation(c.Request.Context(), h.DB)
	if err != nil {
		respondError(c, apperrors.Storage("stock valuation", err))
		return
	}
	c.JSON(http.StatusOK, valuation)
}

// --- GET: /api/reports/sales.xlsx ---
// Same filters as /api/sales, without paging.
func (h *Handlers) ExportSales(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := saleFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	f.Limit, f.Offset = 0, 0

	sales, _, err := h.Engine.ListSales(ctx, f)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := database.GetSalesReport(ctx, h.DB, f)
	if err != nil {
		respondError(c, apperrors.Storage("sales report", err))
		return
	}
	top, err := database.TopSelling(ctx, h.DB, f, 10)
	if err != nil {
		respondError(c, apperrors.Storage("top selling", err))
		return
	}

	filename := fmt.Sprintf("sales_report_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := spreadsheet.WriteSalesReport(c.Writer, spreadsheet.SalesReport{
		Sales:   sales,
		Summary: *summary,
		Top:     top,
	}); err != nil {
		// headers are gone already
		c.Error(err)
	}
}
