package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"go-pos-core/internal/ai"
	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/auth"
	"go-pos-core/internal/catalog"
	"go-pos-core/internal/config"
	"go-pos-core/internal/database"
	"go-pos-core/internal/middleware"
	"go-pos-core/internal/models"
	"go-pos-core/internal/pos"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers holds everything the HTTP layer needs.
type Handlers struct {
	DB        *gorm.DB
	Catalog   *catalog.Store
	Engine    *pos.Engine
	Issuer    *auth.Issuer
	Config    *config.Config
	Assistant *ai.Assistant // nil when GEMINI_API_KEY is not set
}

// New wires the handlers over one database.
func New(db *gorm.DB, cfg *config.Config, engine *pos.Engine, issuer *auth.Issuer) *Handlers {
	return &Handlers{
		DB:      db,
		Catalog: catalog.NewStore(db),
		Engine:  engine,
		Issuer:  issuer,
		Config:  cfg,
	}
}

// respondError maps a domain error to a status code. Anything that is not a
// known kind is logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	var short *apperrors.InsufficientStockError
	switch {
	case errors.As(err, &short):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"product_id": short.ProductID,
			"requested":  short.Requested,
			"available":  short.Available,
		})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) (uint, string) {
	id, _ := c.Get(middleware.UserIDKey)
	userID, _ := id.(uint)
	return userID, c.GetString(middleware.RoleKey)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// saleFilter reads the shared sales query string: start_date and end_date
// (YYYY-MM-DD, end inclusive), cashier_id, payment_method, limit, offset.
func saleFilter(c *gin.Context) (database.SaleFilter, error) {
	f := database.SaleFilter{
		PaymentMethod: c.Query("payment_method"),
		Limit:         queryInt(c, "limit", 50),
		Offset:        queryInt(c, "offset", 0),
	}
	if raw := c.Query("start_date"); raw != "" {
		start, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return f, apperrors.Validation("start_date must be YYYY-MM-DD")
		}
		f.Start = &start
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return f, apperrors.Validation("end_date must be YYYY-MM-DD")
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		f.End = &end
	}
	if raw := c.Query("cashier_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, apperrors.Validation("cashier_id must be a number")
		}
		f.CashierID = uint(id)
	}
	return f, nil
}

func isAdmin(role string) bool {
	return role == models.RoleAdmin
}
