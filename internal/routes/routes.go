package routes

import (
	"log"
	"time"

	"go-pos-core/internal/handlers"
	"go-pos-core/internal/middleware"
	"go-pos-core/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter registers every route on a fresh gin engine.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)
	r.Static("/uploads", h.Config.UploadDir)

	// --- FEATURE FLAG: Registration ---
	if h.Config.AllowRegistration {
		r.POST("/register", h.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Issuer))
	{
		// CASHIER & ADMIN
		api.GET("/products", h.GetProducts)
		api.GET("/products/scan/:barcode", h.ScanProduct)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.GetCategories)
		api.POST("/cart/validate", h.ValidateCart)
		api.POST("/checkout", h.Checkout)
		api.GET("/sales/mine", h.GetMySales)
		api.GET("/sales/:id", h.GetSale)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.CreateUser)

			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.PUT("/products/:id/active", h.SetProductActive)
			admin.POST("/products/:id/image", h.UploadProductImage)

			admin.POST("/categories", h.AddCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.PUT("/categories/:id/active", h.SetCategoryActive)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.POST("/stock/adjust", h.AdjustStock)
			admin.POST("/stock/import", h.ImportStockCount)
			admin.GET("/stock/movements", h.GetMovements)
			admin.GET("/stock/low", h.GetLowStock)
			admin.GET("/stock/reconcile/:id", h.ReconcileStock)

			admin.GET("/sales", h.GetSales)
			admin.PUT("/sales/:id", h.UpdateSale)

			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/dashboard", h.GetDashboard)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/reports/sales.xlsx", h.ExportSales)

			admin.POST("/ask", h.AskAI)
		}
	}
	return r
}
