package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-pos-core/internal/catalog"

	"github.com/gin-gonic/gin"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// --- GET: List products ---
// Cashiers only see sellable products.
func (h *Handlers) GetProducts(c *gin.Context) {
	_, role := currentUser(c)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	products, total, err := h.Catalog.ListProducts(c.Request.Context(), catalog.ProductFilter{
		Search:      c.Query("search"),
		CategoryID:  uint(categoryID),
		ActiveOnly:  !isAdmin(role) || c.Query("active") == "true",
		InStockOnly: c.Query("in_stock") == "true",
		Limit:       queryInt(c, "limit", 100),
		Offset:      queryInt(c, "offset", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- GET: Barcode scanner lookup ---
func (h *Handlers) ScanProduct(c *gin.Context) {
	product, err := h.Catalog.FindByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func (h *Handlers) AddProduct(c *gin.Context) {
	var input catalog.ProductInput

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Save to DB, opening stock goes to the ledger
	userID, _ := currentUser(c)
	product, err := h.Catalog.CreateProduct(c.Request.Context(), input, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT: Update details or price ---
// Stock is not editable here, it only moves through checkout and stock adjustments.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input catalog.ProductUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// --- PUT: Deactivate or restore ---
// Products are never deleted, they are linked to past sales.
func (h *Handlers) SetProductActive(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input activeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	product, err := h.Catalog.SetProductActive(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- UPLOAD: Product photo ---
func (h *Handlers) UploadProductImage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := h.Catalog.GetProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// 2. Only allow images
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only jpg, png, webp and gif images are allowed"})
		return
	}

	// 3. Generate a safe unique filename, e.g. "product_12_1678901234.jpg"
	filename := fmt.Sprintf("product_%d_%d%s", id, time.Now().Unix(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(h.Config.UploadDir, filename)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	// 4. Point the product at it
	url := strings.TrimRight(h.Config.BaseURL, "/") + "/uploads/" + filename
	product, err := h.Catalog.SetProductImage(c.Request.Context(), id, url)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File uploaded successfully", "url": url, "product": product})
}
