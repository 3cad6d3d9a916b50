package handlers

import (
	"net/http"

	"go-pos-core/internal/catalog"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetCategories(c *gin.Context) {
	_, role := currentUser(c)
	categories, err := h.Catalog.ListCategories(c.Request.Context(), !isAdmin(role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handlers) AddCategory(c *gin.Context) {
	var input catalog.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input catalog.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	category, err := h.Catalog.UpdateCategory(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handlers) SetCategoryActive(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input activeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	category, err := h.Catalog.SetCategoryActive(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// --- DELETE: Remove an unused category ---
// Categories that still have products are refused with 409.
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
