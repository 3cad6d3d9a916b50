// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"go-pos-core/internal/database"
	"go-pos-core/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenDSN("sqlite", "file::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Category inserts an active category.
func Category(t testing.TB, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// Product inserts an active product plus its opening movement.
func Product(t testing.TB, db *gorm.DB, categoryID uint, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		CategoryID:    categoryID,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		MinStockLevel: 5,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	if stock > 0 {
		require.NoError(t, db.Create(&models.StockMovement{
			ProductID:     p.ID,
			MovementType:  models.MovementIn,
			Quantity:      stock,
			StockAfter:    stock,
			ReferenceType: models.ReferenceOpening,
		}).Error)
	}
	return p
}

// User inserts a user with an unusable password hash.
func User(t testing.TB, db *gorm.DB, username, role string) models.User {
	t.Helper()
	u := models.User{Username: username, Role: role, PasswordHash: fmt.Sprintf("x-%s", username)}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Stock reloads the current stock of a product.
func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.StockQuantity
}

// Count returns the number of rows in model's table.
func Count(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
