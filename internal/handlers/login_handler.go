package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/auth"
	"go-pos-core/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserRequest creates a staff account.
type UserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (h *Handlers) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperrors.Storage("find user", err))
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT Token
	token, err := h.Issuer.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
		"user_id":  user.ID,
	})
}

// Register is the bootstrap route. The very first account becomes admin,
// every later one is a cashier.
func (h *Handlers) Register(c *gin.Context) {
	var input UserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	// count and insert share a transaction so two racing sign-ups cannot
	// both become admin
	var user *models.User
	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		existing, err := countUsersLocked(tx)
		if err != nil {
			return apperrors.Storage("count users", err)
		}
		input.Role = models.RoleCashier
		if existing == 0 {
			input.Role = models.RoleAdmin
		}
		user, err = createUser(tx, input, hashed)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "user": user})
}

// CreateUser lets an admin add staff.
func (h *Handlers) CreateUser(c *gin.Context) {
	var input UserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Role == "" {
		input.Role = models.RoleCashier
	}
	if input.Role != models.RoleAdmin && input.Role != models.RoleCashier {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be admin or cashier"})
		return
	}
	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := createUser(h.DB.WithContext(c.Request.Context()), input, hashed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// --- GET: /api/users ---
// ListUsers pages through staff accounts, newest first.
func (h *Handlers) ListUsers(c *gin.Context) {
	q := h.DB.WithContext(c.Request.Context()).Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, apperrors.Storage("count users", err))
		return
	}

	users := []models.User{}
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(queryInt(c, "limit", 50)).
		Offset(queryInt(c, "offset", 0)).
		Find(&users).Error
	if err != nil {
		respondError(c, apperrors.Storage("list users", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// countUsersLocked counts accounts and holds off concurrent inserts into
// users until tx ends. SQLite serializes writers on its own.
func countUsersLocked(tx *gorm.DB) (int64, error) {
	q := tx.Model(&models.User{})
	switch tx.Dialector.Name() {
	case "postgres":
		if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return 0, err
		}
	case "mysql":
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func createUser(db *gorm.DB, input UserRequest, hashed string) (*models.User, error) {
	user := models.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hashed,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Role:         input.Role,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, apperrors.Storage("create user", err)
	}
	log.Printf("👤 Created %s account %q", user.Role, user.Username)
	return &user, nil
}
