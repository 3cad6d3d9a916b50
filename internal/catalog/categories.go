package catalog

import (
	"context"
	"errors"
	"strings"

	"go-pos-core/internal/apperrors"
	"go-pos-core/internal/models"

	"gorm.io/gorm"
)

// CategoryInput is what an admin submits to create or rename a category.
type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (in *CategoryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return apperrors.Validation("category name is required")
	}
	if len(in.Name) > 100 {
		return apperrors.Validation("category name is longer than 100 characters")
	}
	return nil
}

// CreateCategory adds an active category. Names are unique.
func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := models.Category{Name: in.Name, Description: in.Description, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Storage("create category", err)
	}
	return &c, nil
}

// GetCategory loads one category.
func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Storage("get category", err)
	}
	return &c, nil
}

// UpdateCategory renames a category or changes its description.
func (s *Store) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(c).Updates(map[string]any{
		"name":        in.Name,
		"description": in.Description,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Storage("update category", err)
	}
	c.Name, c.Description = in.Name, in.Description
	return c, nil
}

// SetCategoryActive enables or disables a category. Disabled categories keep
// their products; they just stop showing in pickers.
func (s *Store) SetCategoryActive(ctx context.Context, id uint, active bool) (*models.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(c).Update("is_active", active).Error; err != nil {
		return nil, apperrors.Storage("update category", err)
	}
	c.IsActive = active
	return c, nil
}

// ListCategories returns categories by name.
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Category
	if err := q.Find(&out).Error; err != nil {
		return nil, apperrors.Storage("list categories", err)
	}
	return out, nil
}

// DeleteCategory removes a category nobody references.
func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return apperrors.Storage("count products", err)
		}
		if n > 0 {
			return apperrors.ErrCategoryInUse
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return apperrors.Storage("delete category", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrCategoryNotFound
		}
		return nil
	})
}
