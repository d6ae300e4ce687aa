package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/models"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is still in use")
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// ListActive returns the categories shown to readers, ordered by how
// often they are used.
func (s *CategoryService) ListActive() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Where("is_active = ?", true).
		Order("usage_count DESC, name ASC").
		Find(&categories).Error
	return categories, err
}

func (s *CategoryService) ListAll() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *CategoryService) Create(createdBy uuid.UUID, displayName, description, color, icon string) (*models.Category, error) {
	name := strings.ToLower(strings.TrimSpace(displayName))
	if name == "" {
		return nil, ErrCategoryNotFound
	}

	var existing models.Category
	err := s.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, ErrCategoryExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := models.Category{
		Name:        name,
		DisplayName: strings.TrimSpace(displayName),
		Description: description,
		Color:       color,
		Icon:        icon,
		IsActive:    true,
		CreatedByID: createdBy,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) Update(id uuid.UUID, displayName, description, color, icon *string, isActive *bool) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if displayName != nil {
		name := strings.ToLower(strings.TrimSpace(*displayName))
		if name != category.Name {
			var clash int64
			if err := s.db.Model(&models.Category{}).
				Where("name = ? AND id <> ?", name, id).Count(&clash).Error; err != nil {
				return nil, err
			}
			if clash > 0 {
				return nil, ErrCategoryExists
			}
			updates["name"] = name
		}
		updates["display_name"] = strings.TrimSpace(*displayName)
	}
	if description != nil {
		updates["description"] = *description
	}
	if color != nil {
		updates["color"] = *color
	}
	if icon != nil {
		updates["icon"] = *icon
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&category).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}

// Delete removes a category that no post or user references anymore.
func (s *CategoryService) Delete(id uuid.UUID) error {
	var category models.Category
	if err := s.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	var inPosts int64
	if err := s.db.Table("post_categories").Where("category_id = ?", id).Count(&inPosts).Error; err != nil {
		return err
	}
	var inProfiles int64
	if err := s.db.Table("user_categories").Where("category_id = ?", id).Count(&inProfiles).Error; err != nil {
		return err
	}
	if inPosts > 0 || inProfiles > 0 {
		return ErrCategoryInUse
	}

	return s.db.Delete(&category).Error
}

// RecountUsage recomputes every category's usage counter from the
// post associations. Used by the maintenance endpoint.
func (s *CategoryService) RecountUsage() (int64, error) {
	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return 0, err
	}

	var updated int64
	for _, c := range categories {
		var n int64
		if err := s.db.Table("post_categories").Where("category_id = ?", c.ID).Count(&n).Error; err != nil {
			return updated, err
		}
		if int(n) != c.UsageCount {
			if err := s.db.Model(&models.Category{}).Where("id = ?", c.ID).
				UpdateColumn("usage_count", n).Error; err != nil {
				return updated, err
			}
			updated++
		}
	}
	return updated, nil
}
