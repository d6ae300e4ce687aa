package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Categories").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sets the display name and replaces the user's category
// interests. Unknown category IDs are silently skipped.
func (s *UserService) UpdateProfile(userID uuid.UUID, name string, categoryIDs []uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if name != "" {
		if err := s.db.Model(&user).Update("name", name).Error; err != nil {
			return nil, err
		}
	}

	if categoryIDs != nil {
		var categories []models.Category
		if len(categoryIDs) > 0 {
			if err := s.db.Where("id IN ? AND is_active = ?", categoryIDs, true).Find(&categories).Error; err != nil {
				return nil, err
			}
		}
		if err := s.db.Model(&user).Association("Categories").Replace(categories); err != nil {
			return nil, err
		}
	}

	return s.GetByID(userID)
}
