package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/models"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotAuthor    = errors.New("only the author may modify this post")
)

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) Create(authorID uuid.UUID, title, content string, categoryIDs []uuid.UUID) (*models.Post, error) {
	post := models.Post{
		AuthorID: authorID,
		Title:    strings.TrimSpace(title),
		Content:  content,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if len(categoryIDs) > 0 {
			var categories []models.Category
			if err := tx.Where("id IN ? AND is_active = ?", categoryIDs, true).Find(&categories).Error; err != nil {
				return err
			}
			if err := tx.Model(&post).Association("Categories").Replace(categories); err != nil {
				return err
			}
			for _, c := range categories {
				if err := tx.Model(&models.Category{}).Where("id = ?", c.ID).
					UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(post.ID)
}

func (s *PostService) GetByID(id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Author").Preload("Categories").First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Feed returns posts newest first, optionally restricted to a category
// or an author.
func (s *PostService) Feed(page, limit int, categoryID, authorID *uuid.UUID) ([]models.Post, int64, error) {
	query := s.db.Model(&models.Post{})
	if categoryID != nil {
		query = query.Joins("JOIN post_categories pc ON pc.post_id = posts.id").
			Where("pc.category_id = ?", *categoryID)
	}
	if authorID != nil {
		query = query.Where("author_id = ?", *authorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := query.Preload("Author").Preload("Categories").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostService) Search(term string, page, limit int) ([]models.Post, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	query := s.db.Model(&models.Post{}).
		Where("lower(title) LIKE ? OR lower(content) LIKE ?", pattern, pattern)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := query.Preload("Author").Preload("Categories").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostService) Update(postID, userID uuid.UUID, title, content *string, categoryIDs []uuid.UUID) (*models.Post, error) {
	post, err := s.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	updates := map[string]interface{}{}
	if title != nil {
		updates["title"] = strings.TrimSpace(*title)
	}
	if content != nil {
		updates["content"] = *content
	}
	if len(updates) > 0 {
		if err := s.db.Model(post).Updates(updates).Error; err != nil {
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
		if err := s.db.Model(post).Association("Categories").Replace(categories); err != nil {
			return nil, err
		}
	}

	return s.GetByID(postID)
}

func (s *PostService) Delete(postID, userID uuid.UUID, isAdmin bool) error {
	post, err := s.GetByID(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID && !isAdmin {
		return ErrNotAuthor
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", postID).Error
	})
}

// ToggleLike likes the post for the user, or removes the like if one
// already exists. It returns the new liked state and like count.
func (s *PostService) ToggleLike(postID, userID uuid.UUID) (bool, int, error) {
	post, err := s.GetByID(postID)
	if err != nil {
		return false, 0, err
	}

	liked := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(post).UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			like := models.PostLike{PostID: postID, UserID: userID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			return tx.Model(post).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, 0, err
	}

	var count int
	if err := s.db.Model(&models.Post{}).Select("like_count").Where("id = ?", postID).Scan(&count).Error; err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (s *PostService) HasLiked(postID, userID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	return n > 0, err
}
