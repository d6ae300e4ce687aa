package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a user-authored article. Like and comment counters are
// maintained alongside the PostLike/Comment rows.
type Post struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Title   string `gorm:"size:200;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	Categories []Category `gorm:"many2many:post_categories" json:"categories,omitempty"`

	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostLike tracks who liked a post; at most one row per (post, user).
type PostLike struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_post_user" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
