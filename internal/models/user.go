package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the identity record. Password is only set for password-based
// admin accounts; regular users authenticate via OTP or Google.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name      string     `gorm:"size:100" json:"name"`
	Password  string     `gorm:"size:255" json:"-"`
	Role      string     `gorm:"size:20;default:'user';index" json:"role"`
	GoogleID  *string    `gorm:"size:255;index" json:"-"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`

	// Under the single-session refresh policy, sha256 of the most recently
	// issued refresh token. Empty means no active session.
	RefreshTokenHash string `gorm:"size:64;index" json:"-"`

	Categories []Category `gorm:"many2many:user_categories" json:"categories,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
