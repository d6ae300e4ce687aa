package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a reading-interest tag. Name is lowercase-normalized and
// unique; UsageCount is derived and recomputed by the maintenance job.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	Description string    `gorm:"size:500" json:"description"`
	Color       string    `gorm:"size:20" json:"color"`
	Icon        string    `gorm:"size:50" json:"icon"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	UsageCount  int       `gorm:"default:0" json:"usage_count"`

	CreatedByID uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedBy   User      `gorm:"foreignKey:CreatedByID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
