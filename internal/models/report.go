package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report content types.
const (
	ReportTypePost    = "post"
	ReportTypeUser    = "user"
	ReportTypeComment = "comment"
)

// Report statuses.
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
	ReportStatusResolved = "resolved"
	ReportStatusRejected = "rejected"
)

// Report flags a post, user, or comment for admin review.
type Report struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reporter   User      `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	ContentType string    `gorm:"size:20;not null" json:"content_type"`
	TargetID    uuid.UUID `gorm:"type:uuid;not null;index" json:"target_id"`
	Reason      string    `gorm:"size:500;not null" json:"reason"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNote   string    `gorm:"size:1000" json:"admin_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
