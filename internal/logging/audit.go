package logging

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/readflowhq/readflow-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit records an administrative or authentication event as a SystemLog
// row. Write failures are logged, never surfaced to the caller.
func Audit(db *gorm.DB, action string, userID *uuid.UUID, details map[string]interface{}) {
	entry := models.SystemLog{
		Timestamp: time.Now(),
		Level:     "AUDIT",
		Message:   action,
		Action:    action,
	}
	if userID != nil {
		s := userID.String()
		entry.UserID = &s
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	if err := db.Create(&entry).Error; err != nil {
		slog.Error("failed to write audit log", "action", action, "error", err)
	}
}
