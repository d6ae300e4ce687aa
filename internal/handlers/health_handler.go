package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/database"
	"github.com/readflowhq/readflow-backend/internal/dto"
)

// Pinger reports whether the OTP session backend is reachable.
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	db       *gorm.DB
	sessions Pinger
}

func NewHealthHandler(db *gorm.DB, sessions Pinger) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	sessionStatus := "ok"
	if h.sessions != nil {
		if err := h.sessions.Ping(); err != nil {
			sessionStatus = "unhealthy: " + err.Error()
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Sessions:  sessionStatus,
	})
}
