package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return badRequest(c, "Reason is required")
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return badRequest(c, "Invalid target id")
	}

	report, err := h.reportService.Create(user.ID, req.Type, targetID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// List is admin only. Filter with ?status=pending.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	reports, total, err := h.reportService.List(c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"reports":    reports,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *ReportHandler) Action(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report id")
	}

	var req dto.ActionReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.reportService.Action(reportID, admin.ID, req.Status, req.AdminNote)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
