package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.adminService.Dashboard()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dashboard)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	users, total, err := h.adminService.ListUsers(c.Query("search"), page, limit)
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{
		"users":      responses,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	user, err := h.adminService.GetUser(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var name, email *string
	if req.Name != "" {
		name = &req.Name
	}
	if req.Email != "" {
		email = &req.Email
	}
	categoryIDs, err := parseUUIDs(req.Categories)
	if err != nil {
		return badRequest(c, "Invalid category id in list")
	}

	user, err := h.adminService.UpdateUser(admin.ID, userID, name, email, req.IsActive, categoryIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AdminHandler) ToggleUser(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	user, err := h.adminService.ToggleUser(admin.ID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if err := h.adminService.DeleteUser(admin.ID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

func (h *AdminHandler) BulkUserAction(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	var req dto.BulkUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(req.UserIDs) == 0 {
		return badRequest(c, "At least one user id is required")
	}

	userIDs, err := parseUUIDs(req.UserIDs)
	if err != nil {
		return badRequest(c, "Invalid user id in list")
	}

	affected, skipped, err := h.adminService.BulkUserAction(admin.ID, userIDs, req.Operation)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"affected": affected, "skipped": skipped})
}

func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	analytics, err := h.adminService.Analytics(c.QueryInt("days", 30))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(analytics)
}

func (h *AdminHandler) ExportUsers(c *fiber.Ctx) error {
	format := c.Query("format", "json")

	data, contentType, err := h.adminService.ExportUsers(format)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="users.`+format+`"`)
	return c.Send(data)
}

func (h *AdminHandler) RunMaintenance(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	var req dto.MaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.adminService.RunMaintenance(admin.ID, req.Operation)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *AdminHandler) AuditLogs(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	logs, total, err := h.adminService.AuditLogs(c.Query("action"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"logs":       logs,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) SendNotification(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	var req dto.NotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Message == "" {
		return badRequest(c, "Title and message are required")
	}
	if req.Segment == "" {
		req.Segment = "all"
	}
	userIDs, err := parseUUIDs(req.UserIDs)
	if err != nil {
		return badRequest(c, "Invalid user id in list")
	}

	if err := h.adminService.SendNotification(admin.ID, req.Segment, userIDs, req.Title, req.Message); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{"message": "Notification queued"})
}
