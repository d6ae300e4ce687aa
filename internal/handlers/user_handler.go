package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "token_missing", Message: "Unauthorized",
		})
	}

	full, err := h.userService.GetByID(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(full))
}

// UpdateProfile sets the display name and category interests.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "token_missing", Message: "Unauthorized",
		})
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var categoryIDs []uuid.UUID
	if req.Categories != nil {
		categoryIDs = make([]uuid.UUID, 0, len(req.Categories))
		for _, raw := range req.Categories {
			id, err := uuid.Parse(raw)
			if err != nil {
				return badRequest(c, "Invalid category id: "+raw)
			}
			categoryIDs = append(categoryIDs, id)
		}
	}

	updated, err := h.userService.UpdateProfile(user.ID, req.Name, categoryIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(updated))
}
