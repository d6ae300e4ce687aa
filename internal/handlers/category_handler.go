package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/services"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List returns the active categories shown to readers.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categoryService.ListActive()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *CategoryHandler) ListAll(c *fiber.Ctx) error {
	categories, err := h.categoryService.ListAll()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}
	if displayName == "" {
		return badRequest(c, "Name is required")
	}

	category, err := h.categoryService.Create(admin.ID, displayName, req.Description, req.Color, req.Icon)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid category id")
	}

	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var displayName, description, color, icon *string
	if req.DisplayName != "" {
		displayName = &req.DisplayName
	}
	if req.Description != "" {
		description = &req.Description
	}
	if req.Color != "" {
		color = &req.Color
	}
	if req.Icon != "" {
		icon = &req.Icon
	}

	category, err := h.categoryService.Update(categoryID, displayName, description, color, icon, req.IsActive)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid category id")
	}

	if err := h.categoryService.Delete(categoryID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}
