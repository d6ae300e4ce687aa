package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/models"
	"github.com/readflowhq/readflow-backend/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) Add(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Content == "" {
		return badRequest(c, "Content is required")
	}

	comment, err := h.commentService.Add(postID, user.ID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post id")
	}
	page, limit := pageParams(c)

	comments, total, err := h.commentService.ListForPost(postID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"comments":   comments,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid comment id")
	}

	if err := h.commentService.Delete(commentID, user.ID, user.Role == models.RoleAdmin); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
