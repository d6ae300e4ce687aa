package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/models"
	"github.com/readflowhq/readflow-backend/internal/services"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Content == "" {
		return badRequest(c, "Title and content are required")
	}

	categoryIDs, err := parseUUIDs(req.Categories)
	if err != nil {
		return badRequest(c, err.Error())
	}

	post, err := h.postService.Create(user.ID, req.Title, req.Content, categoryIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) Feed(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	var categoryID, authorID *uuid.UUID
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid category id")
		}
		categoryID = &id
	}
	if raw := c.Query("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid author id")
		}
		authorID = &id
	}

	posts, total, err := h.postService.Feed(page, limit, categoryID, authorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":      posts,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *PostHandler) Search(c *fiber.Ctx) error {
	term := c.Query("q")
	if term == "" {
		return badRequest(c, "Search term is required")
	}
	page, limit := pageParams(c)

	posts, total, err := h.postService.Search(term, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":      posts,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	post, err := h.postService.GetByID(postID)
	if err != nil {
		return respondError(c, err)
	}

	response := fiber.Map{"post": post}
	if user := middleware.CurrentUser(c); user != nil {
		liked, err := h.postService.HasLiked(postID, user.ID)
		if err != nil {
			return respondError(c, err)
		}
		response["liked"] = liked
	}
	return c.JSON(response)
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	var req dto.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var title, content *string
	if req.Title != "" {
		title = &req.Title
	}
	if req.Content != "" {
		content = &req.Content
	}
	categoryIDs, err := parseUUIDs(req.Categories)
	if err != nil {
		return badRequest(c, err.Error())
	}

	post, err := h.postService.Update(postID, user.ID, title, content, categoryIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	if err := h.postService.Delete(postID, user.ID, user.Role == models.RoleAdmin); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

func (h *PostHandler) ToggleLike(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post id")
	}

	liked, count, err := h.postService.ToggleLike(postID, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked, "like_count": count})
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func pageParams(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
