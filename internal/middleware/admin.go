package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/models"
)

// AdminRequired runs after JWTProtected and UserRequired and rejects
// anyone whose account role is not admin.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Code: "token_missing", Message: "Unauthorized",
			})
		}
		if user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Code: "forbidden", Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
