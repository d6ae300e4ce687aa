package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/services"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"admin exists", services.ErrAdminExists, fiber.StatusBadRequest, "conflict"},
		{"email taken", services.ErrEmailTaken, fiber.StatusBadRequest, "conflict"},
		{"category exists", services.ErrCategoryExists, fiber.StatusBadRequest, "conflict"},
		{"user not found", services.ErrUserNotFound, fiber.StatusNotFound, "not_found"},
		{"wrapped sentinel", fmt.Errorf("signup: %w", services.ErrAdminExists), fiber.StatusBadRequest, "conflict"},
		{"unmapped", fmt.Errorf("driver blew up"), fiber.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return respondError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.StatusCode)
			}
			var body dto.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if !body.Error || body.Code != tc.code {
				t.Fatalf("expected code %q, got %+v", tc.code, body)
			}
		})
	}
}
