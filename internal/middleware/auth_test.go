package middleware

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readflowhq/readflow-backend/internal/config"
	"github.com/readflowhq/readflow-backend/internal/models"
	"github.com/readflowhq/readflow-backend/internal/token"
)

func testApp(t *testing.T) (*fiber.App, *gorm.DB, *token.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{JWTAccessSecret: "access-secret"}
	tokens := token.NewService("access-secret", "refresh-secret",
		15*time.Minute, 168*time.Hour, token.PolicySingleSession)

	app := fiber.New()
	app.Get("/protected", JWTProtected(cfg), UserRequired(db), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": CurrentUser(c).Email})
	})
	app.Get("/admin", JWTProtected(cfg), UserRequired(db), AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, db, tokens
}

func mintFor(t *testing.T, tokens *token.Service, user *models.User) string {
	t.Helper()
	access, err := tokens.MintAccess(user)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return access
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	app, _, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRouteWithValidToken(t *testing.T) {
	app, db, tokens := testApp(t)

	user := models.User{Email: "reader@example.com", Role: models.RoleUser, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintFor(t, tokens, &user))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestProtectedRouteDeactivatedUser(t *testing.T) {
	app, db, tokens := testApp(t)

	user := models.User{Email: "reader@example.com", Role: models.RoleUser, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := db.Model(&user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintFor(t, tokens, &user))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for deactivated user", resp.StatusCode)
	}
}

func TestAdminRouteRejectsRegularUser(t *testing.T) {
	app, db, tokens := testApp(t)

	user := models.User{Email: "reader@example.com", Role: models.RoleUser, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+mintFor(t, tokens, &user))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminRouteAllowsAdmin(t *testing.T) {
	app, db, tokens := testApp(t)

	admin := models.User{Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+mintFor(t, tokens, &admin))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
