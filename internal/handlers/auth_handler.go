package handlers

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/config"
	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/middleware"
	"github.com/readflowhq/readflow-backend/internal/oauth"
	"github.com/readflowhq/readflow-backend/internal/services"
)

const (
	sessionCookie = "rf_session"
	refreshCookie = "refreshToken"
	stateCookie   = "oauth_state"
)

type AuthHandler struct {
	authService *services.AuthService
	provider    oauth.Provider
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, provider oauth.Provider, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, provider: provider, cfg: cfg}
}

// SendOTP mails a login code to the given address. The code is bound
// to an opaque session cookie so only the browser that requested it
// can redeem it.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "Email is required")
	}

	sessionID := c.Cookies(sessionCookie)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := h.authService.SendOTP(c.Context(), sessionID, req.Email, req.Captcha); err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		MaxAge:   int(h.cfg.OTPExpiry.Seconds()),
		HTTPOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(dto.SendOTPResponse{Email: req.Email, Message: "Verification code sent"})
}

// VerifyOTP redeems the mailed code and establishes a session. The
// refresh token never reaches the response body, only the cookie.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Code == "" {
		return badRequest(c, "Email and code are required")
	}

	sessionID := c.Cookies(sessionCookie)
	if sessionID == "" {
		return respondError(c, services.ErrNoCodeIssued)
	}

	result, err := h.authService.VerifyOTP(c.Context(), sessionID, req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}

	h.clearCookie(c, sessionCookie)
	h.setRefreshCookie(c, result.RefreshToken)

	return c.JSON(dto.AuthResponse{
		AccessToken: result.AccessToken,
		User:        dto.NewUserResponse(result.User),
	})
}

// Refresh mints a new access token from the refresh cookie. Any
// failure clears the cookie so the client falls back to a fresh login.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(refreshCookie)
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "token_missing", Message: "No refresh token",
		})
	}

	result, err := h.authService.Refresh(c.Context(), refreshToken)
	if err != nil {
		h.clearCookie(c, refreshCookie)
		return refreshError(c, err)
	}

	if result.RefreshToken != "" {
		h.setRefreshCookie(c, result.RefreshToken)
	}

	return c.JSON(dto.AuthResponse{
		AccessToken: result.AccessToken,
		User:        dto.NewUserResponse(result.User),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "token_missing", Message: "Unauthorized",
		})
	}

	if err := h.authService.Logout(c.Context(), user.ID); err != nil {
		return respondError(c, err)
	}

	h.clearCookie(c, refreshCookie)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// GoogleRedirect starts the OAuth flow. The state nonce is pinned to a
// short lived cookie and checked again on callback.
func (h *AuthHandler) GoogleRedirect(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		MaxAge:   300,
		HTTPOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.provider.AuthURL(state), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	defer h.clearCookie(c, stateCookie)

	if c.Query("state") == "" || c.Query("state") != c.Cookies(stateCookie) {
		return h.oauthErrorRedirect(c, "auth_failed")
	}
	code := c.Query("code")
	if code == "" {
		return h.oauthErrorRedirect(c, "auth_failed")
	}

	profile, err := h.provider.Exchange(c.Context(), code)
	if err != nil {
		return h.oauthErrorRedirect(c, "auth_failed")
	}

	result, err := h.authService.GoogleSignIn(c.Context(), profile)
	if err != nil {
		if errors.Is(err, services.ErrUserInactive) {
			return h.oauthErrorRedirect(c, "no_user")
		}
		return h.oauthErrorRedirect(c, "server_error")
	}

	h.setRefreshCookie(c, result.RefreshToken)

	payload, err := json.Marshal(dto.AuthResponse{
		AccessToken: result.AccessToken,
		User:        dto.NewUserResponse(result.User),
	})
	if err != nil {
		return h.oauthErrorRedirect(c, "server_error")
	}

	target := h.cfg.FrontendURL + "/auth/success?data=" + url.QueryEscape(string(payload))
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	result, err := h.authService.AdminLogin(c.Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(dto.AuthResponse{
		AccessToken: result.AccessToken,
		User:        dto.NewUserResponse(result.User),
	})
}

func (h *AuthHandler) AdminSignup(c *fiber.Ctx) error {
	var req dto.AdminSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.SecretKey == "" {
		return badRequest(c, "Email, password and secret key are required")
	}

	user, err := h.authService.AdminSignup(c.Context(), req.Email, req.Password, req.Name, req.SecretKey)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) oauthErrorRedirect(c *fiber.Ctx, reason string) error {
	return c.Redirect(h.cfg.FrontendURL+"?error="+url.QueryEscape(reason), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/api/auth",
		MaxAge:   int(h.cfg.JWTRefreshExpiry.Seconds()),
		HTTPOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, name string) {
	path := "/"
	if name == refreshCookie {
		path = "/api/auth"
	}
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
