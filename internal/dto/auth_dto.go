package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/readflowhq/readflow-backend/internal/models"
)

type SendOTPRequest struct {
	Email   string `json:"email"`
	Captcha string `json:"captcha"`
}

type SendOTPResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminSignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	SecretKey string `json:"secret_key"`
}

type UpdateProfileRequest struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// AuthResponse carries the access token; the refresh token travels only
// in the httpOnly cookie.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	Categories []string   `json:"categories,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func NewUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
	for _, c := range u.Categories {
		resp.Categories = append(resp.Categories, c.Name)
	}
	return resp
}

// ErrorResponse is the uniform failure envelope. Code is the
// machine-readable error class.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
