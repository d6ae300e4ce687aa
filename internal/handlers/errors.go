package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/readflowhq/readflow-backend/internal/dto"
	"github.com/readflowhq/readflow-backend/internal/services"
	"github.com/readflowhq/readflow-backend/internal/token"
)

type errorMapping struct {
	status int
	code   string
}

var serviceErrors = map[error]errorMapping{
	services.ErrChallengeRejected:   {fiber.StatusBadRequest, "challenge_rejected"},
	services.ErrInvalidEmail:        {fiber.StatusBadRequest, "validation_failed"},
	services.ErrDeliveryFailed:      {fiber.StatusBadGateway, "delivery_failed"},
	services.ErrNoCodeIssued:        {fiber.StatusBadRequest, "no_code_issued"},
	services.ErrCodeMismatch:        {fiber.StatusBadRequest, "code_mismatch"},
	services.ErrCodeExpired:         {fiber.StatusBadRequest, "code_expired"},
	services.ErrUserInactive:        {fiber.StatusForbidden, "user_inactive"},
	services.ErrTokenSuperseded:     {fiber.StatusForbidden, "token_superseded"},
	services.ErrInvalidCredentials:  {fiber.StatusUnauthorized, "unauthorized"},
	services.ErrAdminExists:         {fiber.StatusBadRequest, "conflict"},
	services.ErrInvalidSetupKey:     {fiber.StatusForbidden, "forbidden"},
	services.ErrUserNotFound:        {fiber.StatusNotFound, "not_found"},
	services.ErrPostNotFound:        {fiber.StatusNotFound, "not_found"},
	services.ErrCommentNotFound:     {fiber.StatusNotFound, "not_found"},
	services.ErrCategoryNotFound:    {fiber.StatusNotFound, "not_found"},
	services.ErrReportNotFound:      {fiber.StatusNotFound, "not_found"},
	services.ErrTargetNotFound:      {fiber.StatusNotFound, "not_found"},
	services.ErrNotAuthor:           {fiber.StatusForbidden, "forbidden"},
	services.ErrAdminImmutable:      {fiber.StatusForbidden, "admin_immutable"},
	services.ErrEmailTaken:          {fiber.StatusBadRequest, "conflict"},
	services.ErrCategoryExists:      {fiber.StatusBadRequest, "conflict"},
	services.ErrCategoryInUse:       {fiber.StatusBadRequest, "conflict"},
	services.ErrInvalidReportType:   {fiber.StatusBadRequest, "validation_failed"},
	services.ErrInvalidReportStatus: {fiber.StatusBadRequest, "validation_failed"},
	services.ErrUnknownMaintenance:  {fiber.StatusBadRequest, "validation_failed"},
	services.ErrUnknownExportType:   {fiber.StatusBadRequest, "validation_failed"},
	token.ErrTokenExpired:           {fiber.StatusUnauthorized, "token_expired"},
	token.ErrTokenInvalid:           {fiber.StatusUnauthorized, "token_invalid"},
}

// respondError translates a service error into the JSON error envelope.
// Unmapped errors become an opaque 500.
func respondError(c *fiber.Ctx, err error) error {
	for sentinel, m := range serviceErrors {
		if errors.Is(err, sentinel) {
			return c.Status(m.status).JSON(dto.ErrorResponse{
				Error: true, Code: m.code, Message: sentinel.Error(),
			})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Code: "internal_error", Message: "Internal server error",
	})
}

// refreshError forces 403 for every failed refresh so the client knows
// the cookie is gone for good and falls back to a fresh login.
func refreshError(c *fiber.Ctx, err error) error {
	code := "token_invalid"
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		code = "token_expired"
	case errors.Is(err, services.ErrTokenSuperseded):
		code = "token_superseded"
	case errors.Is(err, services.ErrUserInactive):
		code = "user_inactive"
	case errors.Is(err, token.ErrTokenInvalid):
	default:
		return respondError(c, err)
	}
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Code: code, Message: "Refresh token rejected",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Code: "validation_failed", Message: message,
	})
}
