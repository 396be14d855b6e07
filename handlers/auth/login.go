package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/response"
)

// LoginRequest accepts a login name or an email as identifier
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Login = strings.TrimSpace(req.Login)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	ip := c.IP()
	ctx := c.UserContext()

	result, err := h.authService.Login(ctx, req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			// Record failed attempt even if user not found
			h.bruteForceProtection.RecordFailedAttempt(ctx, ip, req.Login)
			return response.Unauthorized(c, "Invalid login or password")
		case errors.Is(err, services.ErrAccountBlocked):
			return response.Forbidden(c, "Account is blocked")
		default:
			return response.FromError(c, err)
		}
	}

	// Clear failed attempts on successful login
	h.bruteForceProtection.RecordSuccessfulAttempt(ctx, ip, req.Login)

	return response.Success(c, result)
}
