package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// UpdateProfileRequest changes the caller's account and learning center.
// Multipart requests may include a new "logo".
type UpdateProfileRequest struct {
	Name    *string `json:"name" form:"name" validate:"omitempty,min=2,max=255"`
	Email   *string `json:"email" form:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" form:"phone" validate:"omitempty,phone"`
	Address *string `json:"address" form:"address" validate:"omitempty,max=500"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password,nefield=OldPassword"`
}

// GetProfile handles GET /api/v1/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	user, err := h.authService.Profile(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name != nil {
		name := validation.SanitizeString(*req.Name)
		req.Name = &name
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	logo, err := formUpload(c, "logo")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), userID, services.UpdateProfileInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Logo:    logo,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user)
}

// ChangePassword handles POST /api/v1/auth/change-password. All earlier
// tokens stop working; a fresh pair is returned.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.authService.ChangePassword(c.UserContext(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return response.BadRequest(c, "Current password is incorrect")
		}
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Password changed successfully", result)
}
