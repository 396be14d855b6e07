package auth

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/services/storage"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService          *services.AuthService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest registers a learning center and its owner account. It is
// accepted as JSON or as a multipart form with an optional "logo" file.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Phone    string `json:"phone" form:"phone" validate:"required,phone"`
	Address  string `json:"address" form:"address" validate:"omitempty,max=500"`
	Login    string `json:"login" form:"login" validate:"required,login"`
	Password string `json:"password" form:"password" validate:"required,password"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	req.Login = strings.TrimSpace(req.Login)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	logo, err := formUpload(c, "logo")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Login:    req.Login,
		Password: req.Password,
		Logo:     logo,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, result)
}

// formUpload reads an optional multipart file into memory
func formUpload(c *fiber.Ctx, field string) (*services.Upload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if fh.Size > storage.MaxImageSize {
		return nil, fmt.Errorf("%s must be at most %d MB", field, storage.MaxImageSize>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload", field)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s", field)
	}
	return &services.Upload{Filename: fh.Filename, Data: data}, nil
}
