package teacher

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// TeacherHandler handles teacher-related requests
type TeacherHandler struct {
	teacherService *services.TeacherService
	validator      *validation.Validator
}

// NewTeacherHandler creates a new teacher handler
func NewTeacherHandler(teacherService *services.TeacherService) *TeacherHandler {
	return &TeacherHandler{
		teacherService: teacherService,
		validator:      validation.NewValidator(),
	}
}

// CreateTeacherRequest creates a teacher and their login. Admins must name
// the learning center.
type CreateTeacherRequest struct {
	LearningCenterID uint    `json:"learning_center_id"`
	FirstName        string  `json:"first_name" validate:"required,min=2,max=100"`
	LastName         string  `json:"last_name" validate:"required,min=2,max=100"`
	Phone            string  `json:"phone" validate:"required,phone"`
	Email            string  `json:"email" validate:"omitempty,email"`
	Subject          string  `json:"subject" validate:"omitempty,max=100"`
	Salary           float64 `json:"salary" validate:"gte=0"`
	Login            string  `json:"login" validate:"required,login"`
	Password         string  `json:"password" validate:"required,password"`
}

// UpdateTeacherRequest holds optional changes
type UpdateTeacherRequest struct {
	FirstName *string  `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string  `json:"last_name" validate:"omitempty,min=2,max=100"`
	Phone     *string  `json:"phone" validate:"omitempty,phone"`
	Email     *string  `json:"email" validate:"omitempty,email"`
	Subject   *string  `json:"subject" validate:"omitempty,max=100"`
	Salary    *float64 `json:"salary" validate:"omitempty,gte=0"`
	IsActive  *bool    `json:"is_active"`
	Password  *string  `json:"password" validate:"omitempty,password"`
}

// CreateTeacher handles POST /api/v1/teachers
func (h *TeacherHandler) CreateTeacher(c *fiber.Ctx) error {
	var req CreateTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	centerID, ok := middleware.CallerFrom(c).TargetCenter(req.LearningCenterID)
	if !ok {
		return response.Forbidden(c, "A valid learning center is required")
	}

	teacher, err := h.teacherService.Create(c.UserContext(), services.CreateTeacherInput{
		LearningCenterID: centerID,
		FirstName:        validation.SanitizeString(req.FirstName),
		LastName:         validation.SanitizeString(req.LastName),
		Phone:            req.Phone,
		Email:            req.Email,
		Subject:          req.Subject,
		Salary:           req.Salary,
		Login:            req.Login,
		Password:         req.Password,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, teacher)
}

// ListTeachers handles GET /api/v1/teachers
func (h *TeacherHandler) ListTeachers(c *fiber.Ctx) error {
	caller := middleware.CallerFrom(c)
	centerID := caller.ScopeCenter()
	if centerID == 0 {
		if requested := query.OptionalUint(c, "learning_center_id"); requested != nil {
			centerID = *requested
		}
	}

	p := query.ParsePagination(c)
	teachers, total, err := h.teacherService.List(c.UserContext(), services.TeacherFilter{
		CenterID: centerID,
		Search:   c.Query("search"),
		Active:   query.OptionalBool(c, "active"),
		Page:     p,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, teachers, response.CalculatePagination(p.Page, p.Limit, total))
}

// GetTeacher handles GET /api/v1/teachers/:id
func (h *TeacherHandler) GetTeacher(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid teacher ID")
	}
	if ok, err := middleware.Guard(c, h.teacherService.CenterOf, id); !ok {
		return err
	}

	teacher, err := h.teacherService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, teacher)
}

// UpdateTeacher handles PUT /api/v1/teachers/:id
func (h *TeacherHandler) UpdateTeacher(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid teacher ID")
	}

	var req UpdateTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.teacherService.CenterOf, id); !ok {
		return err
	}

	teacher, err := h.teacherService.Update(c.UserContext(), id, services.UpdateTeacherInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Subject:   req.Subject,
		Salary:    req.Salary,
		IsActive:  req.IsActive,
		Password:  req.Password,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, teacher)
}

// DeleteTeacher handles DELETE /api/v1/teachers/:id
func (h *TeacherHandler) DeleteTeacher(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid teacher ID")
	}
	if ok, err := middleware.Guard(c, h.teacherService.CenterOf, id); !ok {
		return err
	}

	if err := h.teacherService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Teacher deleted successfully", nil)
}
