package student

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// StudentHandler handles student and group membership requests
type StudentHandler struct {
	studentService    *services.StudentService
	enrollmentService *services.EnrollmentService
	groupService      *services.GroupService
	validator         *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService *services.StudentService, enrollmentService *services.EnrollmentService, groupService *services.GroupService) *StudentHandler {
	return &StudentHandler{
		studentService:    studentService,
		enrollmentService: enrollmentService,
		groupService:      groupService,
		validator:         validation.NewValidator(),
	}
}

// CreateStudentRequest creates a student and enrolls it into a group
type CreateStudentRequest struct {
	LearningCenterID uint   `json:"learning_center_id"`
	GroupID          uint   `json:"group_id" validate:"required"`
	FullName         string `json:"full_name" validate:"required,min=2,max=255"`
	Phone            string `json:"phone" validate:"required,phone"`
	ParentPhone      string `json:"parent_phone" validate:"required,phone"`
	BirthDate        string `json:"birth_date" validate:"required,yyyymmdd"`
	Address          string `json:"address" validate:"omitempty,max=500"`
}

// MembershipRequest names a student and a group
type MembershipRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	GroupID   uint   `json:"group_id" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=LEFT BLOCKED"`
}

// UpdateStudentRequest holds optional changes
type UpdateStudentRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`
	ParentPhone *string `json:"parent_phone" validate:"omitempty,phone"`
	BirthDate   *string `json:"birth_date" validate:"omitempty,yyyymmdd"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// CreateStudent handles POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *fiber.Ctx) error {
	var req CreateStudentRequest
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

	birthDate, _ := validation.ParseDate(req.BirthDate)
	result, err := h.enrollmentService.CreateStudent(c.UserContext(), centerID, req.GroupID, services.StudentPayload{
		FullName:    validation.SanitizeString(req.FullName),
		Phone:       req.Phone,
		ParentPhone: req.ParentPhone,
		BirthDate:   birthDate,
		Address:     req.Address,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, result)
}

// AddToGroup handles POST /api/v1/students/add-to-group
func (h *StudentHandler) AddToGroup(c *fiber.Ctx) error {
	var req MembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.studentService.CenterOf, req.StudentID); !ok {
		return err
	}

	result, err := h.enrollmentService.AddStudentToGroup(c.UserContext(), req.StudentID, req.GroupID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, result)
}

// RemoveFromGroup handles DELETE /api/v1/students/remove-from-group. The
// membership is kept with status LEFT (default) or BLOCKED.
func (h *StudentHandler) RemoveFromGroup(c *fiber.Ctx) error {
	var req MembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.groupService.CenterOf, req.GroupID); !ok {
		return err
	}

	result, err := h.enrollmentService.WithdrawStudent(c.UserContext(), req.StudentID, req.GroupID, model.MembershipStatus(req.Status))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Student removed from group", result)
}

// ListStudents handles GET /api/v1/students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	centerID := middleware.CallerFrom(c).ScopeCenter()
	if centerID == 0 {
		if requested := query.OptionalUint(c, "learning_center_id"); requested != nil {
			centerID = *requested
		}
	}
	return h.list(c, centerID)
}

// ListCenterStudents handles GET /api/v1/students/learning-center/:id
func (h *StudentHandler) ListCenterStudents(c *fiber.Ctx) error {
	centerID, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid learning center ID")
	}
	if ok, err := middleware.GuardCenter(c, centerID); !ok {
		return err
	}
	return h.list(c, centerID)
}

func (h *StudentHandler) list(c *fiber.Ctx, centerID uint) error {
	p := query.ParsePagination(c)
	students, total, err := h.studentService.List(c.UserContext(), services.StudentFilter{
		CenterID: centerID,
		GroupID:  query.OptionalUint(c, "group_id"),
		Search:   c.Query("search"),
		Page:     p,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, students, response.CalculatePagination(p.Page, p.Limit, total))
}

// GetStudent handles GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}
	if ok, err := middleware.Guard(c, h.studentService.CenterOf, id); !ok {
		return err
	}

	student, err := h.studentService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, student)
}

// UpdateStudent handles PATCH /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.studentService.CenterOf, id); !ok {
		return err
	}

	in := services.UpdateStudentInput{
		FullName:    req.FullName,
		Phone:       req.Phone,
		ParentPhone: req.ParentPhone,
		Address:     req.Address,
		IsActive:    req.IsActive,
	}
	if req.BirthDate != nil {
		if t, err := validation.ParseDate(*req.BirthDate); err == nil {
			in.BirthDate = &t
		}
	}

	student, err := h.studentService.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, student)
}

// DeleteStudent handles DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}
	if ok, err := middleware.Guard(c, h.studentService.CenterOf, id); !ok {
		return err
	}

	if err := h.studentService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Student deleted successfully", nil)
}

