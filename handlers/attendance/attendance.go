package attendance

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// AttendanceHandler handles attendance marks
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
	groupService      *services.GroupService
	validator         *validation.Validator
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceService *services.AttendanceService, groupService *services.GroupService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		groupService:      groupService,
		validator:         validation.NewValidator(),
	}
}

// CreateAttendanceRequest records one mark. date defaults to today and
// status to PRESENT.
type CreateAttendanceRequest struct {
	GroupID   uint   `json:"group_id" validate:"required"`
	StudentID uint   `json:"student_id" validate:"required"`
	TeacherID *uint  `json:"teacher_id"`
	Date      string `json:"date" validate:"omitempty,yyyymmdd"`
	Status    string `json:"status" validate:"omitempty,oneof=PRESENT ABSENT"`
}

// CreateAttendance handles POST /api/v1/attendance
func (h *AttendanceHandler) CreateAttendance(c *fiber.Ctx) error {
	var req CreateAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.groupService.CenterOf, req.GroupID); !ok {
		return err
	}

	in := services.AttendanceInput{
		GroupID:   req.GroupID,
		StudentID: req.StudentID,
		TeacherID: req.TeacherID,
		Status:    model.AttendanceStatus(req.Status),
	}
	// Teachers always mark as themselves
	if caller := middleware.CallerFrom(c); caller.Role == model.RoleTeacher && caller.TeacherID != 0 {
		teacherID := caller.TeacherID
		in.TeacherID = &teacherID
	}
	if req.Date != "" {
		d, _ := validation.ParseDate(req.Date)
		in.Date = &d
	}

	attendance, err := h.attendanceService.Record(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, attendance)
}

// ListAttendance handles GET /api/v1/attendance
func (h *AttendanceHandler) ListAttendance(c *fiber.Ctx) error {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := validation.ParseDate(raw)
		if err != nil {
			return response.BadRequest(c, "date must be in YYYY-MM-DD format")
		}
		date = &d
	}

	p := query.ParsePagination(c)
	marks, total, err := h.attendanceService.List(c.UserContext(), services.AttendanceFilter{
		CenterID:  middleware.CallerFrom(c).ScopeCenter(),
		GroupID:   query.OptionalUint(c, "group_id"),
		StudentID: query.OptionalUint(c, "student_id"),
		Date:      date,
		Page:      p,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, marks, response.CalculatePagination(p.Page, p.Limit, total))
}

// GetAttendance handles GET /api/v1/attendance/:id
func (h *AttendanceHandler) GetAttendance(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attendance ID")
	}
	if ok, err := middleware.Guard(c, h.attendanceService.CenterOf, id); !ok {
		return err
	}

	attendance, err := h.attendanceService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, attendance)
}

// DeleteAttendance handles DELETE /api/v1/attendance/:id
func (h *AttendanceHandler) DeleteAttendance(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid attendance ID")
	}
	if ok, err := middleware.Guard(c, h.attendanceService.CenterOf, id); !ok {
		return err
	}

	if err := h.attendanceService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Attendance deleted successfully", nil)
}
