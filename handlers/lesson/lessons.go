package lesson

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// LessonHandler handles lesson scheduling
type LessonHandler struct {
	lessonService *services.LessonService
	groupService  *services.GroupService
	validator     *validation.Validator
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessonService *services.LessonService, groupService *services.GroupService) *LessonHandler {
	return &LessonHandler{
		lessonService: lessonService,
		groupService:  groupService,
		validator:     validation.NewValidator(),
	}
}

// CreateLessonRequest schedules a lesson. Teachers may omit teacher_id.
type CreateLessonRequest struct {
	GroupID     uint   `json:"group_id" validate:"required"`
	TeacherID   uint   `json:"teacher_id"`
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	LessonDate  string `json:"lesson_date" validate:"required,yyyymmdd"`
	StartTime   string `json:"start_time" validate:"required,hhmm"`
	EndTime     string `json:"end_time" validate:"required,hhmm"`
}

// UpdateLessonRequest holds optional changes
type UpdateLessonRequest struct {
	TeacherID   *uint   `json:"teacher_id"`
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	LessonDate  *string `json:"lesson_date" validate:"omitempty,yyyymmdd"`
	StartTime   *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime     *string `json:"end_time" validate:"omitempty,hhmm"`
	IsCompleted *bool   `json:"is_completed"`
}

// CreateLesson handles POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.groupService.CenterOf, req.GroupID); !ok {
		return err
	}

	if caller := middleware.CallerFrom(c); caller.Role == model.RoleTeacher {
		req.TeacherID = caller.TeacherID
	}
	if req.TeacherID == 0 {
		return response.BadRequest(c, "teacher_id is required")
	}

	lessonDate, _ := validation.ParseDate(req.LessonDate)
	lesson, err := h.lessonService.Create(c.UserContext(), services.LessonInput{
		GroupID:     req.GroupID,
		TeacherID:   req.TeacherID,
		Name:        validation.SanitizeString(req.Name),
		Description: req.Description,
		LessonDate:  lessonDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, lesson)
}

// ListLessons handles GET /api/v1/lessons
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	p := query.ParsePagination(c)
	lessons, total, err := h.lessonService.List(c.UserContext(), services.LessonFilter{
		CenterID:  middleware.CallerFrom(c).ScopeCenter(),
		GroupID:   query.OptionalUint(c, "group_id"),
		TeacherID: query.OptionalUint(c, "teacher_id"),
		Page:      p,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, lessons, response.CalculatePagination(p.Page, p.Limit, total))
}

// GetLesson handles GET /api/v1/lessons/:id
func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}
	if ok, err := middleware.Guard(c, h.lessonService.CenterOf, id); !ok {
		return err
	}

	lesson, err := h.lessonService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, lesson)
}

// UpdateLesson handles PUT /api/v1/lessons/:id
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.lessonService.CenterOf, id); !ok {
		return err
	}

	in := services.UpdateLessonInput{
		TeacherID:   req.TeacherID,
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsCompleted: req.IsCompleted,
	}
	if req.LessonDate != nil {
		if d, err := validation.ParseDate(*req.LessonDate); err == nil {
			in.LessonDate = &d
		}
	}

	lesson, err := h.lessonService.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, lesson)
}

// CompleteLesson handles PATCH /api/v1/lessons/:id/complete
func (h *LessonHandler) CompleteLesson(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}
	if ok, err := middleware.Guard(c, h.lessonService.CenterOf, id); !ok {
		return err
	}

	lesson, err := h.lessonService.Complete(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, lesson)
}

// DeleteLesson handles DELETE /api/v1/lessons/:id
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}
	if ok, err := middleware.Guard(c, h.lessonService.CenterOf, id); !ok {
		return err
	}

	if err := h.lessonService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Lesson deleted successfully", nil)
}
