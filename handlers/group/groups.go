package group

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

// GroupHandler handles group-related requests
type GroupHandler struct {
	groupService      *services.GroupService
	enrollmentService *services.EnrollmentService
	validator         *validation.Validator
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, enrollmentService *services.EnrollmentService) *GroupHandler {
	return &GroupHandler{
		groupService:      groupService,
		enrollmentService: enrollmentService,
		validator:         validation.NewValidator(),
	}
}

// CreateGroupRequest creates a group. max_students is optional; omitted or
// 0 means unlimited.
type CreateGroupRequest struct {
	LearningCenterID uint    `json:"learning_center_id"`
	TeacherID        *uint   `json:"teacher_id"`
	Name             string  `json:"name" validate:"required,min=2,max=255"`
	StartDate        string  `json:"start_date" validate:"required,yyyymmdd"`
	EndDate          string  `json:"end_date" validate:"required,yyyymmdd"`
	LessonDays       int     `json:"lesson_days" validate:"gte=1,lte=7"`
	LessonTime       string  `json:"lesson_time" validate:"required,hhmm"`
	MonthlyPrice     float64 `json:"monthly_price" validate:"gte=0"`
	MaxStudents      *int    `json:"max_students" validate:"omitempty,gte=0"`
	Room             string  `json:"room" validate:"omitempty,max=50"`
	Description      string  `json:"description" validate:"omitempty,max=2000"`
}

// UpdateGroupRequest holds optional changes. teacher_id 0 unassigns the
// teacher; max_students 0 removes the limit.
type UpdateGroupRequest struct {
	TeacherID    *uint    `json:"teacher_id"`
	Name         *string  `json:"name" validate:"omitempty,min=2,max=255"`
	StartDate    *string  `json:"start_date" validate:"omitempty,yyyymmdd"`
	EndDate      *string  `json:"end_date" validate:"omitempty,yyyymmdd"`
	LessonDays   *int     `json:"lesson_days" validate:"omitempty,gte=1,lte=7"`
	LessonTime   *string  `json:"lesson_time" validate:"omitempty,hhmm"`
	MonthlyPrice *float64 `json:"monthly_price" validate:"omitempty,gte=0"`
	MaxStudents  *int     `json:"max_students" validate:"omitempty,gte=0"`
	Room         *string  `json:"room" validate:"omitempty,max=50"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	IsActive     *bool    `json:"is_active"`
}

// CreateGroup handles POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupRequest
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

	start, _ := validation.ParseDate(req.StartDate)
	end, _ := validation.ParseDate(req.EndDate)

	group, err := h.groupService.Create(c.UserContext(), services.GroupInput{
		LearningCenterID: centerID,
		TeacherID:        req.TeacherID,
		Name:             validation.SanitizeString(req.Name),
		StartDate:        start,
		EndDate:          end,
		LessonDays:       req.LessonDays,
		LessonTime:       req.LessonTime,
		MonthlyPrice:     req.MonthlyPrice,
		MaxStudents:      req.MaxStudents,
		Room:             req.Room,
		Description:      req.Description,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, group)
}

// ListGroups handles GET /api/v1/groups
func (h *GroupHandler) ListGroups(c *fiber.Ctx) error {
	centerID := middleware.CallerFrom(c).ScopeCenter()
	if centerID == 0 {
		if requested := query.OptionalUint(c, "learning_center_id"); requested != nil {
			centerID = *requested
		}
	}

	p := query.ParsePagination(c)
	groups, total, err := h.groupService.List(c.UserContext(), services.GroupFilter{
		CenterID:  centerID,
		TeacherID: query.OptionalUint(c, "teacher_id"),
		Active:    query.OptionalBool(c, "active"),
		Search:    c.Query("search"),
		Page:      p,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, groups, response.CalculatePagination(p.Page, p.Limit, total))
}

// GetGroup handles GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid group ID")
	}
	if ok, err := middleware.Guard(c, h.groupService.CenterOf, id); !ok {
		return err
	}

	group, err := h.groupService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, group)
}

// ListGroupStudents handles GET /api/v1/groups/:id/students
func (h *GroupHandler) ListGroupStudents(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid group ID")
	}

	status := model.MembershipStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return response.BadRequest(c, "status must be one of ACTIVE, LEFT, BLOCKED")
	}

	if ok, err := middleware.Guard(c, h.groupService.CenterOf, id); !ok {
		return err
	}

	members, err := h.groupService.Members(c.UserContext(), id, status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, members)
}

// UpdateGroup handles PUT /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid group ID")
	}

	var req UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.groupService.CenterOf, id); !ok {
		return err
	}

	in := services.UpdateGroupInput{
		Name:         req.Name,
		LessonDays:   req.LessonDays,
		LessonTime:   req.LessonTime,
		MonthlyPrice: req.MonthlyPrice,
		MaxStudents:  req.MaxStudents,
		Room:         req.Room,
		Description:  req.Description,
		IsActive:     req.IsActive,
		StartDate:    optionalDate(req.StartDate),
		EndDate:      optionalDate(req.EndDate),
	}
	if req.TeacherID != nil {
		if *req.TeacherID == 0 {
			in.ClearTeacher = true
		} else {
			in.TeacherID = req.TeacherID
		}
	}

	group, err := h.groupService.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, group)
}

// DeleteGroup handles DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid group ID")
	}
	if ok, err := middleware.Guard(c, h.groupService.CenterOf, id); !ok {
		return err
	}

	if err := h.groupService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Group deleted successfully", nil)
}

// RecomputeGroup handles POST /api/v1/groups/:id/recompute (admin only)
func (h *GroupHandler) RecomputeGroup(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid group ID")
	}

	group, err := h.enrollmentService.RecomputeGroup(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, group)
}

// DeleteMembership handles DELETE /api/v1/groups/:id/memberships/:membershipId
// (admin only). The membership row is erased and the counter recomputed.
func (h *GroupHandler) DeleteMembership(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid group ID")
	}
	membershipID, err := query.ParamID(c, "membershipId")
	if err != nil {
		return response.BadRequest(c, "Invalid membership ID")
	}

	group, err := h.enrollmentService.DeleteMembership(c.UserContext(), id, membershipID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Membership deleted", group)
}

// optionalDate parses a validated YYYY-MM-DD pointer
func optionalDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := validation.ParseDate(*raw)
	if err != nil {
		return nil
	}
	return &t
}
