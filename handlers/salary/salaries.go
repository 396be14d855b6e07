package salary

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// SalaryHandler handles teacher payroll entries
type SalaryHandler struct {
	salaryService  *services.SalaryService
	teacherService *services.TeacherService
	validator      *validation.Validator
}

// NewSalaryHandler creates a new salary handler
func NewSalaryHandler(salaryService *services.SalaryService, teacherService *services.TeacherService) *SalaryHandler {
	return &SalaryHandler{
		salaryService:  salaryService,
		teacherService: teacherService,
		validator:      validation.NewValidator(),
	}
}

// CreateSalaryRequest records a teacher's pay for one month. salary
// defaults to the teacher's base salary.
type CreateSalaryRequest struct {
	TeacherID   uint     `json:"teacher_id" validate:"required"`
	Month       int      `json:"month" validate:"required,gte=1,lte=12"`
	Year        int      `json:"year" validate:"required,gte=2000,lte=2100"`
	Salary      *float64 `json:"salary" validate:"omitempty,gte=0"`
	Bonus       float64  `json:"bonus" validate:"gte=0"`
	Penalty     float64  `json:"penalty" validate:"gte=0"`
	Date        string   `json:"date" validate:"omitempty,yyyymmdd"`
	Description string   `json:"description" validate:"omitempty,max=1000"`
}

// UpdateSalaryRequest holds optional changes
type UpdateSalaryRequest struct {
	Salary      *float64 `json:"salary" validate:"omitempty,gte=0"`
	Bonus       *float64 `json:"bonus" validate:"omitempty,gte=0"`
	Penalty     *float64 `json:"penalty" validate:"omitempty,gte=0"`
	Date        *string  `json:"date" validate:"omitempty,yyyymmdd"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
}

// CreateSalary handles POST /api/v1/salaries
func (h *SalaryHandler) CreateSalary(c *fiber.Ctx) error {
	var req CreateSalaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.teacherService.CenterOf, req.TeacherID); !ok {
		return err
	}

	in := services.SalaryInput{
		TeacherID:   req.TeacherID,
		Month:       req.Month,
		Year:        req.Year,
		Salary:      req.Salary,
		Bonus:       req.Bonus,
		Penalty:     req.Penalty,
		Description: req.Description,
	}
	if req.Date != "" {
		d, _ := validation.ParseDate(req.Date)
		in.Date = &d
	}

	salary, err := h.salaryService.Create(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, salary)
}

// ListSalaries handles GET /api/v1/salaries
func (h *SalaryHandler) ListSalaries(c *fiber.Ctx) error {
	filter := services.SalaryFilter{
		CenterID:  middleware.CallerFrom(c).ScopeCenter(),
		TeacherID: query.OptionalUint(c, "teacher_id"),
		Page:      query.ParsePagination(c),
	}
	if year := c.QueryInt("year"); year > 0 {
		filter.Year = &year
	}
	if month := c.QueryInt("month"); month > 0 {
		filter.Month = &month
	}

	salaries, total, err := h.salaryService.List(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, salaries, response.CalculatePagination(filter.Page.Page, filter.Page.Limit, total))
}

// GetSalary handles GET /api/v1/salaries/:id
func (h *SalaryHandler) GetSalary(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salary ID")
	}
	if ok, err := middleware.Guard(c, h.salaryService.CenterOf, id); !ok {
		return err
	}

	salary, err := h.salaryService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, salary)
}

// UpdateSalary handles PUT /api/v1/salaries/:id
func (h *SalaryHandler) UpdateSalary(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salary ID")
	}

	var req UpdateSalaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.salaryService.CenterOf, id); !ok {
		return err
	}

	in := services.UpdateSalaryInput{
		Salary:      req.Salary,
		Bonus:       req.Bonus,
		Penalty:     req.Penalty,
		Description: req.Description,
	}
	if req.Date != nil {
		if d, err := validation.ParseDate(*req.Date); err == nil {
			in.Date = &d
		}
	}

	salary, err := h.salaryService.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, salary)
}

// DeleteSalary handles DELETE /api/v1/salaries/:id
func (h *SalaryHandler) DeleteSalary(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salary ID")
	}
	if ok, err := middleware.Guard(c, h.salaryService.CenterOf, id); !ok {
		return err
	}

	if err := h.salaryService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Salary deleted successfully", nil)
}
