package payment

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/middleware"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
	"github.com/sahilchouksey/learning-center-api/utils/validation"
)

// PaymentHandler handles student tuition payments
type PaymentHandler struct {
	paymentService *services.PaymentService
	groupService   *services.GroupService
	validator      *validation.Validator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, groupService *services.GroupService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		groupService:   groupService,
		validator:      validation.NewValidator(),
	}
}

// CreatePaymentRequest records a monthly payment. month is YYYY-MM or any
// date inside the month; amount defaults to the group's monthly price.
type CreatePaymentRequest struct {
	StudentID   uint     `json:"student_id" validate:"required"`
	GroupID     uint     `json:"group_id" validate:"required"`
	Month       string   `json:"month" validate:"required"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	PaidAmount  float64  `json:"paid_amount" validate:"gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0"`
	PaymentDate string   `json:"payment_date" validate:"omitempty,yyyymmdd"`
	Description string   `json:"description" validate:"omitempty,max=1000"`
}

// UpdatePaymentRequest holds optional changes
type UpdatePaymentRequest struct {
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	PaidAmount  *float64 `json:"paid_amount" validate:"omitempty,gte=0"`
	Discount    *float64 `json:"discount" validate:"omitempty,gte=0"`
	PaymentDate *string  `json:"payment_date" validate:"omitempty,yyyymmdd"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
}

// ParseMonth accepts YYYY-MM or YYYY-MM-DD
func ParseMonth(raw string) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01", raw, time.UTC); err == nil {
		return t, true
	}
	if t, err := validation.ParseDate(raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	month, ok := ParseMonth(req.Month)
	if !ok {
		return response.BadRequest(c, "month must be in YYYY-MM format")
	}

	if ok, err := middleware.Guard(c, h.groupService.CenterOf, req.GroupID); !ok {
		return err
	}

	in := services.PaymentInput{
		StudentID:   req.StudentID,
		GroupID:     req.GroupID,
		Month:       month,
		Amount:      req.Amount,
		PaidAmount:  req.PaidAmount,
		Discount:    req.Discount,
		Description: req.Description,
	}
	if req.PaymentDate != "" {
		d, _ := validation.ParseDate(req.PaymentDate)
		in.PaymentDate = &d
	}

	payment, err := h.paymentService.Create(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, payment)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	filter := services.PaymentFilter{
		CenterID:  middleware.CallerFrom(c).ScopeCenter(),
		StudentID: query.OptionalUint(c, "student_id"),
		GroupID:   query.OptionalUint(c, "group_id"),
		Page:      query.ParsePagination(c),
	}
	if raw := c.Query("month"); raw != "" {
		month, ok := ParseMonth(raw)
		if !ok {
			return response.BadRequest(c, "month must be in YYYY-MM format")
		}
		filter.Month = &month
	}

	payments, total, err := h.paymentService.List(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, payments, response.CalculatePagination(filter.Page.Page, filter.Page.Limit, total))
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}
	if ok, err := middleware.Guard(c, h.paymentService.CenterOf, id); !ok {
		return err
	}

	payment, err := h.paymentService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, payment)
}

// UpdatePayment handles PUT /api/v1/payments/:id
func (h *PaymentHandler) UpdatePayment(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	var req UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if ok, err := middleware.Guard(c, h.paymentService.CenterOf, id); !ok {
		return err
	}

	in := services.UpdatePaymentInput{
		Amount:      req.Amount,
		PaidAmount:  req.PaidAmount,
		Discount:    req.Discount,
		Description: req.Description,
	}
	if req.PaymentDate != nil {
		if d, err := validation.ParseDate(*req.PaymentDate); err == nil {
			in.PaymentDate = &d
		}
	}

	payment, err := h.paymentService.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, payment)
}

// DeletePayment handles DELETE /api/v1/payments/:id
func (h *PaymentHandler) DeletePayment(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}
	if ok, err := middleware.Guard(c, h.paymentService.CenterOf, id); !ok {
		return err
	}

	if err := h.paymentService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Payment deleted successfully", nil)
}
