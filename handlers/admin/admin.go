package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
)

// AdminHandler serves the operational views for administrators
type AdminHandler struct {
	adminService      *services.AdminService
	enrollmentService *services.EnrollmentService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, enrollmentService *services.EnrollmentService) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		enrollmentService: enrollmentService,
	}
}

// ListAuditLogs retrieves admin audit logs with pagination
// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	filter := services.AuditLogFilter{
		AdminID:  query.OptionalUint(c, "admin_id"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
		Page:     query.ParsePagination(c),
	}

	logs, total, err := h.adminService.ListAuditLogs(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, logs, response.CalculatePagination(filter.Page.Page, filter.Page.Limit, total))
}

// ListRequestLogs retrieves persisted request logs
// GET /admin/request-logs?user_id&method&min_status
func (h *AdminHandler) ListRequestLogs(c *fiber.Ctx) error {
	filter := services.RequestLogFilter{
		UserID:    query.OptionalUint(c, "user_id"),
		Method:    c.Query("method"),
		MinStatus: c.QueryInt("min_status"),
		Page:      query.ParsePagination(c),
	}

	logs, total, err := h.adminService.ListRequestLogs(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, logs, response.CalculatePagination(filter.Page.Page, filter.Page.Limit, total))
}

// ListCronLogs retrieves background job runs
// GET /admin/cron-logs?job_name&status
func (h *AdminHandler) ListCronLogs(c *fiber.Ctx) error {
	page := query.ParsePagination(c)

	logs, total, err := h.adminService.ListCronLogs(c.UserContext(), c.Query("job_name"), c.Query("status"), page)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Paginated(c, logs, response.CalculatePagination(page.Page, page.Limit, total))
}

// ReconcileOccupancy recomputes every group whose counter drifted
// POST /admin/occupancy/reconcile
func (h *AdminHandler) ReconcileOccupancy(c *fiber.Ctx) error {
	result, err := h.enrollmentService.ReconcileOccupancy(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Occupancy reconciled", result)
}
