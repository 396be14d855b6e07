package learningcenter

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"github.com/sahilchouksey/learning-center-api/utils/response"
)

// LearningCenterHandler exposes tenant administration to admins
type LearningCenterHandler struct {
	centerService *services.LearningCenterService
}

// NewLearningCenterHandler creates a new learning center handler
func NewLearningCenterHandler(centerService *services.LearningCenterService) *LearningCenterHandler {
	return &LearningCenterHandler{centerService: centerService}
}

// ListLearningCenters handles GET /api/v1/learning-centers
func (h *LearningCenterHandler) ListLearningCenters(c *fiber.Ctx) error {
	p := query.ParsePagination(c)

	centers, total, err := h.centerService.List(c.UserContext(), c.Query("search"), query.OptionalBool(c, "blocked"), p)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Paginated(c, centers, response.CalculatePagination(p.Page, p.Limit, total))
}

// GetLearningCenter handles GET /api/v1/learning-centers/:id
func (h *LearningCenterHandler) GetLearningCenter(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid learning center ID")
	}

	center, err := h.centerService.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, center)
}

// BlockLearningCenter handles PATCH /api/v1/learning-centers/:id/block
func (h *LearningCenterHandler) BlockLearningCenter(c *fiber.Ctx) error {
	return h.setBlocked(c, true)
}

// UnblockLearningCenter handles PATCH /api/v1/learning-centers/:id/unblock
func (h *LearningCenterHandler) UnblockLearningCenter(c *fiber.Ctx) error {
	return h.setBlocked(c, false)
}

func (h *LearningCenterHandler) setBlocked(c *fiber.Ctx, blocked bool) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid learning center ID")
	}

	center, err := h.centerService.SetBlocked(c.UserContext(), id, blocked)
	if err != nil {
		return response.FromError(c, err)
	}

	msg := "Learning center unblocked"
	if blocked {
		msg = "Learning center blocked"
	}
	return response.SuccessWithMessage(c, msg, center)
}

// DeleteLearningCenter handles DELETE /api/v1/learning-centers/:id
func (h *LearningCenterHandler) DeleteLearningCenter(c *fiber.Ctx) error {
	id, err := query.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid learning center ID")
	}

	if err := h.centerService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Learning center deleted successfully", nil)
}
