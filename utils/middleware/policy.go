package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/response"
)

// Caller is the authenticated identity a handler acts for
type Caller struct {
	UserID           uint
	Role             string
	LearningCenterID uint
	TeacherID        uint
}

// IsAdmin reports whether the caller has platform-wide access
func (c Caller) IsAdmin() bool {
	return model.IsAdminRole(c.Role)
}

// ScopeCenter returns the learning center a list must be restricted to, or
// 0 for admins who may see everything
func (c Caller) ScopeCenter() uint {
	if c.IsAdmin() {
		return 0
	}
	return c.LearningCenterID
}

// TargetCenter picks the learning center a new resource is created in.
// Admins must name one; everybody else gets their own and may not name another.
func (c Caller) TargetCenter(requested uint) (uint, bool) {
	if c.IsAdmin() {
		return requested, requested != 0
	}
	if c.LearningCenterID == 0 || (requested != 0 && requested != c.LearningCenterID) {
		return 0, false
	}
	return c.LearningCenterID, true
}

// Authorize decides whether caller may act on a resource owned by the
// learning center resourceOwnerID. Admins always may; center owners and
// teachers only inside their own center.
func Authorize(caller Caller, resourceOwnerID uint) bool {
	switch caller.Role {
	case model.RoleSuperAdmin, model.RoleAdmin:
		return true
	case model.RoleLearningCenter, model.RoleTeacher:
		return caller.LearningCenterID != 0 && caller.LearningCenterID == resourceOwnerID
	default:
		return false
	}
}

// CallerFrom builds the Caller from the user stored by Required
func CallerFrom(c *fiber.Ctx) Caller {
	user, ok := GetUser(c)
	if !ok {
		return Caller{}
	}
	caller := Caller{
		UserID:           user.ID,
		Role:             user.Role,
		LearningCenterID: user.CenterID(),
	}
	if user.TeacherID != nil {
		caller.TeacherID = *user.TeacherID
	}
	return caller
}

// OwnerLookup resolves the learning center owning a resource
type OwnerLookup func(ctx context.Context, id uint) (uint, error)

// Guard checks the caller against the owner of resource id. When it returns
// false the error response has already been written and the handler should
// return err as is.
func Guard(c *fiber.Ctx, lookup OwnerLookup, id uint) (bool, error) {
	owner, err := lookup(c.UserContext(), id)
	if err != nil {
		return false, response.FromError(c, err)
	}
	if !Authorize(CallerFrom(c), owner) {
		return false, response.Forbidden(c, "You do not have access to this resource")
	}
	return true, nil
}

// GuardCenter checks the caller against a learning center id directly
func GuardCenter(c *fiber.Ctx, centerID uint) (bool, error) {
	if !Authorize(CallerFrom(c), centerID) {
		return false, response.Forbidden(c, "You do not have access to this learning center")
	}
	return true, nil
}
