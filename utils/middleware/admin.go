package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learning-center-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// auditSnapshot loads the current state of an audited resource
func auditSnapshot(db *gorm.DB, resource string, id uint) interface{} {
	var dest interface{}
	switch resource {
	case "learning_centers":
		dest = &model.LearningCenter{}
	case "groups":
		dest = &model.Group{}
	case "users":
		dest = &model.User{}
	default:
		return nil
	}
	if err := db.Unscoped().First(dest, id).Error; err != nil {
		return nil
	}
	return dest
}

// AdminAuditLog records an audit entry for admin actions. It must run after
// Required so the acting user is known.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := GetUser(c)
		if !ok || !admin.IsAdmin() {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		var oldValue interface{}
		if resourceID > 0 && c.Method() != fiber.MethodGet {
			oldValue = auditSnapshot(db, resource, resourceID)
		}

		var newValue interface{}
		if body := c.Body(); len(body) > 0 && json.Valid(body) {
			newValue = json.RawMessage(append([]byte(nil), body...))
		}

		err := c.Next()

		// Skip failed actions
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return err
		}

		// Copy request data before leaving the handler; fiber reuses the context
		entry := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			IPAddress:   c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			Description: c.Method() + " " + c.Path(),
		}
		if oldValue != nil {
			if raw, mErr := json.Marshal(oldValue); mErr == nil {
				entry.OldValue = datatypes.JSON(raw)
			}
		}
		if newValue != nil {
			if raw, mErr := json.Marshal(newValue); mErr == nil {
				entry.NewValue = datatypes.JSON(raw)
			}
		}

		go func() {
			if dbErr := db.Create(&entry).Error; dbErr != nil {
				log.Errorf("Failed to write admin audit log for %s: %v", action, dbErr)
			}
		}()

		return err
	}
}
