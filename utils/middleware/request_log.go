package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/learning-center-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxLoggedBody = 16 * 1024

var redactedFields = []string{"password", "old_password", "new_password", "refresh_token", "access_token"}

// RequestLogger persists every API request into request_logs. Writes happen
// off the request path and failures are only logged.
func RequestLogger(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		body := redactBody(c.Body(), string(c.Request().Header.ContentType()))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := model.RequestLog{
			Method:         c.Method(),
			URL:            string(c.Request().URI().RequestURI()),
			StatusCode:     status,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			IP:             c.IP(),
			UserAgent:      c.Get(fiber.HeaderUserAgent),
			RequestBody:    body,
		}
		if id, ok := c.Locals("requestid").(string); ok {
			entry.RequestID = id
		}
		if userID, ok := GetUserID(c); ok {
			entry.UserID = &userID
		}

		go func() {
			if dbErr := db.Create(&entry).Error; dbErr != nil {
				log.Warnf("Failed to persist request log: %v", dbErr)
			}
		}()

		return err
	}
}

// redactBody returns the JSON body with secrets blanked, or nil for
// non-JSON, empty or oversized bodies
func redactBody(raw []byte, contentType string) datatypes.JSON {
	if len(raw) == 0 || len(raw) > maxLoggedBody || !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	for _, field := range redactedFields {
		if _, ok := payload[field]; ok {
			payload[field] = "[REDACTED]"
		}
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}
