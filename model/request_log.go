package model

import (
	"time"

	"gorm.io/datatypes"
)

// RequestLog is a persisted HTTP access record, written only when LOG_TO_DB is on
type RequestLog struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	Method         string         `gorm:"type:varchar(10);not null" json:"method"`
	URL            string         `gorm:"type:text;not null" json:"url"`
	StatusCode     int            `gorm:"not null" json:"status_code"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	IP             string         `gorm:"type:varchar(45)" json:"ip"`
	UserAgent      string         `gorm:"type:text" json:"user_agent"`
	UserID         *uint          `gorm:"index" json:"user_id,omitempty"`
	RequestID      string         `gorm:"type:varchar(64)" json:"request_id,omitempty"`
	RequestBody    datatypes.JSON `gorm:"type:jsonb" json:"request_body,omitempty"`
}
