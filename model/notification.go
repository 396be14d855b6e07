package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType represents the severity of a notification
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
)

// NotificationCategory groups notifications by the event that raised them
type NotificationCategory string

const (
	NotificationCategoryGroupFull  NotificationCategory = "group_full"
	NotificationCategoryEnrollment NotificationCategory = "enrollment"
	NotificationCategoryOccupancy  NotificationCategory = "occupancy_drift"
	NotificationCategoryGeneral    NotificationCategory = "general"
)

// UserNotification represents a notification for a user
type UserNotification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	UserID    uint                 `gorm:"index;not null" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null" json:"category"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Read      bool                 `gorm:"default:false;index" json:"read"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	GroupID   *uint                `gorm:"index" json:"group_id,omitempty"`
	Metadata  datatypes.JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Group *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"-"`
}

// GroupNotificationMetadata is stored in Metadata for group related notifications
type GroupNotificationMetadata struct {
	GroupID         uint   `json:"group_id"`
	GroupName       string `json:"group_name"`
	CurrentStudents int    `json:"current_students"`
	MaxStudents     int    `json:"max_students,omitempty"`
}
