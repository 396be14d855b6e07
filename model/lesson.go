package model

import (
	"time"

	"gorm.io/datatypes"
)

// Lesson is a single scheduled class of a group
type Lesson struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	GroupID     uint           `gorm:"not null;index" json:"group_id"`
	TeacherID   uint           `gorm:"not null;index" json:"teacher_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	LessonDate  datatypes.Date `gorm:"not null;index" json:"lesson_date"`
	StartTime   string         `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     string         `gorm:"type:varchar(5);not null" json:"end_time"`
	IsCompleted bool           `gorm:"default:false" json:"is_completed"`

	// Relationships
	Group   *Group   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"group,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"teacher,omitempty"`
}
