package model

import (
	"time"

	"gorm.io/datatypes"
)

// Student belongs to exactly one learning center
type Student struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	LearningCenterID uint           `gorm:"not null;index" json:"learning_center_id"`
	FullName         string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone            string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	ParentPhone      string         `gorm:"type:varchar(20);not null" json:"parent_phone"`
	BirthDate        datatypes.Date `gorm:"not null" json:"birth_date"`
	Address          string         `gorm:"type:text" json:"address,omitempty"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`

	// Relationships
	LearningCenter *LearningCenter  `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"learning_center,omitempty"`
	Memberships    []GroupStudent   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	Attendances    []Attendance     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Payments       []StudentPayment `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
