package model

import (
	"time"

	"gorm.io/gorm"
)

// LearningCenter is the tenant that owns teachers, groups and students
type LearningCenter struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Address   string         `gorm:"type:text" json:"address,omitempty"`
	Image     string         `gorm:"type:varchar(512)" json:"image,omitempty"` // Public logo URL
	ImageKey  string         `gorm:"type:varchar(512)" json:"-"`               // Object storage key of the logo
	IsBlocked bool           `gorm:"default:false" json:"is_blocked"`

	// Relationships
	Teachers []Teacher `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"teachers,omitempty"`
	Groups   []Group   `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"groups,omitempty"`
	Students []Student `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"students,omitempty"`
}

// TableName specifies the table name for LearningCenter
func (LearningCenter) TableName() string {
	return "learning_centers"
}
