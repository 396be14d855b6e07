package model

import (
	"time"
)

// Teacher works for one learning center and may lead groups
type Teacher struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	LearningCenterID uint      `gorm:"not null;index" json:"learning_center_id"`
	FirstName        string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName         string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Phone            string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Email            string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Subject          string    `gorm:"type:varchar(100)" json:"subject,omitempty"`
	Salary           float64   `gorm:"type:decimal(12,2);default:0" json:"salary"` // Base monthly salary
	IsActive         bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	LearningCenter *LearningCenter `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"learning_center,omitempty"`
	Groups         []Group         `gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL" json:"groups,omitempty"`
	Salaries       []TeacherSalary `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

// FullName returns "First Last"
func (t *Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}
