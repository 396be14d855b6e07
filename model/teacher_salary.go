package model

import (
	"time"

	"gorm.io/datatypes"
)

// TeacherSalary is the payroll entry of a teacher for one month
type TeacherSalary struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	TeacherID   uint           `gorm:"not null;uniqueIndex:idx_salary_teacher_period" json:"teacher_id"`
	Month       int            `gorm:"not null;uniqueIndex:idx_salary_teacher_period" json:"month"`
	Year        int            `gorm:"not null;uniqueIndex:idx_salary_teacher_period" json:"year"`
	Salary      float64        `gorm:"type:decimal(12,2);not null" json:"salary"`
	Bonus       float64        `gorm:"type:decimal(12,2);not null;default:0" json:"bonus"`
	Penalty     float64        `gorm:"type:decimal(12,2);not null;default:0" json:"penalty"`
	FinalSalary float64        `gorm:"type:decimal(12,2);not null" json:"final_salary"`
	Date        datatypes.Date `gorm:"not null" json:"date"`
	Description string         `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Teacher *Teacher `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"teacher,omitempty"`
}
