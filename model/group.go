package model

import (
	"time"

	"gorm.io/datatypes"
)

// Group is a class cohort with a schedule, a price and an optional capacity.
// CurrentStudents always equals the number of ACTIVE memberships and is only
// written by the occupancy recompute in the enrollment service.
type Group struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	LearningCenterID uint           `gorm:"not null;index" json:"learning_center_id"`
	TeacherID        *uint          `gorm:"index" json:"teacher_id,omitempty"`
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	StartDate        datatypes.Date `gorm:"not null" json:"start_date"`
	EndDate          datatypes.Date `gorm:"not null" json:"end_date"`
	LessonDays       int            `gorm:"not null" json:"lesson_days"`                // Lessons per week, 1-7
	LessonTime       string         `gorm:"type:varchar(5);not null" json:"lesson_time"` // HH:MM
	MonthlyPrice     float64        `gorm:"type:decimal(12,2);not null" json:"monthly_price"`
	Room             string         `gorm:"type:varchar(100)" json:"room,omitempty"`
	Description      string         `gorm:"type:text" json:"description,omitempty"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	MaxStudents      *int           `json:"max_students,omitempty"`
	CurrentStudents  int            `gorm:"not null;default:0" json:"current_students"`

	// Relationships
	LearningCenter *LearningCenter  `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"learning_center,omitempty"`
	Teacher        *Teacher         `gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL" json:"teacher,omitempty"`
	Memberships    []GroupStudent   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	Attendances    []Attendance     `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Lessons        []Lesson         `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Payments       []StudentPayment `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Group
func (Group) TableName() string {
	return "groups"
}

// HasCapacityFor reports whether one more active member fits given the
// current active count
func (g *Group) HasCapacityFor(activeCount int64) bool {
	if g.MaxStudents == nil {
		return true
	}
	return activeCount < int64(*g.MaxStudents)
}
