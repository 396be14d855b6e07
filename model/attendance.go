package model

import (
	"time"

	"gorm.io/datatypes"
)

// AttendanceStatus records whether a student showed up for a lesson day
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// Attendance is one mark per (group, student, date)
type Attendance struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	GroupID   uint             `gorm:"not null;uniqueIndex:idx_attendance_group_student_date" json:"group_id"`
	StudentID uint             `gorm:"not null;uniqueIndex:idx_attendance_group_student_date;index" json:"student_id"`
	TeacherID *uint            `gorm:"index" json:"teacher_id,omitempty"`
	Date      datatypes.Date   `gorm:"not null;uniqueIndex:idx_attendance_group_student_date" json:"date"`
	Status    AttendanceStatus `gorm:"type:varchar(10);not null;default:'PRESENT'" json:"status"`

	// Relationships
	Group   *Group   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"group,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL" json:"teacher,omitempty"`
}

// TableName specifies the table name for Attendance
func (Attendance) TableName() string {
	return "attendances"
}
