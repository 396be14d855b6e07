package model

import (
	"time"

	"gorm.io/datatypes"
)

// MembershipStatus is the lifecycle state of a group membership
type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "ACTIVE"
	MembershipLeft    MembershipStatus = "LEFT"
	MembershipBlocked MembershipStatus = "BLOCKED"
)

// IsValid reports whether s is a known membership status
func (s MembershipStatus) IsValid() bool {
	switch s {
	case MembershipActive, MembershipLeft, MembershipBlocked:
		return true
	}
	return false
}

// GroupStudent links one student to one group. There is at most one row per
// (group, student) pair; withdrawal changes the status instead of deleting it.
type GroupStudent struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	GroupID   uint             `gorm:"not null;uniqueIndex:idx_group_student" json:"group_id"`
	StudentID uint             `gorm:"not null;uniqueIndex:idx_group_student;index" json:"student_id"`
	JoinedAt  datatypes.Date   `gorm:"not null" json:"joined_at"`
	Status    MembershipStatus `gorm:"type:varchar(10);not null;default:'ACTIVE';index" json:"status"`
	LeftAt    *datatypes.Date  `json:"left_at,omitempty"`

	// Relationships
	Group   *Group   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"group,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// TableName specifies the table name for GroupStudent
func (GroupStudent) TableName() string {
	return "group_students"
}
