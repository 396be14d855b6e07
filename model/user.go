package model

import (
	"time"

	"gorm.io/gorm"
)

// Account roles carried in access tokens
const (
	RoleSuperAdmin     = "super_admin"
	RoleAdmin          = "admin"
	RoleLearningCenter = "learning_center"
	RoleTeacher        = "teacher"
)

// User represents a login account. Learning center owners and teachers are
// linked to their center; admins are not.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Login            string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"login"`
	Email            *string        `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	PasswordHash     string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	Role             string         `gorm:"type:varchar(20);not null;default:'learning_center'" json:"role"`
	IsBlocked        bool           `gorm:"default:false" json:"is_blocked"`
	TokenVersion     int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens
	LearningCenterID *uint          `gorm:"index" json:"learning_center_id,omitempty"`
	TeacherID        *uint          `gorm:"uniqueIndex" json:"teacher_id,omitempty"`

	// Relationships
	LearningCenter *LearningCenter     `gorm:"foreignKey:LearningCenterID;constraint:OnDelete:CASCADE" json:"learning_center,omitempty"`
	Teacher        *Teacher            `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the account has platform-wide access
func (u *User) IsAdmin() bool {
	return IsAdminRole(u.Role)
}

// CenterID returns the learning center the account belongs to, or 0
func (u *User) CenterID() uint {
	if u.LearningCenterID == nil {
		return 0
	}
	return *u.LearningCenterID
}

// IsAdminRole reports whether role is one of the platform admin roles
func IsAdminRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdmin
}
