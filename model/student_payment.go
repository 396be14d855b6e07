package model

import (
	"time"

	"gorm.io/datatypes"
)

// StudentPayment is one monthly tuition record of a student in a group
type StudentPayment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	StudentID   uint           `gorm:"not null;uniqueIndex:idx_payment_student_group_month" json:"student_id"`
	GroupID     uint           `gorm:"not null;uniqueIndex:idx_payment_student_group_month;index" json:"group_id"`
	Month       datatypes.Date `gorm:"not null;uniqueIndex:idx_payment_student_group_month" json:"month"` // First day of the billed month
	Amount      float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidAmount  float64        `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	Discount    float64        `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	PaymentDate datatypes.Date `gorm:"not null" json:"payment_date"`
	Description string         `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Group   *Group   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"group,omitempty"`
}

// Debt is what remains to be paid for the month, never below zero
func (p *StudentPayment) Debt() float64 {
	debt := p.Amount - p.Discount - p.PaidAmount
	if debt < 0 {
		return 0
	}
	return debt
}
