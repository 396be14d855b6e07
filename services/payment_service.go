package services

import (
	"context"
	"time"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/gorm"
)

// PaymentService records monthly student tuition
type PaymentService struct {
	db  *gorm.DB
	uow database.UnitOfWork
	now func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, uow database.UnitOfWork) *PaymentService {
	return &PaymentService{db: db, uow: uow, now: time.Now}
}

// PaymentInput describes a payment. Amount defaults to the group's monthly
// price; PaymentDate defaults to today.
type PaymentInput struct {
	StudentID   uint
	GroupID     uint
	Month       time.Time
	Amount      *float64
	PaidAmount  float64
	Discount    float64
	PaymentDate *time.Time
	Description string
}

// UpdatePaymentInput holds optional changes
type UpdatePaymentInput struct {
	Amount      *float64
	PaidAmount  *float64
	Discount    *float64
	PaymentDate *time.Time
	Description *string
}

// PaymentFilter narrows List
type PaymentFilter struct {
	CenterID  uint
	StudentID *uint
	GroupID   *uint
	Month     *time.Time
	Page      query.Pagination
}

// PaymentView is a payment with its outstanding debt
type PaymentView struct {
	model.StudentPayment
	Debt float64 `json:"debt"`
}

func viewOf(p model.StudentPayment) PaymentView {
	return PaymentView{StudentPayment: p, Debt: p.Debt()}
}

// CenterOf returns the learning center of the payment's group
func (s *PaymentService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var row struct{ LearningCenterID uint }
	res := s.db.WithContext(ctx).
		Table("student_payments p").
		Select("g.learning_center_id").
		Joins("JOIN groups g ON g.id = p.group_id").
		Where("p.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		return 0, apperror.FromDB(res.Error, "payment")
	}
	if res.RowsAffected == 0 {
		return 0, apperror.NotFound("payment")
	}
	return row.LearningCenterID, nil
}

// Create records the payment of one student for one group and month
func (s *PaymentService) Create(ctx context.Context, in PaymentInput) (*PaymentView, error) {
	if err := checkMoney(in.PaidAmount, in.Discount); err != nil {
		return nil, err
	}
	paidOn := s.now()
	if in.PaymentDate != nil {
		paidOn = *in.PaymentDate
	}

	payment := model.StudentPayment{
		StudentID:   in.StudentID,
		GroupID:     in.GroupID,
		Month:       monthStart(in.Month),
		PaidAmount:  in.PaidAmount,
		Discount:    in.Discount,
		PaymentDate: dateOf(paidOn),
		Description: in.Description,
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var group model.Group
		if err := tx.Select("id", "monthly_price").First(&group, in.GroupID).Error; err != nil {
			return apperror.FromDB(err, "group")
		}

		var memberships int64
		err := tx.Model(&model.GroupStudent{}).
			Where("group_id = ? AND student_id = ?", in.GroupID, in.StudentID).
			Count(&memberships).Error
		if err != nil {
			return apperror.FromDB(err, "membership")
		}
		if memberships == 0 {
			return apperror.InvalidArgument("not_a_member", "student has never been a member of this group")
		}

		payment.Amount = group.MonthlyPrice
		if in.Amount != nil {
			payment.Amount = *in.Amount
		}
		if err := checkMoney(payment.Amount); err != nil {
			return err
		}

		return apperror.FromDB(tx.Create(&payment).Error, "payment")
	})
	if err != nil {
		return nil, err
	}

	view := viewOf(payment)
	return &view, nil
}

// List returns payments, most recent month first
func (s *PaymentService) List(ctx context.Context, f PaymentFilter) ([]PaymentView, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.StudentPayment{})
	if f.CenterID != 0 {
		q = q.Where("group_id IN (?)", s.db.Model(&model.Group{}).Select("id").Where("learning_center_id = ?", f.CenterID))
	}
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.GroupID != nil {
		q = q.Where("group_id = ?", *f.GroupID)
	}
	if f.Month != nil {
		q = q.Where("month = ?", monthStart(*f.Month))
	}

	var payments []model.StudentPayment
	total, err := paginate(q, f.Page, "month DESC, id DESC", &payments)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "payment")
	}

	views := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, viewOf(p))
	}
	return views, total, nil
}

// Get returns one payment with student and group
func (s *PaymentService) Get(ctx context.Context, id uint) (*PaymentView, error) {
	var payment model.StudentPayment
	if err := s.db.WithContext(ctx).Preload("Student").Preload("Group").First(&payment, id).Error; err != nil {
		return nil, apperror.FromDB(err, "payment")
	}
	view := viewOf(payment)
	return &view, nil
}

// Update edits the amounts of a payment
func (s *PaymentService) Update(ctx context.Context, id uint, in UpdatePaymentInput) (*PaymentView, error) {
	var payment model.StudentPayment
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&payment, id).Error; err != nil {
			return apperror.FromDB(err, "payment")
		}

		if in.Amount != nil {
			payment.Amount = *in.Amount
		}
		if in.PaidAmount != nil {
			payment.PaidAmount = *in.PaidAmount
		}
		if in.Discount != nil {
			payment.Discount = *in.Discount
		}
		if in.PaymentDate != nil {
			payment.PaymentDate = dateOf(*in.PaymentDate)
		}
		if in.Description != nil {
			payment.Description = *in.Description
		}
		if err := checkMoney(payment.Amount, payment.PaidAmount, payment.Discount); err != nil {
			return err
		}

		return apperror.FromDB(tx.Save(&payment).Error, "payment")
	})
	if err != nil {
		return nil, err
	}
	view := viewOf(payment)
	return &view, nil
}

// Delete removes a payment
func (s *PaymentService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.StudentPayment{}, id)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "payment")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("payment")
	}
	return nil
}

func checkMoney(values ...float64) error {
	for _, v := range values {
		if v < 0 {
			return apperror.InvalidArgument("negative_amount", "amounts must not be negative")
		}
	}
	return nil
}
