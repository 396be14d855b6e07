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

// SalaryService keeps monthly teacher payroll
type SalaryService struct {
	db  *gorm.DB
	uow database.UnitOfWork
	now func() time.Time
}

// NewSalaryService creates a new salary service
func NewSalaryService(db *gorm.DB, uow database.UnitOfWork) *SalaryService {
	return &SalaryService{db: db, uow: uow, now: time.Now}
}

// SalaryInput describes a payroll entry. Salary defaults to the teacher's
// base salary.
type SalaryInput struct {
	TeacherID   uint
	Month       int
	Year        int
	Salary      *float64
	Bonus       float64
	Penalty     float64
	Date        *time.Time
	Description string
}

// UpdateSalaryInput holds optional changes
type UpdateSalaryInput struct {
	Salary      *float64
	Bonus       *float64
	Penalty     *float64
	Date        *time.Time
	Description *string
}

// SalaryFilter narrows List
type SalaryFilter struct {
	CenterID  uint
	TeacherID *uint
	Year      *int
	Month     *int
	Page      query.Pagination
}

// FinalSalary is salary plus bonus minus penalty
func FinalSalary(salary, bonus, penalty float64) float64 {
	return salary + bonus - penalty
}

// CenterOf returns the learning center of the salary's teacher
func (s *SalaryService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var row struct{ LearningCenterID uint }
	res := s.db.WithContext(ctx).
		Table("teacher_salaries ts").
		Select("t.learning_center_id").
		Joins("JOIN teachers t ON t.id = ts.teacher_id").
		Where("ts.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		return 0, apperror.FromDB(res.Error, "salary")
	}
	if res.RowsAffected == 0 {
		return 0, apperror.NotFound("salary")
	}
	return row.LearningCenterID, nil
}

// Create records the salary of a teacher for one month
func (s *SalaryService) Create(ctx context.Context, in SalaryInput) (*model.TeacherSalary, error) {
	if in.Month < 1 || in.Month > 12 {
		return nil, apperror.InvalidArgument("invalid_period", "month must be between 1 and 12")
	}
	if err := checkMoney(in.Bonus, in.Penalty); err != nil {
		return nil, err
	}
	paidOn := s.now()
	if in.Date != nil {
		paidOn = *in.Date
	}

	salary := &model.TeacherSalary{
		TeacherID:   in.TeacherID,
		Month:       in.Month,
		Year:        in.Year,
		Bonus:       in.Bonus,
		Penalty:     in.Penalty,
		Date:        dateOf(paidOn),
		Description: in.Description,
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var teacher model.Teacher
		if err := tx.Select("id", "salary").First(&teacher, in.TeacherID).Error; err != nil {
			return apperror.FromDB(err, "teacher")
		}

		salary.Salary = teacher.Salary
		if in.Salary != nil {
			salary.Salary = *in.Salary
		}
		if err := checkMoney(salary.Salary); err != nil {
			return err
		}
		salary.FinalSalary = FinalSalary(salary.Salary, salary.Bonus, salary.Penalty)

		return apperror.FromDB(tx.Create(salary).Error, "salary")
	})
	if err != nil {
		return nil, err
	}
	return salary, nil
}

// List returns salaries, latest period first
func (s *SalaryService) List(ctx context.Context, f SalaryFilter) ([]model.TeacherSalary, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.TeacherSalary{})
	if f.CenterID != 0 {
		q = q.Where("teacher_id IN (?)", s.db.Model(&model.Teacher{}).Select("id").Where("learning_center_id = ?", f.CenterID))
	}
	if f.TeacherID != nil {
		q = q.Where("teacher_id = ?", *f.TeacherID)
	}
	if f.Year != nil {
		q = q.Where("year = ?", *f.Year)
	}
	if f.Month != nil {
		q = q.Where("month = ?", *f.Month)
	}

	var salaries []model.TeacherSalary
	total, err := paginate(q.Preload("Teacher"), f.Page, "year DESC, month DESC, id DESC", &salaries)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "salary")
	}
	return salaries, total, nil
}

// Get returns one salary with its teacher
func (s *SalaryService) Get(ctx context.Context, id uint) (*model.TeacherSalary, error) {
	var salary model.TeacherSalary
	if err := s.db.WithContext(ctx).Preload("Teacher").First(&salary, id).Error; err != nil {
		return nil, apperror.FromDB(err, "salary")
	}
	return &salary, nil
}

// Update edits a salary and recomputes its final amount
func (s *SalaryService) Update(ctx context.Context, id uint, in UpdateSalaryInput) (*model.TeacherSalary, error) {
	var salary model.TeacherSalary
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&salary, id).Error; err != nil {
			return apperror.FromDB(err, "salary")
		}

		if in.Salary != nil {
			salary.Salary = *in.Salary
		}
		if in.Bonus != nil {
			salary.Bonus = *in.Bonus
		}
		if in.Penalty != nil {
			salary.Penalty = *in.Penalty
		}
		if in.Date != nil {
			salary.Date = dateOf(*in.Date)
		}
		if in.Description != nil {
			salary.Description = *in.Description
		}
		if err := checkMoney(salary.Salary, salary.Bonus, salary.Penalty); err != nil {
			return err
		}
		salary.FinalSalary = FinalSalary(salary.Salary, salary.Bonus, salary.Penalty)

		return apperror.FromDB(tx.Save(&salary).Error, "salary")
	})
	if err != nil {
		return nil, err
	}
	return &salary, nil
}

// Delete removes a salary entry
func (s *SalaryService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.TeacherSalary{}, id)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "salary")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("salary")
	}
	return nil
}
