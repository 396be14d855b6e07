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

// AttendanceService records attendance marks
type AttendanceService struct {
	db  *gorm.DB
	uow database.UnitOfWork
	now func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(db *gorm.DB, uow database.UnitOfWork) *AttendanceService {
	return &AttendanceService{db: db, uow: uow, now: time.Now}
}

// AttendanceInput is one mark. Date defaults to today and Status to PRESENT.
type AttendanceInput struct {
	GroupID   uint
	StudentID uint
	TeacherID *uint
	Date      *time.Time
	Status    model.AttendanceStatus
}

// AttendanceFilter narrows List
type AttendanceFilter struct {
	CenterID  uint
	GroupID   *uint
	StudentID *uint
	Date      *time.Time
	Page      query.Pagination
}

// CenterOf returns the learning center of the attendance mark's group
func (s *AttendanceService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var row struct{ LearningCenterID uint }
	res := s.db.WithContext(ctx).
		Table("attendances a").
		Select("g.learning_center_id").
		Joins("JOIN groups g ON g.id = a.group_id").
		Where("a.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		return 0, apperror.FromDB(res.Error, "attendance")
	}
	if res.RowsAffected == 0 {
		return 0, apperror.NotFound("attendance")
	}
	return row.LearningCenterID, nil
}

// Record stores a mark for an ACTIVE member of the group
func (s *AttendanceService) Record(ctx context.Context, in AttendanceInput) (*model.Attendance, error) {
	if in.Status == "" {
		in.Status = model.AttendancePresent
	}
	if in.Status != model.AttendancePresent && in.Status != model.AttendanceAbsent {
		return nil, apperror.InvalidArgument("invalid_status", "attendance status must be PRESENT or ABSENT")
	}
	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}

	attendance := &model.Attendance{
		GroupID:   in.GroupID,
		StudentID: in.StudentID,
		TeacherID: in.TeacherID,
		Date:      dateOf(date),
		Status:    in.Status,
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var group model.Group
		if err := tx.Select("id", "learning_center_id").First(&group, in.GroupID).Error; err != nil {
			return apperror.FromDB(err, "group")
		}

		var active int64
		err := tx.Model(&model.GroupStudent{}).
			Where("group_id = ? AND student_id = ? AND status = ?", in.GroupID, in.StudentID, model.MembershipActive).
			Count(&active).Error
		if err != nil {
			return apperror.FromDB(err, "membership")
		}
		if active == 0 {
			return apperror.InvalidArgument("not_a_member", "student is not an active member of this group")
		}

		if in.TeacherID != nil {
			if err := checkTeacherInCenter(tx, *in.TeacherID, group.LearningCenterID); err != nil {
				return err
			}
		}

		return apperror.FromDB(tx.Create(attendance).Error, "attendance")
	})
	if err != nil {
		return nil, err
	}
	return attendance, nil
}

// List returns marks, newest first
func (s *AttendanceService) List(ctx context.Context, f AttendanceFilter) ([]model.Attendance, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Attendance{})
	if f.CenterID != 0 {
		q = q.Where("group_id IN (?)", s.db.Model(&model.Group{}).Select("id").Where("learning_center_id = ?", f.CenterID))
	}
	if f.GroupID != nil {
		q = q.Where("group_id = ?", *f.GroupID)
	}
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.Date != nil {
		q = q.Where("date = ?", dateOf(*f.Date))
	}

	var marks []model.Attendance
	total, err := paginate(q.Preload("Student"), f.Page, "date DESC, id DESC", &marks)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "attendance")
	}
	return marks, total, nil
}

// Get returns one mark with its student and group
func (s *AttendanceService) Get(ctx context.Context, id uint) (*model.Attendance, error) {
	var attendance model.Attendance
	if err := s.db.WithContext(ctx).Preload("Student").Preload("Group").First(&attendance, id).Error; err != nil {
		return nil, apperror.FromDB(err, "attendance")
	}
	return &attendance, nil
}

// Delete removes a mark
func (s *AttendanceService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Attendance{}, id)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "attendance")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("attendance")
	}
	return nil
}
