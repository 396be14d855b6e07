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

// LessonService schedules lessons of groups
type LessonService struct {
	db  *gorm.DB
	uow database.UnitOfWork
}

// NewLessonService creates a new lesson service
func NewLessonService(db *gorm.DB, uow database.UnitOfWork) *LessonService {
	return &LessonService{db: db, uow: uow}
}

// LessonInput describes a new lesson. Times are HH:MM.
type LessonInput struct {
	GroupID     uint
	TeacherID   uint
	Name        string
	Description string
	LessonDate  time.Time
	StartTime   string
	EndTime     string
}

// UpdateLessonInput holds optional changes
type UpdateLessonInput struct {
	TeacherID   *uint
	Name        *string
	Description *string
	LessonDate  *time.Time
	StartTime   *string
	EndTime     *string
	IsCompleted *bool
}

// LessonFilter narrows List
type LessonFilter struct {
	CenterID  uint
	GroupID   *uint
	TeacherID *uint
	Page      query.Pagination
}

// CenterOf returns the learning center of the lesson's group
func (s *LessonService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var row struct{ LearningCenterID uint }
	res := s.db.WithContext(ctx).
		Table("lessons l").
		Select("g.learning_center_id").
		Joins("JOIN groups g ON g.id = l.group_id").
		Where("l.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		return 0, apperror.FromDB(res.Error, "lesson")
	}
	if res.RowsAffected == 0 {
		return 0, apperror.NotFound("lesson")
	}
	return row.LearningCenterID, nil
}

// Create schedules a lesson. Group and teacher must share a learning center.
func (s *LessonService) Create(ctx context.Context, in LessonInput) (*model.Lesson, error) {
	if err := checkLessonTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		GroupID:     in.GroupID,
		TeacherID:   in.TeacherID,
		Name:        in.Name,
		Description: in.Description,
		LessonDate:  dateOf(in.LessonDate),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var group model.Group
		if err := tx.Select("id", "learning_center_id").First(&group, in.GroupID).Error; err != nil {
			return apperror.FromDB(err, "group")
		}
		if err := checkTeacherInCenter(tx, in.TeacherID, group.LearningCenterID); err != nil {
			return err
		}
		return apperror.FromDB(tx.Create(lesson).Error, "lesson")
	})
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// List returns lessons ordered by date
func (s *LessonService) List(ctx context.Context, f LessonFilter) ([]model.Lesson, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Lesson{})
	if f.CenterID != 0 {
		q = q.Where("group_id IN (?)", s.db.Model(&model.Group{}).Select("id").Where("learning_center_id = ?", f.CenterID))
	}
	if f.GroupID != nil {
		q = q.Where("group_id = ?", *f.GroupID)
	}
	if f.TeacherID != nil {
		q = q.Where("teacher_id = ?", *f.TeacherID)
	}

	var lessons []model.Lesson
	total, err := paginate(q, f.Page, "lesson_date DESC, start_time DESC, id DESC", &lessons)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "lesson")
	}
	return lessons, total, nil
}

// Get returns one lesson with its group and teacher
func (s *LessonService) Get(ctx context.Context, id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).Preload("Group").Preload("Teacher").First(&lesson, id).Error; err != nil {
		return nil, apperror.FromDB(err, "lesson")
	}
	return &lesson, nil
}

// Update edits a lesson
func (s *LessonService) Update(ctx context.Context, id uint, in UpdateLessonInput) (*model.Lesson, error) {
	var lesson model.Lesson
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.Preload("Group").First(&lesson, id).Error; err != nil {
			return apperror.FromDB(err, "lesson")
		}

		start, end := lesson.StartTime, lesson.EndTime
		if in.StartTime != nil {
			start = *in.StartTime
		}
		if in.EndTime != nil {
			end = *in.EndTime
		}
		if err := checkLessonTimes(start, end); err != nil {
			return err
		}

		updates := map[string]interface{}{"start_time": start, "end_time": end}
		if in.TeacherID != nil {
			if err := checkTeacherInCenter(tx, *in.TeacherID, lesson.Group.LearningCenterID); err != nil {
				return err
			}
			updates["teacher_id"] = *in.TeacherID
		}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.LessonDate != nil {
			updates["lesson_date"] = dateOf(*in.LessonDate)
		}
		if in.IsCompleted != nil {
			updates["is_completed"] = *in.IsCompleted
		}

		if err := tx.Model(&model.Lesson{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return apperror.FromDB(err, "lesson")
		}
		lesson = model.Lesson{}
		return apperror.FromDB(tx.First(&lesson, id).Error, "lesson")
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Complete marks a lesson as held
func (s *LessonService) Complete(ctx context.Context, id uint) (*model.Lesson, error) {
	done := true
	return s.Update(ctx, id, UpdateLessonInput{IsCompleted: &done})
}

// Delete removes a lesson
func (s *LessonService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Lesson{}, id)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "lesson")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("lesson")
	}
	return nil
}

// checkLessonTimes relies on HH:MM sorting lexically
func checkLessonTimes(start, end string) error {
	if end <= start {
		return apperror.InvalidArgument("invalid_schedule", "end time must be after start time")
	}
	return nil
}
