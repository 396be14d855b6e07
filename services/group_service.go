package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GroupService manages class groups. Occupancy is owned by EnrollmentService.
type GroupService struct {
	db  *gorm.DB
	uow database.UnitOfWork
}

// NewGroupService creates a new group service
func NewGroupService(db *gorm.DB, uow database.UnitOfWork) *GroupService {
	return &GroupService{db: db, uow: uow}
}

// GroupInput holds the fields of a new group
type GroupInput struct {
	LearningCenterID uint
	TeacherID        *uint
	Name             string
	StartDate        time.Time
	EndDate          time.Time
	LessonDays       int
	LessonTime       string
	MonthlyPrice     float64
	MaxStudents      *int
	Room             string
	Description      string
}

// UpdateGroupInput holds optional changes. MaxStudents of 0 removes the
// limit; ClearTeacher unassigns the teacher.
type UpdateGroupInput struct {
	TeacherID    *uint
	ClearTeacher bool
	Name         *string
	StartDate    *time.Time
	EndDate      *time.Time
	LessonDays   *int
	LessonTime   *string
	MonthlyPrice *float64
	MaxStudents  *int
	Room         *string
	Description  *string
	IsActive     *bool
}

// GroupFilter narrows List
type GroupFilter struct {
	CenterID  uint
	TeacherID *uint
	Active    *bool
	Search    string
	Page      query.Pagination
}

// CenterOf returns the learning center that owns the group
func (s *GroupService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var g model.Group
	if err := s.db.WithContext(ctx).Select("id", "learning_center_id").First(&g, id).Error; err != nil {
		return 0, apperror.FromDB(err, "group")
	}
	return g.LearningCenterID, nil
}

// Create adds a group to a learning center
func (s *GroupService) Create(ctx context.Context, in GroupInput) (*model.Group, error) {
	if in.EndDate.Before(in.StartDate) {
		return nil, apperror.InvalidArgument("invalid_schedule", "end date must not be before start date")
	}
	if in.MaxStudents != nil && *in.MaxStudents < 1 {
		in.MaxStudents = nil
	}

	group := &model.Group{
		LearningCenterID: in.LearningCenterID,
		TeacherID:        in.TeacherID,
		Name:             in.Name,
		StartDate:        dateOf(in.StartDate),
		EndDate:          dateOf(in.EndDate),
		LessonDays:       in.LessonDays,
		LessonTime:       in.LessonTime,
		MonthlyPrice:     in.MonthlyPrice,
		MaxStudents:      in.MaxStudents,
		Room:             in.Room,
		Description:      in.Description,
		IsActive:         true,
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var center model.LearningCenter
		if err := tx.Select("id").First(&center, in.LearningCenterID).Error; err != nil {
			return apperror.FromDB(err, "learning_center")
		}
		if in.TeacherID != nil {
			if err := checkTeacherInCenter(tx, *in.TeacherID, in.LearningCenterID); err != nil {
				return err
			}
		}
		return apperror.FromDB(tx.Create(group).Error, "group")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created group %d (%s) in learning center %d", group.ID, group.Name, group.LearningCenterID)
	return group, nil
}

// List returns groups with their teacher
func (s *GroupService) List(ctx context.Context, f GroupFilter) ([]model.Group, int64, error) {
	q := scopeCenter(s.db.WithContext(ctx).Model(&model.Group{}), "learning_center_id", f.CenterID)
	if f.TeacherID != nil {
		q = q.Where("teacher_id = ?", *f.TeacherID)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if f.Search != "" {
		q = q.Where("name ILIKE ?", query.LikePattern(f.Search))
	}

	var groups []model.Group
	total, err := paginate(q.Preload("Teacher"), f.Page, "start_date DESC, id DESC", &groups)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "group")
	}
	return groups, total, nil
}

// Get returns a group with its teacher
func (s *GroupService) Get(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := s.db.WithContext(ctx).Preload("Teacher").First(&group, id).Error; err != nil {
		return nil, apperror.FromDB(err, "group")
	}
	return &group, nil
}

// Members lists memberships of a group, optionally filtered by status
func (s *GroupService) Members(ctx context.Context, groupID uint, status model.MembershipStatus) ([]model.GroupStudent, error) {
	if _, err := s.CenterOf(ctx, groupID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Preload("Student").Where("group_id = ?", groupID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var members []model.GroupStudent
	if err := q.Order("joined_at, id").Find(&members).Error; err != nil {
		return nil, apperror.FromDB(err, "membership")
	}
	return members, nil
}

// Update applies changes under the group row lock so a capacity change
// cannot race with an enrollment
func (s *GroupService) Update(ctx context.Context, id uint, in UpdateGroupInput) (*model.Group, error) {
	var group *model.Group
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		g, err := lockGroup(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		start, end := time.Time(g.StartDate), time.Time(g.EndDate)
		if in.StartDate != nil {
			start = *in.StartDate
			updates["start_date"] = dateOf(start)
		}
		if in.EndDate != nil {
			end = *in.EndDate
			updates["end_date"] = dateOf(end)
		}
		if end.Before(start) {
			return apperror.InvalidArgument("invalid_schedule", "end date must not be before start date")
		}
		if in.LessonDays != nil {
			updates["lesson_days"] = *in.LessonDays
		}
		if in.LessonTime != nil {
			updates["lesson_time"] = *in.LessonTime
		}
		if in.MonthlyPrice != nil {
			updates["monthly_price"] = *in.MonthlyPrice
		}
		if in.Room != nil {
			updates["room"] = *in.Room
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}

		switch {
		case in.ClearTeacher:
			updates["teacher_id"] = nil
		case in.TeacherID != nil:
			if err := checkTeacherInCenter(tx, *in.TeacherID, g.LearningCenterID); err != nil {
				return err
			}
			updates["teacher_id"] = *in.TeacherID
		}

		if in.MaxStudents != nil {
			if *in.MaxStudents <= 0 {
				updates["max_students"] = nil
			} else {
				active, err := countActive(tx, g.ID)
				if err != nil {
					return err
				}
				if int64(*in.MaxStudents) < active {
					return apperror.InvalidArgument(apperror.ReasonCapacityBelowOccupancy,
						fmt.Sprintf("group has %d active students, capacity cannot be set to %d", active, *in.MaxStudents))
				}
				updates["max_students"] = *in.MaxStudents
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&model.Group{}).Where("id = ?", g.ID).Updates(updates).Error; err != nil {
				return apperror.FromDB(err, "group")
			}
		}

		group = &model.Group{}
		return apperror.FromDB(tx.Preload("Teacher").First(group, g.ID).Error, "group")
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group together with its memberships, attendance, lessons
// and payments
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	return s.uow.Do(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&model.Group{}, id)
		if res.Error != nil {
			return apperror.FromDB(res.Error, "group")
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("group")
		}
		return nil
	})
}

// DeactivateFinished marks groups whose end date has passed as inactive
func (s *GroupService) DeactivateFinished(ctx context.Context, today time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Group{}).
		Where("is_active = ? AND end_date < ?", true, datatypes.Date(today)).
		Update("is_active", false)
	if res.Error != nil {
		return 0, apperror.FromDB(res.Error, "group")
	}
	return res.RowsAffected, nil
}

func checkTeacherInCenter(tx *gorm.DB, teacherID, centerID uint) error {
	var teacher model.Teacher
	if err := tx.Select("id", "learning_center_id").First(&teacher, teacherID).Error; err != nil {
		return apperror.FromDB(err, "teacher")
	}
	if teacher.LearningCenterID != centerID {
		return apperror.InvalidArgument(apperror.ReasonCrossCenter, "teacher belongs to another learning center")
	}
	return nil
}
