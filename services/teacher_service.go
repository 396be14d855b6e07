package services

import (
	"context"
	"fmt"
	"log"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/auth"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/gorm"
)

// TeacherService manages teachers and their login accounts
type TeacherService struct {
	db  *gorm.DB
	uow database.UnitOfWork
}

// NewTeacherService creates a new teacher service
func NewTeacherService(db *gorm.DB, uow database.UnitOfWork) *TeacherService {
	return &TeacherService{db: db, uow: uow}
}

// CreateTeacherInput describes a new teacher and their account
type CreateTeacherInput struct {
	LearningCenterID uint
	FirstName        string
	LastName         string
	Phone            string
	Email            string
	Subject          string
	Salary           float64
	Login            string
	Password         string
}

// UpdateTeacherInput holds optional changes
type UpdateTeacherInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Subject   *string
	Salary    *float64
	IsActive  *bool
	Password  *string
}

// TeacherFilter narrows List
type TeacherFilter struct {
	CenterID uint
	Search   string
	Active   *bool
	Page     query.Pagination
}

// CenterOf returns the learning center that owns the teacher
func (s *TeacherService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var t model.Teacher
	if err := s.db.WithContext(ctx).Select("id", "learning_center_id").First(&t, id).Error; err != nil {
		return 0, apperror.FromDB(err, "teacher")
	}
	return t.LearningCenterID, nil
}

// Create adds a teacher and a teacher login in one unit of work
func (s *TeacherService) Create(ctx context.Context, in CreateTeacherInput) (*model.Teacher, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.InvalidArgument("weak_password", err.Error())
	}

	teacher := &model.Teacher{
		LearningCenterID: in.LearningCenterID,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Phone:            in.Phone,
		Email:            in.Email,
		Subject:          in.Subject,
		Salary:           in.Salary,
		IsActive:         true,
	}

	err = s.uow.Do(ctx, func(tx *gorm.DB) error {
		var center model.LearningCenter
		if err := tx.Select("id").First(&center, in.LearningCenterID).Error; err != nil {
			return apperror.FromDB(err, "learning_center")
		}
		if err := ensureFree(tx, &model.Teacher{}, "phone", in.Phone, 0, "teacher"); err != nil {
			return err
		}
		if err := ensureFree(tx, &model.User{}, "login", in.Login, 0, "login"); err != nil {
			return err
		}

		if err := tx.Create(teacher).Error; err != nil {
			return apperror.FromDB(err, "teacher")
		}
		account := &model.User{
			Login:            in.Login,
			PasswordHash:     hash,
			Name:             teacher.FullName(),
			Role:             model.RoleTeacher,
			LearningCenterID: &in.LearningCenterID,
			TeacherID:        &teacher.ID,
		}
		return apperror.FromDB(tx.Create(account).Error, "user")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created teacher %d in learning center %d", teacher.ID, teacher.LearningCenterID)
	return teacher, nil
}

// List searches teachers by name, email, phone or subject
func (s *TeacherService) List(ctx context.Context, f TeacherFilter) ([]model.Teacher, int64, error) {
	q := scopeCenter(s.db.WithContext(ctx).Model(&model.Teacher{}), "learning_center_id", f.CenterID)
	if f.Search != "" {
		pattern := query.LikePattern(f.Search)
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR subject ILIKE ?",
			pattern, pattern, pattern, pattern, pattern)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var teachers []model.Teacher
	total, err := paginate(q, f.Page, "last_name, first_name", &teachers)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "teacher")
	}
	return teachers, total, nil
}

// Get returns a teacher with the groups they lead
func (s *TeacherService) Get(ctx context.Context, id uint) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := s.db.WithContext(ctx).Preload("Groups").First(&teacher, id).Error; err != nil {
		return nil, apperror.FromDB(err, "teacher")
	}
	return &teacher, nil
}

// Update applies the given changes
func (s *TeacherService) Update(ctx context.Context, id uint, in UpdateTeacherInput) (*model.Teacher, error) {
	var teacher model.Teacher
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&teacher, id).Error; err != nil {
			return apperror.FromDB(err, "teacher")
		}

		updates := map[string]interface{}{}
		if in.FirstName != nil {
			updates["first_name"] = *in.FirstName
		}
		if in.LastName != nil {
			updates["last_name"] = *in.LastName
		}
		if in.Phone != nil && *in.Phone != teacher.Phone {
			if err := ensureFree(tx, &model.Teacher{}, "phone", *in.Phone, id, "teacher"); err != nil {
				return err
			}
			updates["phone"] = *in.Phone
		}
		if in.Email != nil {
			updates["email"] = *in.Email
		}
		if in.Subject != nil {
			updates["subject"] = *in.Subject
		}
		if in.Salary != nil {
			updates["salary"] = *in.Salary
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		if len(updates) > 0 {
			if err := tx.Model(&teacher).Updates(updates).Error; err != nil {
				return apperror.FromDB(err, "teacher")
			}
			if err := tx.First(&teacher, id).Error; err != nil {
				return apperror.FromDB(err, "teacher")
			}
		}

		accountUpdates := map[string]interface{}{}
		if in.FirstName != nil || in.LastName != nil {
			accountUpdates["name"] = teacher.FullName()
		}
		if in.Password != nil {
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return apperror.InvalidArgument("weak_password", err.Error())
			}
			accountUpdates["password_hash"] = hash
			accountUpdates["token_version"] = gorm.Expr("token_version + 1")
		}
		if in.IsActive != nil {
			accountUpdates["is_blocked"] = !*in.IsActive
		}
		if len(accountUpdates) == 0 {
			return nil
		}
		return apperror.FromDB(tx.Model(&model.User{}).Where("teacher_id = ?", id).Updates(accountUpdates).Error, "user")
	})
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Delete removes a teacher. Their groups and attendance marks lose the
// teacher reference; their lessons and login are removed.
func (s *TeacherService) Delete(ctx context.Context, id uint) error {
	return s.uow.Do(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&model.Teacher{}, id)
		if res.Error != nil {
			return apperror.FromDB(res.Error, "teacher")
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("teacher")
		}
		return nil
	})
}

// ensureFree returns Conflict when column already holds value on another row
func ensureFree(tx *gorm.DB, m interface{}, column, value string, exceptID uint, resource string) error {
	var n int64
	q := tx.Model(m).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return apperror.FromDB(err, resource)
	}
	if n > 0 {
		return apperror.Conflict(resource, apperror.ReasonDuplicate, fmt.Sprintf("%s with this %s already exists", resource, column))
	}
	return nil
}
