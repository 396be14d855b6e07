package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentService reads and edits students. Enrollment and withdrawal live in
// EnrollmentService.
type StudentService struct {
	db  *gorm.DB
	uow database.UnitOfWork
}

// NewStudentService creates a new student service
func NewStudentService(db *gorm.DB, uow database.UnitOfWork) *StudentService {
	return &StudentService{db: db, uow: uow}
}

// UpdateStudentInput holds optional changes
type UpdateStudentInput struct {
	FullName    *string
	Phone       *string
	ParentPhone *string
	BirthDate   *time.Time
	Address     *string
	IsActive    *bool
}

// StudentFilter narrows List
type StudentFilter struct {
	CenterID uint
	GroupID  *uint
	Search   string
	Page     query.Pagination
}

// CenterOf returns the learning center that owns the student
func (s *StudentService) CenterOf(ctx context.Context, id uint) (uint, error) {
	var st model.Student
	if err := s.db.WithContext(ctx).Select("id", "learning_center_id").First(&st, id).Error; err != nil {
		return 0, apperror.FromDB(err, "student")
	}
	return st.LearningCenterID, nil
}

// List returns students matching the filter. Search matches name or phone.
func (s *StudentService) List(ctx context.Context, f StudentFilter) ([]model.Student, int64, error) {
	q := scopeCenter(s.db.WithContext(ctx).Model(&model.Student{}), "students.learning_center_id", f.CenterID)
	if f.Search != "" {
		pattern := query.LikePattern(f.Search)
		q = q.Where("students.full_name ILIKE ? OR students.phone ILIKE ?", pattern, pattern)
	}
	if f.GroupID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM group_students gs WHERE gs.student_id = students.id AND gs.group_id = ? AND gs.status = ?)",
			*f.GroupID, model.MembershipActive)
	}

	var students []model.Student
	total, err := paginate(q, f.Page, "students.created_at DESC, students.id DESC", &students)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "student")
	}
	return students, total, nil
}

// Get returns a student with memberships and their groups
func (s *StudentService) Get(ctx context.Context, id uint) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at DESC, id DESC") }).
		Preload("Memberships.Group").
		First(&student, id).Error
	if err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	return &student, nil
}

// Update edits a student. The phone stays unique and must differ from the
// parent phone.
func (s *StudentService) Update(ctx context.Context, id uint, in UpdateStudentInput) (*model.Student, error) {
	var student model.Student
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&student, id).Error; err != nil {
			return apperror.FromDB(err, "student")
		}

		phone, parentPhone := student.Phone, student.ParentPhone
		if in.Phone != nil {
			phone = *in.Phone
		}
		if in.ParentPhone != nil {
			parentPhone = *in.ParentPhone
		}
		if phone == parentPhone {
			return apperror.InvalidArgument(apperror.ReasonPhoneCollision, "student phone must differ from parent phone")
		}
		if phone != student.Phone {
			if err := ensureFree(tx, &model.Student{}, "phone", phone, student.ID, "student"); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"phone":        phone,
			"parent_phone": parentPhone,
		}
		if in.FullName != nil {
			updates["full_name"] = *in.FullName
		}
		if in.BirthDate != nil {
			updates["birth_date"] = dateOf(*in.BirthDate)
		}
		if in.Address != nil {
			updates["address"] = *in.Address
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}

		if err := tx.Model(&student).Updates(updates).Error; err != nil {
			return apperror.FromDB(err, "student")
		}
		return apperror.FromDB(tx.First(&student, id).Error, "student")
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// studentDeleteTimeout bounds Delete, which locks every group of the student
const studentDeleteTimeout = 30 * time.Second

// Delete removes a student and its memberships, then recomputes every group
// the student was a member of. The student row is locked before the group
// list is read so no enrollment can add a membership the list would miss.
// Groups are then locked in id order before the delete.
func (s *StudentService) Delete(ctx context.Context, id uint) error {
	var affected []uint
	err := s.uow.WithTimeout(studentDeleteTimeout).Do(ctx, func(tx *gorm.DB) error {
		// FOR UPDATE conflicts with the key-share lock a membership insert takes
		var student model.Student
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&student, id).Error; err != nil {
			return apperror.FromDB(err, "student")
		}

		if err := tx.Model(&model.GroupStudent{}).
			Where("student_id = ?", id).
			Distinct().
			Pluck("group_id", &affected).Error; err != nil {
			return apperror.FromDB(err, "membership")
		}
		sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })

		if len(affected) > 0 {
			var locked []model.Group
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id IN ?", affected).
				Order("id").
				Find(&locked).Error; err != nil {
				return apperror.FromDB(err, "group")
			}
		}

		if err := tx.Delete(&model.Student{}, id).Error; err != nil {
			return apperror.FromDB(err, "student")
		}

		for _, groupID := range affected {
			if _, err := RecomputeOccupancy(tx, groupID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Deleted student %d, recomputed %d group(s)", id, len(affected))
	return nil
}
