package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupEventNotifier is told about ledger events after the transaction that
// caused them has committed
type GroupEventNotifier interface {
	NotifyGroupFull(ctx context.Context, group *model.Group) error
}

// EnrollmentService owns the membership transactions and the occupancy
// ledger of groups. It is the only code that writes groups.current_students.
type EnrollmentService struct {
	db       *gorm.DB
	uow      database.UnitOfWork
	notifier GroupEventNotifier
	now      func() time.Time
}

// NewEnrollmentService creates a new enrollment service. notifier may be nil.
func NewEnrollmentService(db *gorm.DB, uow database.UnitOfWork, notifier GroupEventNotifier) *EnrollmentService {
	return &EnrollmentService{
		db:       db,
		uow:      uow,
		notifier: notifier,
		now:      time.Now,
	}
}

// StudentPayload holds the attributes of a student created by enrollment
type StudentPayload struct {
	FullName    string
	Phone       string
	ParentPhone string
	BirthDate   time.Time
	Address     string
}

// EnrollRequest enrolls either a new student (Student set) or an existing
// one (StudentID set) into a group of a learning center
type EnrollRequest struct {
	LearningCenterID uint
	GroupID          uint
	StudentID        uint
	Student          *StudentPayload
}

// MembershipResult is the state after a successful enrollment
type MembershipResult struct {
	Student    *model.Student      `json:"student"`
	Membership *model.GroupStudent `json:"membership"`
	Group      *model.Group        `json:"group"`
}

// WithdrawResult acknowledges a withdrawal with the recomputed group state
type WithdrawResult struct {
	Membership *model.GroupStudent `json:"membership"`
	Group      *model.Group        `json:"group"`
}

// ReconcileResult summarizes an occupancy reconciliation run
type ReconcileResult struct {
	Checked int    `json:"checked"`
	Fixed   []uint `json:"fixed_group_ids"`
}

// CreateStudent creates a student and enrolls it into groupID in one unit of work
func (s *EnrollmentService) CreateStudent(ctx context.Context, learningCenterID, groupID uint, payload StudentPayload) (*MembershipResult, error) {
	return s.EnrollStudent(ctx, EnrollRequest{
		LearningCenterID: learningCenterID,
		GroupID:          groupID,
		Student:          &payload,
	})
}

// AddStudentToGroup enrolls an existing student. The learning center is the
// student's own.
func (s *EnrollmentService) AddStudentToGroup(ctx context.Context, studentID, groupID uint) (*MembershipResult, error) {
	var student model.Student
	if err := s.db.WithContext(ctx).Select("id", "learning_center_id").First(&student, studentID).Error; err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	return s.EnrollStudent(ctx, EnrollRequest{
		LearningCenterID: student.LearningCenterID,
		GroupID:          groupID,
		StudentID:        studentID,
	})
}

// EnrollStudent runs the enrollment transaction
func (s *EnrollmentService) EnrollStudent(ctx context.Context, req EnrollRequest) (*MembershipResult, error) {
	if (req.Student == nil) == (req.StudentID == 0) {
		return nil, apperror.InvalidArgument("student_reference", "exactly one of student payload or student id is required")
	}

	result := &MembershipResult{}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var center model.LearningCenter
		if err := tx.Select("id").First(&center, req.LearningCenterID).Error; err != nil {
			return apperror.FromDB(err, "learning_center")
		}

		// The group row lock serializes capacity checks on the same group
		group, err := lockGroup(tx, req.GroupID)
		if err != nil {
			return err
		}
		if group.LearningCenterID != center.ID {
			return apperror.InvalidArgument(apperror.ReasonCrossCenter, "group belongs to another learning center")
		}

		if req.Student != nil && req.Student.Phone == req.Student.ParentPhone {
			return apperror.InvalidArgument(apperror.ReasonPhoneCollision, "student phone must differ from parent phone")
		}

		activeCount, err := countActive(tx, group.ID)
		if err != nil {
			return err
		}
		if !group.HasCapacityFor(activeCount) {
			return apperror.CapacityExceeded(group.ID, *group.MaxStudents)
		}

		var student *model.Student
		if req.Student != nil {
			student, err = insertStudent(tx, center.ID, req.Student)
			if err != nil {
				return err
			}
		} else {
			student, err = loadStudentForEnrollment(tx, req.StudentID, center.ID, group.ID)
			if err != nil {
				return err
			}
		}

		membership := &model.GroupStudent{
			GroupID:   group.ID,
			StudentID: student.ID,
			JoinedAt:  s.today(),
			Status:    model.MembershipActive,
		}
		if err := tx.Create(membership).Error; err != nil {
			return apperror.FromDB(err, "membership")
		}

		occupancy, err := RecomputeOccupancy(tx, group.ID)
		if err != nil {
			return err
		}
		group.CurrentStudents = occupancy

		result.Student = student
		result.Membership = membership
		result.Group = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Enrolled student %d into group %d (%d/%s)", result.Student.ID, result.Group.ID,
		result.Group.CurrentStudents, capacityLabel(result.Group))

	s.notifyIfFull(ctx, result.Group)
	return result, nil
}

// WithdrawStudent ends an ACTIVE membership. status must be LEFT or BLOCKED;
// an empty status means LEFT.
func (s *EnrollmentService) WithdrawStudent(ctx context.Context, studentID, groupID uint, status model.MembershipStatus) (*WithdrawResult, error) {
	if status == "" {
		status = model.MembershipLeft
	}
	if status != model.MembershipLeft && status != model.MembershipBlocked {
		return nil, apperror.InvalidArgument("invalid_status", "withdrawal status must be LEFT or BLOCKED")
	}

	result := &WithdrawResult{}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		// Lock order is group then membership, same as enrollment
		group, err := lockGroup(tx, groupID)
		if err != nil {
			return err
		}

		var membership model.GroupStudent
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ? AND student_id = ?", groupID, studentID).
			First(&membership).Error
		if err != nil {
			return apperror.FromDB(err, "membership")
		}

		if membership.Status != model.MembershipActive {
			return apperror.Conflict("membership", apperror.ReasonAlreadyWithdrawn,
				fmt.Sprintf("membership is already %s", membership.Status))
		}

		leftAt := s.today()
		err = tx.Model(&membership).Updates(map[string]interface{}{
			"status":  status,
			"left_at": leftAt,
		}).Error
		if err != nil {
			return apperror.FromDB(err, "membership")
		}
		membership.Status = status
		membership.LeftAt = &leftAt

		occupancy, err := RecomputeOccupancy(tx, group.ID)
		if err != nil {
			return err
		}
		group.CurrentStudents = occupancy

		result.Membership = &membership
		result.Group = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Withdrew student %d from group %d as %s (%d/%s)", studentID, groupID, status,
		result.Group.CurrentStudents, capacityLabel(result.Group))
	return result, nil
}

// DeleteMembership removes a membership row of groupID outright and
// recomputes the group. Withdrawal keeps the row; this erases it.
func (s *EnrollmentService) DeleteMembership(ctx context.Context, groupID, membershipID uint) (*model.Group, error) {
	var group *model.Group
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		g, err := lockGroup(tx, groupID)
		if err != nil {
			return err
		}

		var membership model.GroupStudent
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND group_id = ?", membershipID, groupID).
			First(&membership).Error
		if err != nil {
			return apperror.FromDB(err, "membership")
		}
		if err := tx.Delete(&model.GroupStudent{}, membership.ID).Error; err != nil {
			return apperror.FromDB(err, "membership")
		}
		if g.CurrentStudents, err = RecomputeOccupancy(tx, g.ID); err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Deleted membership %d of group %d (%d/%s)", membershipID, groupID,
		group.CurrentStudents, capacityLabel(group))
	return group, nil
}

// RecomputeGroup recomputes the counter of a single group under its row lock
func (s *EnrollmentService) RecomputeGroup(ctx context.Context, groupID uint) (*model.Group, error) {
	var group *model.Group
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		g, err := lockGroup(tx, groupID)
		if err != nil {
			return err
		}
		if g.CurrentStudents, err = RecomputeOccupancy(tx, g.ID); err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ReconcileOccupancy finds groups whose counter drifted from their active
// membership count and recomputes each in its own transaction
func (s *EnrollmentService) ReconcileOccupancy(ctx context.Context) (*ReconcileResult, error) {
	type occupancyRow struct {
		ID              uint
		CurrentStudents int
		ActiveCount     int
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Group{}).Count(&total).Error; err != nil {
		return nil, apperror.FromDB(err, "group")
	}

	var drifted []occupancyRow
	err := s.db.WithContext(ctx).
		Table("groups AS g").
		Select("g.id, g.current_students, COUNT(gs.id) AS active_count").
		Joins("LEFT JOIN group_students gs ON gs.group_id = g.id AND gs.status = ?", model.MembershipActive).
		Group("g.id, g.current_students").
		Having("g.current_students <> COUNT(gs.id)").
		Scan(&drifted).Error
	if err != nil {
		return nil, apperror.FromDB(err, "group")
	}

	result := &ReconcileResult{Checked: int(total), Fixed: []uint{}}
	for _, row := range drifted {
		group, err := s.RecomputeGroup(ctx, row.ID)
		if err != nil {
			if apperror.IsKind(err, apperror.KindNotFound) {
				continue // deleted since the scan
			}
			return result, fmt.Errorf("recompute group %d: %w", row.ID, err)
		}
		log.Printf("Reconciled group %d occupancy: %d -> %d", row.ID, row.CurrentStudents, group.CurrentStudents)
		result.Fixed = append(result.Fixed, row.ID)
	}

	return result, nil
}

// RecomputeOccupancy counts the ACTIVE memberships of a group and stores the
// count in groups.current_students. Call it inside the transaction that
// changed the memberships, after the group row has been locked.
func RecomputeOccupancy(tx *gorm.DB, groupID uint) (int, error) {
	count, err := countActive(tx, groupID)
	if err != nil {
		return 0, err
	}
	res := tx.Model(&model.Group{}).Where("id = ?", groupID).Update("current_students", count)
	if res.Error != nil {
		return 0, apperror.FromDB(res.Error, "group")
	}
	if res.RowsAffected == 0 {
		return 0, apperror.NotFound("group")
	}
	return int(count), nil
}

func lockGroup(tx *gorm.DB, groupID uint) (*model.Group, error) {
	var group model.Group
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&group, groupID).Error
	if err != nil {
		return nil, apperror.FromDB(err, "group")
	}
	return &group, nil
}

func countActive(tx *gorm.DB, groupID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.GroupStudent{}).
		Where("group_id = ? AND status = ?", groupID, model.MembershipActive).
		Count(&count).Error
	if err != nil {
		return 0, apperror.FromDB(err, "membership")
	}
	return count, nil
}

func insertStudent(tx *gorm.DB, learningCenterID uint, p *StudentPayload) (*model.Student, error) {
	var taken int64
	if err := tx.Model(&model.Student{}).Where("phone = ?", p.Phone).Count(&taken).Error; err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	if taken > 0 {
		return nil, apperror.Conflict("student", apperror.ReasonDuplicate, "a student with this phone already exists")
	}

	student := &model.Student{
		LearningCenterID: learningCenterID,
		FullName:         p.FullName,
		Phone:            p.Phone,
		ParentPhone:      p.ParentPhone,
		BirthDate:        datatypes.Date(p.BirthDate),
		Address:          p.Address,
		IsActive:         true,
	}
	if err := tx.Create(student).Error; err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	return student, nil
}

func loadStudentForEnrollment(tx *gorm.DB, studentID, learningCenterID, groupID uint) (*model.Student, error) {
	var student model.Student
	if err := tx.First(&student, studentID).Error; err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	if student.LearningCenterID != learningCenterID {
		return nil, apperror.InvalidArgument(apperror.ReasonCrossCenter, "student belongs to another learning center")
	}

	var existing int64
	err := tx.Model(&model.GroupStudent{}).
		Where("group_id = ? AND student_id = ?", groupID, studentID).
		Count(&existing).Error
	if err != nil {
		return nil, apperror.FromDB(err, "membership")
	}
	if existing > 0 {
		return nil, apperror.Conflict("membership", apperror.ReasonAlreadyEnrolled, "student is already a member of this group")
	}
	return &student, nil
}

func (s *EnrollmentService) today() datatypes.Date {
	now := s.now().UTC()
	return datatypes.Date(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
}

func (s *EnrollmentService) notifyIfFull(ctx context.Context, group *model.Group) {
	if s.notifier == nil || group.MaxStudents == nil || group.CurrentStudents < *group.MaxStudents {
		return
	}
	if err := s.notifier.NotifyGroupFull(context.WithoutCancel(ctx), group); err != nil {
		log.Printf("Warning: failed to send group full notification for group %d: %v", group.ID, err)
	}
}

func capacityLabel(g *model.Group) string {
	if g.MaxStudents == nil {
		return "unlimited"
	}
	return fmt.Sprintf("%d", *g.MaxStudents)
}
