package services

import (
	"context"
	"log"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/gorm"
)

// LearningCenterService is the admin view over tenants
type LearningCenterService struct {
	db  *gorm.DB
	uow database.UnitOfWork
}

// NewLearningCenterService creates a new learning center service
func NewLearningCenterService(db *gorm.DB, uow database.UnitOfWork) *LearningCenterService {
	return &LearningCenterService{db: db, uow: uow}
}

// LearningCenterStats are headline counts shown with a center
type LearningCenterStats struct {
	Teachers       int64 `json:"teachers"`
	Groups         int64 `json:"groups"`
	ActiveGroups   int64 `json:"active_groups"`
	Students       int64 `json:"students"`
	ActiveStudents int64 `json:"active_memberships"`
}

// LearningCenterDetail is a center with its stats
type LearningCenterDetail struct {
	*model.LearningCenter
	Stats LearningCenterStats `json:"stats"`
}

// List returns centers, optionally filtered by a name/email/phone search
func (s *LearningCenterService) List(ctx context.Context, search string, blocked *bool, p query.Pagination) ([]model.LearningCenter, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.LearningCenter{})
	if search != "" {
		pattern := query.LikePattern(search)
		q = q.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}
	if blocked != nil {
		q = q.Where("is_blocked = ?", *blocked)
	}

	var centers []model.LearningCenter
	total, err := paginate(q, p, "created_at DESC", &centers)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "learning_center")
	}
	return centers, total, nil
}

// Get returns a center with its stats
func (s *LearningCenterService) Get(ctx context.Context, id uint) (*LearningCenterDetail, error) {
	var center model.LearningCenter
	if err := s.db.WithContext(ctx).First(&center, id).Error; err != nil {
		return nil, apperror.FromDB(err, "learning_center")
	}

	db := s.db.WithContext(ctx)
	var stats LearningCenterStats
	counts := []struct {
		dest *int64
		q    *gorm.DB
	}{
		{&stats.Teachers, db.Model(&model.Teacher{}).Where("learning_center_id = ?", id)},
		{&stats.Groups, db.Model(&model.Group{}).Where("learning_center_id = ?", id)},
		{&stats.ActiveGroups, db.Model(&model.Group{}).Where("learning_center_id = ? AND is_active = ?", id, true)},
		{&stats.Students, db.Model(&model.Student{}).Where("learning_center_id = ?", id)},
		{&stats.ActiveStudents, db.Model(&model.GroupStudent{}).
			Joins("JOIN groups ON groups.id = group_students.group_id").
			Where("groups.learning_center_id = ? AND group_students.status = ?", id, model.MembershipActive)},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dest).Error; err != nil {
			return nil, apperror.FromDB(err, "learning_center")
		}
	}

	return &LearningCenterDetail{LearningCenter: &center, Stats: stats}, nil
}

// SetBlocked blocks or unblocks a center. Blocked centers cannot log in.
func (s *LearningCenterService) SetBlocked(ctx context.Context, id uint, blocked bool) (*model.LearningCenter, error) {
	var center model.LearningCenter
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&center, id).Error; err != nil {
			return apperror.FromDB(err, "learning_center")
		}
		if err := tx.Model(&center).Update("is_blocked", blocked).Error; err != nil {
			return apperror.FromDB(err, "learning_center")
		}
		if blocked {
			// Drop live sessions of the center's accounts
			return tx.Model(&model.User{}).Where("learning_center_id = ?", id).
				UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Learning center %d blocked=%v", id, blocked)
	return &center, nil
}

// Delete soft-deletes a center and its accounts. Teaching data stays in
// place so it can be restored.
func (s *LearningCenterService) Delete(ctx context.Context, id uint) error {
	return s.uow.Do(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&model.LearningCenter{}, id)
		if res.Error != nil {
			return apperror.FromDB(res.Error, "learning_center")
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("learning_center")
		}
		return apperror.FromDB(tx.Where("learning_center_id = ?", id).Delete(&model.User{}).Error, "user")
	})
}
