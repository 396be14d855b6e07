package services

import (
	"context"
	"time"

	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/query"
	"gorm.io/gorm"
)

// AdminService exposes the operational tables to administrators
type AdminService struct {
	db *gorm.DB
}

// NewAdminService creates a new admin service
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// AuditLogFilter narrows ListAuditLogs
type AuditLogFilter struct {
	AdminID  *uint
	Action   string
	Resource string
	Page     query.Pagination
}

// ListAuditLogs returns admin audit entries, newest first
func (s *AdminService) ListAuditLogs(ctx context.Context, f AuditLogFilter) ([]model.AdminAuditLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.AdminAuditLog{})
	if f.AdminID != nil {
		q = q.Where("admin_id = ?", *f.AdminID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		q = q.Where("resource = ?", f.Resource)
	}

	var logs []model.AdminAuditLog
	total, err := paginate(q.Preload("Admin"), f.Page, "created_at DESC, id DESC", &logs)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "audit_log")
	}
	return logs, total, nil
}

// RequestLogFilter narrows ListRequestLogs
type RequestLogFilter struct {
	UserID    *uint
	Method    string
	MinStatus int
	Page      query.Pagination
}

// ListRequestLogs returns persisted request logs, newest first
func (s *AdminService) ListRequestLogs(ctx context.Context, f RequestLogFilter) ([]model.RequestLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.RequestLog{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	if f.MinStatus > 0 {
		q = q.Where("status_code >= ?", f.MinStatus)
	}

	var logs []model.RequestLog
	total, err := paginate(q, f.Page, "created_at DESC, id DESC", &logs)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "request_log")
	}
	return logs, total, nil
}

// ListCronLogs returns cron job runs, newest first
func (s *AdminService) ListCronLogs(ctx context.Context, jobName, status string, p query.Pagination) ([]model.CronJobLog, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.CronJobLog{})
	if jobName != "" {
		q = q.Where("job_name = ?", jobName)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var logs []model.CronJobLog
	total, err := paginate(q, p, "started_at DESC, id DESC", &logs)
	if err != nil {
		return nil, 0, apperror.FromDB(err, "cron_log")
	}
	return logs, total, nil
}

// CleanupRequestLogs deletes request logs older than the retention window
func (s *AdminService) CleanupRequestLogs(ctx context.Context, retention time.Duration) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", time.Now().Add(-retention)).Delete(&model.RequestLog{})
	return res.RowsAffected, res.Error
}

// CleanupCronLogs deletes cron job logs older than the retention window
func (s *AdminService) CleanupCronLogs(ctx context.Context, retention time.Duration) (int64, error) {
	res := s.db.WithContext(ctx).Where("started_at < ?", time.Now().Add(-retention)).Delete(&model.CronJobLog{})
	return res.RowsAffected, res.Error
}
