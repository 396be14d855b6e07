package cron

import (
	"context"
	"fmt"
	"time"
)

// ReconcileGroupOccupancy recomputes every group whose stored counter no
// longer matches its ACTIVE memberships
func (m *CronManager) ReconcileGroupOccupancy(ctx context.Context) (*jobResult, error) {
	result, err := m.deps.Enrollment.ReconcileOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile occupancy: %w", err)
	}

	msg := fmt.Sprintf("Checked %d groups, fixed %d", result.Checked, len(result.Fixed))
	return &jobResult{
		Message: msg,
		Metadata: map[string]interface{}{
			"checked":         result.Checked,
			"fixed_group_ids": result.Fixed,
		},
	}, nil
}

// CleanupExpiredTokens purges blacklist rows whose tokens expired anyway
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (*jobResult, error) {
	n, err := m.deps.Blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cleanup token blacklist: %w", err)
	}
	return &jobResult{
		Message:  fmt.Sprintf("Removed %d expired blacklist entries", n),
		Metadata: map[string]interface{}{"deleted": n},
	}, nil
}

// DeactivateFinishedGroups marks groups inactive once their end date passed
func (m *CronManager) DeactivateFinishedGroups(ctx context.Context) (*jobResult, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	n, err := m.deps.Groups.DeactivateFinished(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate groups: %w", err)
	}
	return &jobResult{
		Message:  fmt.Sprintf("Deactivated %d finished groups", n),
		Metadata: map[string]interface{}{"deactivated": n},
	}, nil
}

// CleanupOldLogs removes old request logs, cron logs and read notifications
func (m *CronManager) CleanupOldLogs(ctx context.Context) (*jobResult, error) {
	requestLogs, err := m.deps.Admin.CleanupRequestLogs(ctx, m.deps.RequestLogRetention)
	if err != nil {
		return nil, fmt.Errorf("failed to cleanup request logs: %w", err)
	}

	cronLogs, err := m.deps.Admin.CleanupCronLogs(ctx, 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to cleanup cron logs: %w", err)
	}

	notifications, err := m.deps.Notifications.CleanupOldNotifications(ctx, 90*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to cleanup notifications: %w", err)
	}

	return &jobResult{
		Message: fmt.Sprintf("Deleted %d request logs, %d cron logs, %d notifications", requestLogs, cronLogs, notifications),
		Metadata: map[string]interface{}{
			"request_logs":  requestLogs,
			"cron_logs":     cronLogs,
			"notifications": notifications,
		},
	}, nil
}
