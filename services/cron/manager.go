package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/services"
	"github.com/sahilchouksey/learning-center-api/utils/auth"
	"github.com/sahilchouksey/learning-center-api/utils/cache"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dependencies are the services the jobs drive
type Dependencies struct {
	Enrollment    *services.EnrollmentService
	Groups        *services.GroupService
	Notifications *services.NotificationService
	Admin         *services.AdminService
	Blacklist     *auth.BlacklistService
	// Locker may be nil; jobs then run without cross-instance locking
	Locker              *cache.RedisCache
	RequestLogRetention time.Duration
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
	deps Dependencies
}

// jobResult is what a job reports back for its log row
type jobResult struct {
	Message  string
	Metadata map[string]interface{}
}

type job struct {
	name     string
	schedule string
	timeout  time.Duration
	run      func(ctx context.Context) (*jobResult, error)
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, deps Dependencies) *CronManager {
	if deps.RequestLogRetention <= 0 {
		deps.RequestLogRetention = 30 * 24 * time.Hour
	}

	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
		deps: deps,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

func (m *CronManager) jobs() []job {
	return []job{
		// 1. Every 10 minutes: repair drifted group counters
		{name: "reconcile_group_occupancy", schedule: "0 */10 * * * *", timeout: 5 * time.Minute, run: m.ReconcileGroupOccupancy},
		// 2. Every hour: purge expired blacklist rows
		{name: "cleanup_expired_tokens", schedule: "0 0 * * * *", timeout: 5 * time.Minute, run: m.CleanupExpiredTokens},
		// 3. Daily at 1 AM: close groups whose end date passed
		{name: "deactivate_finished_groups", schedule: "0 0 1 * * *", timeout: 10 * time.Minute, run: m.DeactivateFinishedGroups},
		// 4. Daily at 2 AM: cleanup old logs
		{name: "cleanup_old_logs", schedule: "0 0 2 * * *", timeout: 30 * time.Minute, run: m.CleanupOldLogs},
	}
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	for _, j := range m.jobs() {
		j := j
		if _, err := m.cron.AddFunc(j.schedule, func() { m.runJob(j) }); err != nil {
			return fmt.Errorf("register %s: %w", j.name, err)
		}
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// RunNow executes a registered job immediately, outside its schedule
func (m *CronManager) RunNow(name string) error {
	for _, j := range m.jobs() {
		if j.name == name {
			m.runJob(j)
			return nil
		}
	}
	return fmt.Errorf("unknown cron job %q", name)
}

// runJob takes the job's distributed lock, runs it and records the outcome
func (m *CronManager) runJob(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if m.deps.Locker != nil {
		lock, err := m.deps.Locker.TryLock(ctx, "cron:lock:"+j.name, j.timeout)
		if err != nil {
			log.Printf("[CRON] Lock unavailable for %s, running unlocked: %v", j.name, err)
		} else if lock == nil {
			log.Printf("[CRON] Skipping %s: running on another instance", j.name)
			return
		} else {
			defer func() {
				if err := lock.Release(context.Background()); err != nil {
					log.Printf("[CRON] Failed to release lock for %s: %v", j.name, err)
				}
			}()
		}
	}

	entry := m.logJobStart(j.name)
	result, err := j.run(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, result)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusStarted,
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		log.Printf("[CRON] Failed to record start of %s: %v", jobName, err)
	}
	return cronLog
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, result *jobResult) {
	log.Printf("[CRON] Completed job: %s - %s", entry.JobName, result.Message)

	updates := map[string]interface{}{
		"status":  model.CronStatusCompleted,
		"message": result.Message,
	}
	if len(result.Metadata) > 0 {
		if raw, err := json.Marshal(result.Metadata); err == nil {
			updates["metadata"] = datatypes.JSON(raw)
		}
	}
	m.finish(entry, updates)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Printf("[CRON] Error in job: %s - %v", entry.JobName, err)

	m.finish(entry, map[string]interface{}{
		"status":    model.CronStatusFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	now := time.Now()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(entry.StartedAt).Milliseconds()
	if err := m.db.Model(entry).Updates(updates).Error; err != nil {
		log.Printf("[CRON] Failed to record outcome of %s: %v", entry.JobName, err)
	}
}
