package cron

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSchedules(t *testing.T) {
	m := NewCronManager(nil, Dependencies{})
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	from := time.Date(2025, 6, 10, 0, 30, 0, 0, time.Local)
	want := map[string]time.Time{
		"reconcile_group_occupancy":  time.Date(2025, 6, 10, 0, 40, 0, 0, time.Local),
		"cleanup_expired_tokens":     time.Date(2025, 6, 10, 1, 0, 0, 0, time.Local),
		"deactivate_finished_groups": time.Date(2025, 6, 10, 1, 0, 0, 0, time.Local),
		"cleanup_old_logs":           time.Date(2025, 6, 10, 2, 0, 0, 0, time.Local),
	}

	jobs := m.jobs()
	require.Len(t, jobs, len(want))
	for _, j := range jobs {
		sched, err := parser.Parse(j.schedule)
		require.NoError(t, err, j.name)
		assert.True(t, want[j.name].Equal(sched.Next(from)), j.name)
		assert.NotNil(t, j.run, j.name)
		assert.Greater(t, j.timeout, time.Duration(0), j.name)
	}
}

func TestNewCronManagerDefaultsRetention(t *testing.T) {
	m := NewCronManager(nil, Dependencies{})
	assert.Equal(t, 30*24*time.Hour, m.deps.RequestLogRetention)
}

func TestRunNowUnknownJob(t *testing.T) {
	m := NewCronManager(nil, Dependencies{})
	assert.Error(t, m.RunNow("does_not_exist"))
}
