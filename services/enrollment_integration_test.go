package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// enrollmentFixture is one isolated learning center in the test database
type enrollmentFixture struct {
	db         *gorm.DB
	enrollment *EnrollmentService
	students   *StudentService
	groups     *GroupService
	notifier   *recordingNotifier
	center     *model.LearningCenter
	seq        int64
}

type recordingNotifier struct {
	mu   sync.Mutex
	full []uint
}

func (n *recordingNotifier) NotifyGroupFull(_ context.Context, g *model.Group) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.full = append(n.full, g.ID)
	return nil
}

func setupEnrollment(t *testing.T) *enrollmentFixture {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := database.OpenGORM(dsn, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, store.Init())
	db := store.DB()

	stamp := time.Now().UnixNano() % 1_000_000_000
	center := &model.LearningCenter{
		Name:    fmt.Sprintf("Test Center %d", stamp),
		Phone:   fmt.Sprintf("+99871%09d", stamp),
		Email:   fmt.Sprintf("center%d@example.com", stamp),
		Address: "Test street 1",
	}
	require.NoError(t, db.Create(center).Error)
	t.Cleanup(func() {
		db.Unscoped().Delete(&model.LearningCenter{}, center.ID)
		_ = store.Close()
	})

	uow := database.NewUnitOfWork(db, 10*time.Second)
	notifier := &recordingNotifier{}
	return &enrollmentFixture{
		db:         db,
		enrollment: NewEnrollmentService(db, uow, notifier),
		students:   NewStudentService(db, uow),
		groups:     NewGroupService(db, uow),
		notifier:   notifier,
		center:     center,
		seq:        stamp * 100,
	}
}

func (f *enrollmentFixture) group(t *testing.T, max *int) *model.Group {
	t.Helper()
	g, err := f.groups.Create(context.Background(), GroupInput{
		LearningCenterID: f.center.ID,
		Name:             "Group",
		StartDate:        time.Now(),
		EndDate:          time.Now().AddDate(0, 3, 0),
		LessonDays:       3,
		LessonTime:       "10:00",
		MonthlyPrice:     300000,
		MaxStudents:      max,
	})
	require.NoError(t, err)
	return g
}

func (f *enrollmentFixture) payload() StudentPayload {
	n := atomic.AddInt64(&f.seq, 1)
	return StudentPayload{
		FullName:    fmt.Sprintf("Student %d", n),
		Phone:       fmt.Sprintf("+99890%011d", n),
		ParentPhone: fmt.Sprintf("+99891%011d", n),
		BirthDate:   time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *enrollmentFixture) assertLedger(t *testing.T, groupID uint, want int) {
	t.Helper()
	var g model.Group
	require.NoError(t, f.db.First(&g, groupID).Error)
	var active int64
	require.NoError(t, f.db.Model(&model.GroupStudent{}).
		Where("group_id = ? AND status = ?", groupID, model.MembershipActive).Count(&active).Error)
	assert.Equal(t, want, g.CurrentStudents)
	assert.Equal(t, int64(want), active)
}

func intPtr(v int) *int { return &v }

func TestEnrollment_CapacityExceeded(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, intPtr(2))

	_, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	f.assertLedger(t, g.ID, 1)

	res, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Group.CurrentStudents)
	assert.Equal(t, []uint{g.ID}, f.notifier.full)

	rejected := f.payload()
	_, err = f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, rejected)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindCapacityExceeded))
	f.assertLedger(t, g.ID, 2)

	// Atomicity: the rejected student row was never written
	var n int64
	require.NoError(t, f.db.Model(&model.Student{}).Where("phone = ?", rejected.Phone).Count(&n).Error)
	assert.Zero(t, n)
}

func TestEnrollment_AlreadyEnrolled(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, nil)

	res, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)

	_, err = f.enrollment.AddStudentToGroup(ctx, res.Student.ID, g.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, &apperror.Error{Kind: apperror.KindConflict, Reason: apperror.ReasonAlreadyEnrolled})
	f.assertLedger(t, g.ID, 1)

	// A withdrawn membership still blocks re-enrollment
	_, err = f.enrollment.WithdrawStudent(ctx, res.Student.ID, g.ID, "")
	require.NoError(t, err)
	_, err = f.enrollment.AddStudentToGroup(ctx, res.Student.ID, g.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestEnrollment_PhoneCollisionWritesNothing(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, nil)

	p := f.payload()
	p.ParentPhone = p.Phone
	_, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, &apperror.Error{Kind: apperror.KindInvalidArgument, Reason: apperror.ReasonPhoneCollision})

	var n int64
	require.NoError(t, f.db.Model(&model.Student{}).Where("phone = ?", p.Phone).Count(&n).Error)
	assert.Zero(t, n)
	f.assertLedger(t, g.ID, 0)
}

func TestEnrollment_Withdraw(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, intPtr(5))

	first, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	_, err = f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	f.assertLedger(t, g.ID, 2)

	res, err := f.enrollment.WithdrawStudent(ctx, first.Student.ID, g.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipLeft, res.Membership.Status)
	require.NotNil(t, res.Membership.LeftAt)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), time.Time(*res.Membership.LeftAt).Format("2006-01-02"))
	assert.Equal(t, 1, res.Group.CurrentStudents)
	f.assertLedger(t, g.ID, 1)

	// Second withdrawal is a deterministic conflict and changes nothing
	_, err = f.enrollment.WithdrawStudent(ctx, first.Student.ID, g.ID, "")
	assert.ErrorIs(t, err, &apperror.Error{Kind: apperror.KindConflict, Reason: apperror.ReasonAlreadyWithdrawn})
	f.assertLedger(t, g.ID, 1)

	_, err = f.enrollment.WithdrawStudent(ctx, first.Student.ID, g.ID, model.MembershipStatus("GONE"))
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidArgument))
}

func TestEnrollment_WithdrawBlocked(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, intPtr(5))

	first, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	_, err = f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	f.assertLedger(t, g.ID, 2)

	res, err := f.enrollment.WithdrawStudent(ctx, first.Student.ID, g.ID, model.MembershipBlocked)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipBlocked, res.Membership.Status)
	assert.Equal(t, 1, res.Group.CurrentStudents)

	var stored model.GroupStudent
	require.NoError(t, f.db.Where("group_id = ? AND student_id = ?", g.ID, first.Student.ID).First(&stored).Error)
	assert.Equal(t, model.MembershipBlocked, stored.Status)
	require.NotNil(t, stored.LeftAt)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), time.Time(*stored.LeftAt).Format("2006-01-02"))
	f.assertLedger(t, g.ID, 1)

	// A blocked membership is not re-activated by enrollment
	_, err = f.enrollment.AddStudentToGroup(ctx, first.Student.ID, g.ID)
	assert.ErrorIs(t, err, &apperror.Error{Kind: apperror.KindConflict, Reason: apperror.ReasonAlreadyEnrolled})
	f.assertLedger(t, g.ID, 1)
}

func TestDeleteMembership_RecomputesGroup(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, intPtr(5))
	other := f.group(t, nil)

	first, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	second, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)
	f.assertLedger(t, g.ID, 2)

	// The membership must belong to the group in the path
	_, err = f.enrollment.DeleteMembership(ctx, other.ID, first.Membership.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	f.assertLedger(t, g.ID, 2)

	group, err := f.enrollment.DeleteMembership(ctx, g.ID, first.Membership.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, group.CurrentStudents)
	f.assertLedger(t, g.ID, 1)

	var n int64
	require.NoError(t, f.db.Model(&model.GroupStudent{}).Where("id = ?", first.Membership.ID).Count(&n).Error)
	assert.Zero(t, n)

	_, err = f.enrollment.DeleteMembership(ctx, g.ID, first.Membership.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	// Erasing a withdrawn membership leaves the counter unchanged
	_, err = f.enrollment.WithdrawStudent(ctx, second.Student.ID, g.ID, "")
	require.NoError(t, err)
	f.assertLedger(t, g.ID, 0)
	group, err = f.enrollment.DeleteMembership(ctx, g.ID, second.Membership.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, group.CurrentStudents)
	f.assertLedger(t, g.ID, 0)
}

func TestEnrollment_ConcurrentLastSeat(t *testing.T) {
	f := setupEnrollment(t)
	g := f.group(t, intPtr(1))

	const attempts = 2
	var (
		wg        sync.WaitGroup
		succeeded int32
		rejected  int32
		start     = make(chan struct{})
		errs      = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		p := f.payload()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.enrollment.CreateStudent(context.Background(), f.center.ID, g.ID, p)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case apperror.IsKind(err, apperror.KindCapacityExceeded):
				atomic.AddInt32(&rejected, 1)
			default:
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, int32(1), succeeded)
	assert.Equal(t, int32(1), rejected)
	f.assertLedger(t, g.ID, 1)
}

func TestStudentDelete_RecomputesGroups(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	a := f.group(t, nil)
	b := f.group(t, nil)

	res, err := f.enrollment.CreateStudent(ctx, f.center.ID, a.ID, f.payload())
	require.NoError(t, err)
	_, err = f.enrollment.AddStudentToGroup(ctx, res.Student.ID, b.ID)
	require.NoError(t, err)
	f.assertLedger(t, a.ID, 1)
	f.assertLedger(t, b.ID, 1)

	require.NoError(t, f.students.Delete(ctx, res.Student.ID))
	f.assertLedger(t, a.ID, 0)
	f.assertLedger(t, b.ID, 0)

	err = f.students.Delete(ctx, res.Student.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestStudentDelete_ConcurrentAddToGroup(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	home := f.group(t, nil)
	target := f.group(t, nil)

	for round := 0; round < 10; round++ {
		res, err := f.enrollment.CreateStudent(ctx, f.center.ID, home.ID, f.payload())
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			start     = make(chan struct{})
			deleteErr error
			addErr    error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			deleteErr = f.students.Delete(ctx, res.Student.ID)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, addErr = f.enrollment.AddStudentToGroup(ctx, res.Student.ID, target.ID)
		}()
		close(start)
		wg.Wait()

		require.NoError(t, deleteErr, "round %d", round)
		if addErr != nil {
			// The student vanished before or during the enrollment
			assert.True(t, apperror.IsKind(addErr, apperror.KindNotFound) ||
				apperror.IsKind(addErr, apperror.KindInvalidArgument) ||
				apperror.IsKind(addErr, apperror.KindTransactionFailure),
				"round %d: unexpected error %v", round, addErr)
		}

		f.assertLedger(t, home.ID, 0)
		f.assertLedger(t, target.ID, 0)
	}
}

func TestGroupUpdate_CapacityBelowOccupancy(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, intPtr(3))

	for i := 0; i < 2; i++ {
		_, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
		require.NoError(t, err)
	}

	_, err := f.groups.Update(ctx, g.ID, UpdateGroupInput{MaxStudents: intPtr(1)})
	assert.ErrorIs(t, err, &apperror.Error{Kind: apperror.KindInvalidArgument, Reason: apperror.ReasonCapacityBelowOccupancy})

	updated, err := f.groups.Update(ctx, g.ID, UpdateGroupInput{MaxStudents: intPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxStudents)
}

func TestReconcileOccupancy_FixesDrift(t *testing.T) {
	f := setupEnrollment(t)
	ctx := context.Background()
	g := f.group(t, nil)

	_, err := f.enrollment.CreateStudent(ctx, f.center.ID, g.ID, f.payload())
	require.NoError(t, err)

	// Simulate drift written outside the ledger
	require.NoError(t, f.db.Model(&model.Group{}).Where("id = ?", g.ID).Update("current_students", 7).Error)

	res, err := f.enrollment.ReconcileOccupancy(ctx)
	require.NoError(t, err)
	assert.Contains(t, res.Fixed, g.ID)
	f.assertLedger(t, g.ID, 1)
}

func TestEnrollment_CrossCenterGroup(t *testing.T) {
	f := setupEnrollment(t)
	other := setupEnrollment(t)
	g := other.group(t, nil)

	_, err := f.enrollment.CreateStudent(context.Background(), f.center.ID, g.ID, f.payload())
	require.Error(t, err)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ReasonCrossCenter, appErr.Reason)
}
