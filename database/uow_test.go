package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := OpenGORM(dsn, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })
	return store.DB()
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	uow := NewUnitOfWork(db, 5*time.Second)
	phone := fmt.Sprintf("+99877%09d", time.Now().UnixNano()%1_000_000_000)

	boom := errors.New("boom")
	err := uow.Do(context.Background(), func(tx *gorm.DB) error {
		center := &model.LearningCenter{Name: "Rollback", Phone: phone, Email: phone + "@example.com"}
		if err := tx.Create(center).Error; err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var n int64
	require.NoError(t, db.Model(&model.LearningCenter{}).Where("phone = ?", phone).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUnitOfWork_TimeoutIsTransactionFailure(t *testing.T) {
	db := openTestDB(t)
	uow := NewUnitOfWork(db, 50*time.Millisecond)

	err := uow.Do(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("SELECT pg_sleep(1)").Error
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindTransactionFailure))
}

func TestUnitOfWork_WithTimeoutOverridesDefault(t *testing.T) {
	db := openTestDB(t)
	sleep := func(tx *gorm.DB) error { return tx.Exec("SELECT pg_sleep(0.2)").Error }

	short := NewUnitOfWork(db, 10*time.Second).WithTimeout(50 * time.Millisecond)
	err := short.Do(context.Background(), sleep)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindTransactionFailure))

	long := NewUnitOfWork(db, 50*time.Millisecond).WithTimeout(5 * time.Second)
	assert.NoError(t, long.Do(context.Background(), sleep))
}

func TestUnitOfWork_PassesThroughDomainErrors(t *testing.T) {
	db := openTestDB(t)
	uow := NewUnitOfWork(db, time.Second)

	err := uow.Do(context.Background(), func(tx *gorm.DB) error {
		return apperror.CapacityExceeded(1, 2)
	})
	assert.True(t, apperror.IsKind(err, apperror.KindCapacityExceeded))
}
