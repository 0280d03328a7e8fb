package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/database"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func draft(name string, guests int, status models.ReservationStatus) models.Reservation {
	return models.Reservation{
		Name:   name,
		Email:  strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Date:   "2026-03-11",
		Time:   "19:00",
		Guests: guests,
		Status: status,
	}
}

func TestGormCreateAssignsIdentityAndQueuesNotification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewFixed(fixedNow))
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Jane Doe", 4, models.StatusConfirmed))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Regexp(t, `^EAW-[A-HJ-NP-Z2-9]{6}$`, rec.ReservationNumber)
	assert.True(t, rec.CreatedAt.Equal(fixedNow))
	assert.Equal(t, "en", rec.Language)

	due, err := repo.Due(ctx, fixedNow, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, rec.ID, due[0].ReservationID)

	var snapshot models.Reservation
	require.NoError(t, json.Unmarshal([]byte(due[0].Payload), &snapshot))
	assert.Equal(t, rec.ReservationNumber, snapshot.ReservationNumber)
	assert.Equal(t, models.StatusConfirmed, snapshot.Status)
}

func TestGormCreateRejectsOutOfRangeGuests(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewFixed(fixedNow))

	for _, guests := range []int{0, 23} {
		_, err := repo.Create(context.Background(), draft("Jane Doe", guests, models.StatusConfirmed))
		var vErr *models.ValidationError
		require.True(t, errors.As(err, &vErr), "guests=%d", guests)
		assert.Equal(t, "guests", vErr.Field)
	}

	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	assert.Zero(t, count)
}

func TestGormCreateThenListContainsExactlyOneRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewSystem())
	ctx := context.Background()

	numbers := map[string]bool{}
	for i := 0; i < 20; i++ {
		rec, err := repo.Create(ctx, draft(fmt.Sprintf("Guest %d", i), 2, models.StatusConfirmed))
		require.NoError(t, err)
		assert.False(t, numbers[rec.ReservationNumber], "duplicate number %s", rec.ReservationNumber)
		numbers[rec.ReservationNumber] = true
	}

	rec, err := repo.Create(ctx, draft("Jane Doe", 4, models.StatusConfirmed))
	require.NoError(t, err)

	all, err := repo.List(ctx, models.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 21)

	matches := 0
	for _, r := range all {
		if r.ID == rec.ID {
			matches++
			assert.Equal(t, "Jane Doe", r.Name)
			assert.False(t, r.CreatedAt.IsZero())
		}
	}
	assert.Equal(t, 1, matches)
}

func TestGormCreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewFixed(fixedNow))
	ctx := context.Background()

	key := "4b7f2c9e-submit-1"
	d := draft("Jane Doe", 4, models.StatusConfirmed)
	d.IdempotencyKey = &key

	first, err := repo.Create(ctx, d)
	require.NoError(t, err)
	second, err := repo.Create(ctx, d)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReservationNumber, second.ReservationNumber)
	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGormListOrderAndFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	older := NewGormReservationRepository(db, clock.NewFixed(fixedNow.Add(-time.Hour)))
	newer := NewGormReservationRepository(db, clock.NewFixed(fixedNow))

	first, err := older.Create(ctx, draft("Early Bird", 2, models.StatusConfirmed))
	require.NoError(t, err)
	second, err := newer.Create(ctx, draft("Big Party", 12, models.StatusPending))
	require.NoError(t, err)

	all, err := newer.List(ctx, models.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	pending := models.StatusPending
	filtered, err := newer.List(ctx, models.ReservationFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)

	counts, err := newer.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.StatusPending])
	assert.Equal(t, int64(1), counts[models.StatusConfirmed])
	assert.Equal(t, int64(0), counts[models.StatusCancelled])
	assert.Equal(t, int64(0), counts[models.StatusCompleted])
}

func TestGormUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewFixed(fixedNow))
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Big Party", 12, models.StatusPending))
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, rec.ID, models.StatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)

	// any status may follow any other
	reason := "Guest called to cancel"
	updated, err = repo.UpdateStatus(ctx, rec.ID, models.StatusCancelled, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)

	var cancellations []models.Cancellation
	require.NoError(t, db.Find(&cancellations).Error)
	require.Len(t, cancellations, 1)
	assert.Equal(t, rec.ID, cancellations[0].ReservationID)
	assert.Equal(t, reason, *cancellations[0].Reason)

	updated, err = repo.UpdateStatus(ctx, rec.ID, models.StatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)

	stored, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.True(t, stored.CreatedAt.Equal(rec.CreatedAt))
}

func TestGormUpdateStatusErrors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewFixed(fixedNow))
	ctx := context.Background()

	_, err := repo.UpdateStatus(ctx, "missing-id", models.StatusConfirmed, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.UpdateStatus(ctx, "missing-id", models.ReservationStatus("seated"), nil)
	var vErr *models.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = repo.Get(ctx, "missing-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGormOutboxLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReservationRepository(db, clock.NewFixed(fixedNow))
	ctx := context.Background()

	_, err := repo.Create(ctx, draft("Jane Doe", 4, models.StatusConfirmed))
	require.NoError(t, err)

	due, err := repo.Due(ctx, fixedNow, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	id := due[0].ID

	retryAt := fixedNow.Add(time.Minute)
	require.NoError(t, repo.MarkFailed(ctx, id, 1, retryAt, "provider returned 500", false, fixedNow))

	due, err = repo.Due(ctx, fixedNow, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "row is not due before its retry time")

	due, err = repo.Due(ctx, retryAt, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)

	require.NoError(t, repo.MarkSent(ctx, id, "email_123", retryAt))

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, models.OutboxSent, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
	assert.Equal(t, "email_123", *stored.ProviderMessageID)
	assert.Nil(t, stored.LastError)
}

func TestNewReservationNumberFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Regexp(t, `^EAW-[A-HJ-NP-Z2-9]{6}$`, NewReservationNumber())
	}
}
