package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/database"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dispatchNow = time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)

type fakeSender struct {
	mu         sync.Mutex
	configured bool
	errs       []error
	sent       []EmailMessage
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("email_%d", len(f.sent)), nil
}

func newTestStore(t *testing.T) (*gorm.DB, *repository.GormReservationRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db, repository.NewGormReservationRepository(db, clock.NewFixed(dispatchNow))
}

func createReservation(t *testing.T, repo *repository.GormReservationRepository, lang string) *models.Reservation {
	t.Helper()
	rec, err := repo.Create(context.Background(), models.Reservation{
		Name:     "Jane Doe",
		Email:    "jane@doe.be",
		Date:     "2026-03-11",
		Time:     "19:00 – 21:00",
		Guests:   4,
		Status:   models.StatusConfirmed,
		Language: lang,
	})
	require.NoError(t, err)
	return rec
}

func loadNotification(t *testing.T, db *gorm.DB, reservationID string) models.Notification {
	t.Helper()
	var n models.Notification
	require.NoError(t, db.Where("reservation_id = ?", reservationID).First(&n).Error)
	return n
}

func TestDispatcherDeliversQueuedNotification(t *testing.T) {
	db, repo := newTestStore(t)
	rec := createReservation(t, repo, "nl")

	sender := &fakeSender{configured: true}
	nd := NewNotificationDispatcher(repo, sender, clock.NewFixed(dispatchNow))

	sent, err := nd.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Reservering Bevestigd - "+rec.ReservationNumber, sender.sent[0].Subject)

	n := loadNotification(t, db, rec.ID)
	assert.Equal(t, models.OutboxSent, n.Status)
	assert.Equal(t, "email_1", *n.ProviderMessageID)

	// nothing left to send
	sent, err = nd.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDispatcherRetriesWithBackoff(t *testing.T) {
	db, repo := newTestStore(t)
	rec := createReservation(t, repo, "en")

	sender := &fakeSender{
		configured: true,
		errs:       []error{&models.NotificationError{StatusCode: 503, Err: errors.New("unavailable")}},
	}
	nd := NewNotificationDispatcher(repo, sender, clock.NewFixed(dispatchNow))

	sent, err := nd.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	n := loadNotification(t, db, rec.ID)
	assert.Equal(t, models.OutboxQueued, n.Status)
	assert.Equal(t, 1, n.Attempts)
	assert.True(t, n.NextAttemptAt.Equal(dispatchNow.Add(30*time.Second)))
	require.NotNil(t, n.LastError)

	later := NewNotificationDispatcher(repo, sender, clock.NewFixed(dispatchNow.Add(time.Minute)))
	sent, err = later.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	n = loadNotification(t, db, rec.ID)
	assert.Equal(t, models.OutboxSent, n.Status)
	assert.Equal(t, 2, n.Attempts)
}

func TestDispatcherGivesUpOnPermanentRejection(t *testing.T) {
	db, repo := newTestStore(t)
	rec := createReservation(t, repo, "en")

	sender := &fakeSender{
		configured: true,
		errs:       []error{&models.NotificationError{StatusCode: 422, Err: errors.New("invalid recipient")}},
	}
	nd := NewNotificationDispatcher(repo, sender, clock.NewFixed(dispatchNow))

	_, err := nd.ProcessDue(context.Background())
	require.NoError(t, err)

	n := loadNotification(t, db, rec.ID)
	assert.Equal(t, models.OutboxFailed, n.Status)

	// the reservation itself is untouched
	stored, err := repo.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestDispatcherStopsAfterMaxAttempts(t *testing.T) {
	db, repo := newTestStore(t)
	rec := createReservation(t, repo, "en")

	transient := &models.NotificationError{Err: errors.New("connection reset")}
	sender := &fakeSender{configured: true, errs: []error{transient, transient}}
	for i := 0; i < 2; i++ {
		nd := NewNotificationDispatcher(repo, sender, clock.NewFixed(dispatchNow.Add(time.Duration(i)*time.Hour)))
		nd.MaxAttempts = 2
		_, err := nd.ProcessDue(context.Background())
		require.NoError(t, err)
	}

	n := loadNotification(t, db, rec.ID)
	assert.Equal(t, models.OutboxFailed, n.Status)
	assert.Equal(t, 2, n.Attempts)
}

func TestDispatcherLeavesQueueAloneWithoutEmailConfig(t *testing.T) {
	db, repo := newTestStore(t)
	rec := createReservation(t, repo, "en")

	nd := NewNotificationDispatcher(repo, &fakeSender{configured: false}, clock.NewFixed(dispatchNow))
	sent, err := nd.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	n := loadNotification(t, db, rec.ID)
	assert.Equal(t, models.OutboxQueued, n.Status)
	assert.Zero(t, n.Attempts)

	_, err = nd.Notify(context.Background(), *rec, "en")
	assert.ErrorIs(t, err, models.ErrEmailNotConfigured)
}

func TestDispatcherStartStop(t *testing.T) {
	_, repo := newTestStore(t)
	nd := NewNotificationDispatcher(repo, &fakeSender{configured: true}, clock.NewSystem())
	nd.Interval = 10 * time.Millisecond

	nd.Start()
	time.Sleep(30 * time.Millisecond)
	nd.Stop()
	nd.Stop()
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 30*time.Second, Backoff(1))
	assert.Equal(t, time.Minute, Backoff(2))
	assert.Equal(t, 2*time.Minute, Backoff(3))
	assert.Equal(t, time.Hour, Backoff(20))
}
