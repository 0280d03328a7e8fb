package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/repository"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

// EmailSender delivers rendered email. ResendService is the production sender.
type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

const (
	defaultDispatchInterval = 15 * time.Second
	defaultBatchSize        = 20
	defaultMaxAttempts      = 5
	baseBackoff             = 30 * time.Second
	maxBackoff              = time.Hour
)

// NotificationDispatcher drains the notification outbox in the background.
// A reservation is already stored when its notification is queued, so a
// failed email never fails the reservation.
type NotificationDispatcher struct {
	outbox      repository.Outbox
	sender      EmailSender
	clock       clock.Clock
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	StopChan    chan struct{}

	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

func NewNotificationDispatcher(outbox repository.Outbox, sender EmailSender, c clock.Clock) *NotificationDispatcher {
	return &NotificationDispatcher{
		outbox:      outbox,
		sender:      sender,
		clock:       c,
		Interval:    defaultDispatchInterval,
		BatchSize:   defaultBatchSize,
		MaxAttempts: defaultMaxAttempts,
		StopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (nd *NotificationDispatcher) Start() {
	if !nd.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-nd.StopChan
		cancel()
	}()

	go func() {
		defer close(nd.done)
		ticker := time.NewTicker(nd.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := nd.ProcessDue(ctx); err != nil {
					utils.ErrorLogger.Errorf("Notification dispatch failed: %v", err)
				}
			case <-nd.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.WithField("interval", nd.Interval.String()).Info("Notification dispatcher started")
}

// Stop ends the loop and waits for an in-flight batch to finish.
func (nd *NotificationDispatcher) Stop() {
	nd.stopOnce.Do(func() {
		close(nd.StopChan)
	})
	if !nd.started.Load() {
		return
	}
	<-nd.done
	utils.InfoLogger.Info("Notification dispatcher stopped")
}

// ProcessDue delivers one batch of due notifications and returns how many
// were sent. Rows stay queued while email is not configured.
func (nd *NotificationDispatcher) ProcessDue(ctx context.Context) (int, error) {
	if nd.sender == nil || !nd.sender.Configured() {
		return 0, nil
	}

	due, err := nd.outbox.Due(ctx, nd.clock.Now(), nd.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if nd.deliver(ctx, n) {
			sent++
		}
	}

	if len(due) > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"due":  len(due),
			"sent": sent,
		}).Info("Processed notification batch")
	}
	return sent, nil
}

func (nd *NotificationDispatcher) deliver(ctx context.Context, n models.Notification) bool {
	log := utils.InfoLogger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"reservation_id":  n.ReservationID,
		"attempt":         n.Attempts + 1,
	})

	var rec models.Reservation
	if err := json.Unmarshal([]byte(n.Payload), &rec); err != nil {
		nd.fail(ctx, n, fmt.Errorf("decode payload: %w", err), true)
		return false
	}

	msg, err := RenderReservationEmail(rec, n.Language)
	if err != nil {
		nd.fail(ctx, n, err, true)
		return false
	}

	id, err := nd.sender.Send(ctx, msg)
	if err != nil {
		nd.fail(ctx, n, err, isPermanent(err))
		return false
	}

	if err := nd.outbox.MarkSent(ctx, n.ID, id, nd.clock.Now()); err != nil {
		// the email went out; a duplicate on the next run is the lesser problem
		utils.ErrorLogger.WithField("notification_id", n.ID).Errorf("Failed to mark notification sent: %v", err)
	}
	log.WithField("email_id", id).Info("Reservation email delivered")
	return true
}

func (nd *NotificationDispatcher) fail(ctx context.Context, n models.Notification, cause error, permanent bool) {
	attempts := n.Attempts + 1
	final := permanent || attempts >= nd.MaxAttempts
	now := nd.clock.Now()
	next := now.Add(Backoff(attempts))

	utils.ErrorLogger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"reservation_id":  n.ReservationID,
		"attempt":         attempts,
		"final":           final,
		"error":           cause.Error(),
	}).Error("Reservation email not delivered")

	if err := nd.outbox.MarkFailed(ctx, n.ID, attempts, next, cause.Error(), final, now); err != nil {
		utils.ErrorLogger.WithField("notification_id", n.ID).Errorf("Failed to record notification failure: %v", err)
	}
}

// Notify renders and sends the email for a reservation immediately.
func (nd *NotificationDispatcher) Notify(ctx context.Context, rec models.Reservation, lang string) (string, error) {
	if nd.sender == nil || !nd.sender.Configured() {
		return "", models.ErrEmailNotConfigured
	}
	msg, err := RenderReservationEmail(rec, lang)
	if err != nil {
		return "", err
	}
	return nd.sender.Send(ctx, msg)
}

// Backoff is the delay before retry number attempts+1: 30s, 1m, 2m and so on,
// capped at an hour.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// isPermanent reports provider rejections that retrying cannot fix.
func isPermanent(err error) bool {
	if errors.Is(err, models.ErrEmailNotConfigured) {
		return false
	}
	var nErr *models.NotificationError
	if !errors.As(err, &nErr) || nErr.StatusCode == 0 {
		return false
	}
	switch nErr.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return nErr.StatusCode >= 400 && nErr.StatusCode < 500
}
