package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReservationRepository stores reservations in sqlite or mysql. It also
// implements Outbox so the notification row shares the create transaction.
type GormReservationRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewGormReservationRepository(db *gorm.DB, c clock.Clock) *GormReservationRepository {
	return &GormReservationRepository{db: db, clock: c}
}

func (r *GormReservationRepository) Create(ctx context.Context, draft models.Reservation) (*models.Reservation, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	if draft.IdempotencyKey != nil {
		if existing, err := r.findByIdempotencyKey(ctx, *draft.IdempotencyKey); err != nil || existing != nil {
			return existing, err
		}
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		now := r.clock.Now()
		rec := prepare(draft, now)

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			entry, err := NewNotification(rec, now)
			if err != nil {
				return err
			}
			return tx.Create(&entry).Error
		})
		if err == nil {
			return &rec, nil
		}

		if !isDuplicateKey(err) {
			return nil, translateGormError("create reservation", err)
		}
		// a concurrent request with the same key won the race
		if draft.IdempotencyKey != nil {
			if existing, findErr := r.findByIdempotencyKey(ctx, *draft.IdempotencyKey); findErr != nil || existing != nil {
				return existing, findErr
			}
		}
	}

	return nil, &models.TransientError{Op: "create reservation", Err: errNumbersExhausted}
}

func (r *GormReservationRepository) findByIdempotencyKey(ctx context.Context, key string) (*models.Reservation, error) {
	var rec models.Reservation
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateGormError("find reservation by idempotency key", err)
	}
	rec.Replayed = true
	return &rec, nil
}

func (r *GormReservationRepository) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var rec models.Reservation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, translateGormError("get reservation", err)
	}
	return &rec, nil
}

func (r *GormReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var reservations []models.Reservation
	if err := query.Find(&reservations).Error; err != nil {
		return nil, translateGormError("list reservations", err)
	}
	return reservations, nil
}

func (r *GormReservationRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, reason *string) (*models.Reservation, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("status", "status_invalid", models.ErrInvalidStatus.Error())
	}

	var rec models.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			return err
		}

		now := r.clock.Now()
		if err := tx.Model(&models.Reservation{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		rec.Status = status
		rec.UpdatedAt = now

		if status == models.StatusCancelled {
			cancellation := models.Cancellation{
				ID:            uuid.NewString(),
				ReservationID: rec.ID,
				Reason:        reason,
				CancelledAt:   now,
			}
			if err := tx.Create(&cancellation).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, translateGormError("update reservation status", err)
	}
	return &rec, nil
}

func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[models.ReservationStatus]int64, error) {
	var rows []struct {
		Status models.ReservationStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, translateGormError("count reservations", err)
	}

	counts := make(map[models.ReservationStatus]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *GormReservationRepository) Enqueue(ctx context.Context, n models.Notification) error {
	if err := r.db.WithContext(ctx).Create(&n).Error; err != nil {
		return translateGormError("enqueue notification", err)
	}
	return nil
}

func (r *GormReservationRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	var due []models.Notification
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.OutboxQueued, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&due).Error; err != nil {
		return nil, translateGormError("load due notifications", err)
	}
	return due, nil
}

func (r *GormReservationRepository) MarkSent(ctx context.Context, id, providerMessageID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":              models.OutboxSent,
		"provider_message_id": providerMessageID,
		"attempts":            gorm.Expr("attempts + 1"),
		"last_error":          nil,
		"updated_at":          at,
	}).Error
	if err != nil {
		return translateGormError("mark notification sent", err)
	}
	return nil
}

func (r *GormReservationRepository) MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string, final bool, at time.Time) error {
	status := models.OutboxQueued
	if final {
		status = models.OutboxFailed
	}
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          status,
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt,
		"last_error":      lastErr,
		"updated_at":      at,
	}).Error
	if err != nil {
		return translateGormError("mark notification failed", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}

func translateGormError(op string, err error) error {
	if !isContextError(err) && isPermissionMessage(err.Error()) {
		return &models.PermissionError{Op: op, Err: err}
	}
	return &models.TransientError{Op: op, Err: err}
}
