package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgReservationRepository stores reservations in postgres through a pgx pool.
type PgReservationRepository struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewPgReservationRepository(pool *pgxpool.Pool, c clock.Clock) *PgReservationRepository {
	return &PgReservationRepository{pool: pool, clock: c}
}

const reservationColumns = `id::text, reservation_number, name, email, phone, date::text, time, guests,
	additional_info, status, language, created_at, updated_at`

func scanReservation(row pgx.Row) (models.Reservation, error) {
	var rec models.Reservation
	var status string
	err := row.Scan(&rec.ID, &rec.ReservationNumber, &rec.Name, &rec.Email, &rec.Phone, &rec.Date, &rec.Time,
		&rec.Guests, &rec.AdditionalInfo, &status, &rec.Language, &rec.CreatedAt, &rec.UpdatedAt)
	rec.Status = models.ReservationStatus(status)
	return rec, err
}

func (r *PgReservationRepository) Create(ctx context.Context, draft models.Reservation) (*models.Reservation, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	if draft.IdempotencyKey != nil {
		if existing, err := r.findByIdempotencyKey(ctx, *draft.IdempotencyKey); err != nil || existing != nil {
			return existing, err
		}
	}

	const insertReservation = `
INSERT INTO reservations (id, reservation_number, name, email, phone, date, time, guests,
	additional_info, status, language, idempotency_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9, $10, $11, $12, $13, $14)`

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		now := r.clock.Now()
		rec := prepare(draft, now)

		err := withTx(ctx, r.pool, func(ctx context.Context) error {
			if _, err := r.exec(ctx, insertReservation,
				rec.ID, rec.ReservationNumber, rec.Name, rec.Email, rec.Phone, rec.Date, rec.Time, rec.Guests,
				rec.AdditionalInfo, string(rec.Status), rec.Language, rec.IdempotencyKey, rec.CreatedAt, rec.UpdatedAt,
			); err != nil {
				return err
			}
			entry, err := NewNotification(rec, now)
			if err != nil {
				return err
			}
			return r.Enqueue(ctx, entry)
		})
		if err == nil {
			return &rec, nil
		}

		if !isUniqueViolation(err) {
			return nil, translatePgError("create reservation", err)
		}
		if draft.IdempotencyKey != nil {
			if existing, findErr := r.findByIdempotencyKey(ctx, *draft.IdempotencyKey); findErr != nil || existing != nil {
				return existing, findErr
			}
		}
	}

	return nil, &models.TransientError{Op: "create reservation", Err: errNumbersExhausted}
}

func (r *PgReservationRepository) findByIdempotencyKey(ctx context.Context, key string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE idempotency_key = $1`
	rec, err := scanReservation(r.queryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translatePgError("find reservation by idempotency key", err)
	}
	rec.Replayed = true
	return &rec, nil
}

func (r *PgReservationRepository) Get(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	rec, err := scanReservation(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, models.ErrNotFound
		}
		return nil, translatePgError("get reservation", err)
	}
	return &rec, nil
}

func (r *PgReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError("list reservations", err)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, translatePgError("list reservations", err)
		}
		reservations = append(reservations, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError("list reservations", err)
	}
	return reservations, nil
}

func (r *PgReservationRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, reason *string) (*models.Reservation, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("status", "status_invalid", models.ErrInvalidStatus.Error())
	}

	update := `UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1 RETURNING ` + reservationColumns
	const insertCancellation = `INSERT INTO cancellations (id, reservation_id, reason, cancelled_at) VALUES ($1, $2, $3, $4)`

	var rec models.Reservation
	err := withTx(ctx, r.pool, func(ctx context.Context) error {
		now := r.clock.Now()
		var err error
		rec, err = scanReservation(r.queryRow(ctx, update, id, string(status), now))
		if err != nil {
			return err
		}
		if status == models.StatusCancelled {
			if _, err := r.exec(ctx, insertCancellation, uuid.NewString(), rec.ID, reason, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, models.ErrNotFound
		}
		return nil, translatePgError("update reservation status", err)
	}
	return &rec, nil
}

func (r *PgReservationRepository) CountByStatus(ctx context.Context) (map[models.ReservationStatus]int64, error) {
	rows, err := r.query(ctx, `SELECT status, COUNT(*) FROM reservations GROUP BY status`)
	if err != nil {
		return nil, translatePgError("count reservations", err)
	}
	defer rows.Close()

	counts := make(map[models.ReservationStatus]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var total int64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, translatePgError("count reservations", err)
		}
		counts[models.ReservationStatus(status)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError("count reservations", err)
	}
	return counts, nil
}

func (r *PgReservationRepository) Enqueue(ctx context.Context, n models.Notification) error {
	const stmt = `
INSERT INTO notifications (id, reservation_id, language, payload, status, attempts, next_attempt_at, created_at, updated_at)
VALUES ($1, $2, $3, $4::text::jsonb, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt, n.ID, n.ReservationID, n.Language, n.Payload, string(n.Status),
		n.Attempts, n.NextAttemptAt, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (r *PgReservationRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	const query = `
SELECT id::text, reservation_id::text, language, payload::text, status, attempts, next_attempt_at,
	last_error, provider_message_id, created_at, updated_at
FROM notifications
WHERE status = $1 AND next_attempt_at <= $2
ORDER BY next_attempt_at ASC
LIMIT $3`

	rows, err := r.query(ctx, query, string(models.OutboxQueued), now, limit)
	if err != nil {
		return nil, translatePgError("load due notifications", err)
	}
	defer rows.Close()

	var due []models.Notification
	for rows.Next() {
		var n models.Notification
		var status string
		if err := rows.Scan(&n.ID, &n.ReservationID, &n.Language, &n.Payload, &status, &n.Attempts, &n.NextAttemptAt,
			&n.LastError, &n.ProviderMessageID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, translatePgError("load due notifications", err)
		}
		n.Status = models.OutboxStatus(status)
		due = append(due, n)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError("load due notifications", err)
	}
	return due, nil
}

func (r *PgReservationRepository) MarkSent(ctx context.Context, id, providerMessageID string, at time.Time) error {
	const stmt = `
UPDATE notifications
SET status = $2, provider_message_id = $3, attempts = attempts + 1, last_error = NULL, updated_at = $4
WHERE id = $1`

	if _, err := r.exec(ctx, stmt, id, string(models.OutboxSent), providerMessageID, at); err != nil {
		return translatePgError("mark notification sent", err)
	}
	return nil
}

func (r *PgReservationRepository) MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string, final bool, at time.Time) error {
	const stmt = `
UPDATE notifications
SET status = $2, attempts = $3, next_attempt_at = $4, last_error = $5, updated_at = $6
WHERE id = $1`

	status := models.OutboxQueued
	if final {
		status = models.OutboxFailed
	}
	if _, err := r.exec(ctx, stmt, id, string(status), attempts, nextAttemptAt, lastErr, at); err != nil {
		return translatePgError("mark notification failed", err)
	}
	return nil
}

func (r *PgReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PgReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *PgReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func translatePgError(op string, err error) error {
	if !isContextError(err) && (isInsufficientPrivilege(err) || isPermissionMessage(err.Error())) {
		return &models.PermissionError{Op: op, Err: err}
	}
	return &models.TransientError{Op: op, Err: err}
}
