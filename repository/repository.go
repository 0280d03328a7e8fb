package repository

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/google/uuid"
)

// ReservationRepository is the persistence boundary for reservations.
// Implementations wrap backend failures into models.PermissionError or
// models.TransientError and never return raw driver errors.
type ReservationRepository interface {
	Create(ctx context.Context, draft models.Reservation) (*models.Reservation, error)
	Get(ctx context.Context, id string) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, reason *string) (*models.Reservation, error)
	CountByStatus(ctx context.Context) (map[models.ReservationStatus]int64, error)
}

// Outbox stores notification tasks until the dispatcher delivers them.
type Outbox interface {
	Enqueue(ctx context.Context, n models.Notification) error
	Due(ctx context.Context, now time.Time, limit int) ([]models.Notification, error)
	MarkSent(ctx context.Context, id, providerMessageID string, at time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string, final bool, at time.Time) error
}

const (
	numberPrefix   = "EAW-"
	numberLength   = 6
	numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// maxNumberAttempts bounds regeneration after a reservation number collision.
	maxNumberAttempts = 5
)

var errNumbersExhausted = errors.New("could not allocate a unique reservation number")

// NewReservationNumber returns a short code such as EAW-7K2QXM. The alphabet
// leaves out 0/O and 1/I so numbers can be read over the phone.
func NewReservationNumber() string {
	var b strings.Builder
	b.WriteString(numberPrefix)
	max := big.NewInt(int64(len(numberAlphabet)))
	for i := 0; i < numberLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		b.WriteByte(numberAlphabet[n.Int64()])
	}
	return b.String()
}

// validateDraft repeats the guest range check at the storage boundary so an
// out-of-range party is rejected, never clamped.
func validateDraft(draft models.Reservation) error {
	if draft.Guests < 1 || draft.Guests > 22 {
		return models.NewValidationError("guests", "guests_out_of_range", "guest count out of range (1-22)")
	}
	if !draft.Status.Valid() {
		return models.NewValidationError("status", "status_invalid", models.ErrInvalidStatus.Error())
	}
	return nil
}

// prepare assigns the fields owned by the repository: identity, number and
// timestamps.
func prepare(draft models.Reservation, now time.Time) models.Reservation {
	rec := draft
	rec.ID = uuid.NewString()
	rec.ReservationNumber = NewReservationNumber()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Language == "" {
		rec.Language = "en"
	}
	return rec
}

// NewNotification builds the outbox entry for a freshly created reservation.
func NewNotification(rec models.Reservation, now time.Time) (models.Notification, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return models.Notification{}, err
	}
	return models.Notification{
		ID:            uuid.NewString(),
		ReservationID: rec.ID,
		Language:      rec.Language,
		Payload:       string(payload),
		Status:        models.OutboxQueued,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// isPermissionMessage catches authorization failures reported only as text.
func isPermissionMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") || strings.Contains(msg, "command denied")
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type accessTokenKey struct{}

// WithAccessToken attaches the caller's backend access token so stores that
// enforce row-level security act on the caller's behalf.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFrom returns the token set by WithAccessToken, or "".
func AccessTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
