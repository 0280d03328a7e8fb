package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

// HostedConfig points at the hosted backend's REST interface.
type HostedConfig struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// HostedReservationRepository talks to the hosted backend's auto-generated
// REST API. Row-level security is enforced there: guest inserts go out with
// the anon key, admin calls forward the caller's access token from the context.
// The backend offers no cross-table transaction, so the notification is
// queued in a local outbox once the insert succeeds.
type HostedReservationRepository struct {
	config     HostedConfig
	httpClient *http.Client
	outbox     Outbox
	clock      clock.Clock
}

func NewHostedReservationRepository(cfg HostedConfig, outbox Outbox, c clock.Clock) *HostedReservationRepository {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HostedReservationRepository{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		outbox:     outbox,
		clock:      c,
	}
}

// hostedRow is the reservations table as exposed by the backend.
type hostedRow struct {
	ID                string                   `json:"id"`
	ReservationNumber string                   `json:"reservation_number"`
	Name              string                   `json:"name"`
	Email             string                   `json:"email"`
	Phone             *string                  `json:"phone"`
	Date              string                   `json:"date"`
	Time              string                   `json:"time"`
	Guests            int                      `json:"guests"`
	AdditionalInfo    *string                  `json:"additional_info"`
	Status            models.ReservationStatus `json:"status"`
	IdempotencyKey    *string                  `json:"idempotency_key,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

func (row hostedRow) toModel(language string) models.Reservation {
	if language == "" {
		language = "en"
	}
	return models.Reservation{
		ID:                row.ID,
		ReservationNumber: row.ReservationNumber,
		Name:              row.Name,
		Email:             row.Email,
		Phone:             row.Phone,
		Date:              row.Date,
		Time:              row.Time,
		Guests:            row.Guests,
		AdditionalInfo:    row.AdditionalInfo,
		Status:            row.Status,
		Language:          language,
		IdempotencyKey:    row.IdempotencyKey,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.CreatedAt,
	}
}

// hostedError is the error body returned by the REST layer.
type hostedError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *hostedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *hostedError) isPermission() bool {
	switch e.Code {
	case "42501", "PGRST301", "PGRST302":
		return true
	}
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return true
	}
	return isPermissionMessage(e.Message)
}

func (e *hostedError) isUniqueViolation() bool {
	return e.Code == "23505" || e.StatusCode == http.StatusConflict
}

func translateHostedError(op string, err error) error {
	var hErr *hostedError
	if !isContextError(err) && errors.As(err, &hErr) && hErr.isPermission() {
		return &models.PermissionError{Op: op, Err: err}
	}
	return &models.TransientError{Op: op, Err: err}
}

func (r *HostedReservationRepository) Create(ctx context.Context, draft models.Reservation) (*models.Reservation, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		now := r.clock.Now()
		rec := prepare(draft, now)
		body := hostedRow{
			ID:                rec.ID,
			ReservationNumber: rec.ReservationNumber,
			Name:              rec.Name,
			Email:             rec.Email,
			Phone:             rec.Phone,
			Date:              rec.Date,
			Time:              rec.Time,
			Guests:            rec.Guests,
			AdditionalInfo:    rec.AdditionalInfo,
			Status:            rec.Status,
			IdempotencyKey:    rec.IdempotencyKey,
			CreatedAt:         rec.CreatedAt,
		}

		var rows []hostedRow
		err := r.do(ctx, http.MethodPost, "reservations", nil, body, &rows)
		if err == nil {
			if len(rows) == 0 {
				return nil, &models.TransientError{Op: "create reservation", Err: errors.New("backend returned no row")}
			}
			created := rows[0].toModel(rec.Language)
			r.enqueue(ctx, created, now)
			return &created, nil
		}

		var hErr *hostedError
		if !errors.As(err, &hErr) || !hErr.isUniqueViolation() {
			return nil, translateHostedError("create reservation", err)
		}
		if rec.IdempotencyKey != nil && strings.Contains(hErr.Message, "idempotency_key") {
			existing, findErr := r.findByIdempotencyKey(ctx, *rec.IdempotencyKey, rec.Language)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
			return nil, models.ErrDuplicateSubmission
		}
	}

	return nil, &models.TransientError{Op: "create reservation", Err: errNumbersExhausted}
}

// enqueue queues the notification for a created reservation. A failure here
// does not undo the reservation.
func (r *HostedReservationRepository) enqueue(ctx context.Context, rec models.Reservation, now time.Time) {
	if r.outbox == nil {
		return
	}
	entry, err := NewNotification(rec, now)
	if err == nil {
		err = r.outbox.Enqueue(ctx, entry)
	}
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"reservation_number": rec.ReservationNumber,
			"error":              err.Error(),
		}).Error("Failed to queue reservation notification")
	}
}

func (r *HostedReservationRepository) findByIdempotencyKey(ctx context.Context, key, language string) (*models.Reservation, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("idempotency_key", "eq."+key)

	var rows []hostedRow
	if err := r.do(ctx, http.MethodGet, "reservations", query, nil, &rows); err != nil {
		return nil, translateHostedError("find reservation by idempotency key", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rec := rows[0].toModel(language)
	rec.Replayed = true
	return &rec, nil
}

func (r *HostedReservationRepository) Get(ctx context.Context, id string) (*models.Reservation, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("id", "eq."+id)

	var rows []hostedRow
	if err := r.do(ctx, http.MethodGet, "reservations", query, nil, &rows); err != nil {
		return nil, translateHostedError("get reservation", err)
	}
	if len(rows) == 0 {
		return nil, models.ErrNotFound
	}
	rec := rows[0].toModel("")
	return &rec, nil
}

func (r *HostedReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.desc")
	if filter.Status != nil {
		query.Set("status", "eq."+string(*filter.Status))
	}

	var rows []hostedRow
	if err := r.do(ctx, http.MethodGet, "reservations", query, nil, &rows); err != nil {
		return nil, translateHostedError("list reservations", err)
	}

	reservations := make([]models.Reservation, 0, len(rows))
	for _, row := range rows {
		reservations = append(reservations, row.toModel(""))
	}
	return reservations, nil
}

func (r *HostedReservationRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, reason *string) (*models.Reservation, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("status", "status_invalid", models.ErrInvalidStatus.Error())
	}

	query := url.Values{}
	query.Set("id", "eq."+id)

	var rows []hostedRow
	if err := r.do(ctx, http.MethodPatch, "reservations", query, map[string]interface{}{"status": status}, &rows); err != nil {
		return nil, translateHostedError("update reservation status", err)
	}
	if len(rows) == 0 {
		// Row-level security filters a refused update out silently. A row
		// the caller can still read means the update itself was denied.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, &models.PermissionError{Op: "update reservation status"}
	}

	if status == models.StatusCancelled {
		cancellation := map[string]interface{}{
			"reservation_id": id,
			"reason":         reason,
			"cancelled_at":   r.clock.Now(),
		}
		if err := r.do(ctx, http.MethodPost, "cancellations", nil, cancellation, nil); err != nil {
			// the status change already happened
			utils.ErrorLogger.WithFields(logrus.Fields{
				"reservation_id": id,
				"error":          err.Error(),
			}).Error("Failed to record cancellation")
		}
	}

	rec := rows[0].toModel("")
	return &rec, nil
}

func (r *HostedReservationRepository) CountByStatus(ctx context.Context) (map[models.ReservationStatus]int64, error) {
	query := url.Values{}
	query.Set("select", "status")

	var rows []struct {
		Status models.ReservationStatus `json:"status"`
	}
	if err := r.do(ctx, http.MethodGet, "reservations", query, nil, &rows); err != nil {
		return nil, translateHostedError("count reservations", err)
	}

	counts := make(map[models.ReservationStatus]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status]++
	}
	return counts, nil
}

func (r *HostedReservationRepository) endpoint(table string, query url.Values) string {
	u := strings.TrimRight(r.config.URL, "/") + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (r *HostedReservationRepository) do(ctx context.Context, method, table string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint(table, query), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	token := AccessTokenFrom(ctx)
	if token == "" {
		token = r.config.AnonKey
	}
	req.Header.Set("apikey", r.config.AnonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		hErr := &hostedError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, hErr); jsonErr != nil || hErr.Message == "" {
			hErr.Message = strings.TrimSpace(string(respBody))
		}
		return hErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
