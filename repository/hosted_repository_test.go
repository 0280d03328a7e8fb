package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnonKey = "eyJhbGciOiJIUzI1NiJ9.anon-test-key"

// fakeBackend is a minimal stand-in for the hosted REST interface.
type fakeBackend struct {
	mu            sync.Mutex
	rows          []hostedRow
	cancellations int
	conflicts     int
	readOnly      map[string]bool
	lastAuth      string
	lastAPIKey    string
	lastPrefer    string
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.lastAuth = r.Header.Get("Authorization")
		f.lastAPIKey = r.Header.Get("apikey")
		f.lastPrefer = r.Header.Get("Prefer")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/reservations":
			if f.conflicts > 0 {
				f.conflicts--
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"reservations_reservation_number_key\""}`))
				return
			}
			var row hostedRow
			if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.rows = append([]hostedRow{row}, f.rows...)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]hostedRow{row})

		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/cancellations":
			f.cancellations++
			w.WriteHeader(http.StatusCreated)

		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/reservations":
			if f.lastAuth == "Bearer "+testAnonKey {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"code":"42501","message":"permission denied for table reservations"}`))
				return
			}
			status := r.URL.Query().Get("status")
			id := r.URL.Query().Get("id")
			out := []hostedRow{}
			for _, row := range f.rows {
				if id != "" && "eq."+row.ID != id {
					continue
				}
				if status == "" || "eq."+string(row.Status) == status {
					out = append(out, row)
				}
			}
			json.NewEncoder(w).Encode(out)

		case r.Method == http.MethodPatch && r.URL.Path == "/rest/v1/reservations":
			var body struct {
				Status models.ReservationStatus `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			out := []hostedRow{}
			for i := range f.rows {
				if "eq."+f.rows[i].ID == r.URL.Query().Get("id") && !f.readOnly[f.rows[i].ID] {
					f.rows[i].Status = body.Status
					out = append(out, f.rows[i])
				}
			}
			json.NewEncoder(w).Encode(out)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newHostedRepo(t *testing.T) (*HostedReservationRepository, *fakeBackend, *GormReservationRepository) {
	t.Helper()
	backend := &fakeBackend{}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	outbox := NewGormReservationRepository(setupTestDB(t), clock.NewFixed(fixedNow))
	repo := NewHostedReservationRepository(HostedConfig{URL: server.URL, AnonKey: testAnonKey}, outbox, clock.NewFixed(fixedNow))
	return repo, backend, outbox
}

func TestHostedCreateQueuesNotificationLocally(t *testing.T) {
	repo, backend, outbox := newHostedRepo(t)
	ctx := context.Background()

	d := draft("Jane Doe", 4, models.StatusConfirmed)
	d.Language = "fr"
	rec, err := repo.Create(ctx, d)
	require.NoError(t, err)

	assert.Regexp(t, `^EAW-`, rec.ReservationNumber)
	assert.Equal(t, "fr", rec.Language)
	assert.Equal(t, "Bearer "+testAnonKey, backend.lastAuth)
	assert.Equal(t, testAnonKey, backend.lastAPIKey)
	assert.Equal(t, "return=representation", backend.lastPrefer)

	due, err := outbox.Due(ctx, fixedNow, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, rec.ID, due[0].ReservationID)
	assert.Equal(t, "fr", due[0].Language)
}

func TestHostedCreateRegeneratesNumberOnConflict(t *testing.T) {
	repo, backend, _ := newHostedRepo(t)
	backend.conflicts = 2

	rec, err := repo.Create(context.Background(), draft("Jane Doe", 4, models.StatusConfirmed))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Len(t, backend.rows, 1)
}

func TestHostedCreateGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo, backend, _ := newHostedRepo(t)
	backend.conflicts = maxNumberAttempts

	_, err := repo.Create(context.Background(), draft("Jane Doe", 4, models.StatusConfirmed))
	var tErr *models.TransientError
	assert.True(t, errors.As(err, &tErr))
}

func TestHostedAdminCallsForwardAccessToken(t *testing.T) {
	repo, backend, _ := newHostedRepo(t)
	ctx := context.Background()

	pending, err := repo.Create(ctx, draft("Big Party", 10, models.StatusPending))
	require.NoError(t, err)
	_, err = repo.Create(ctx, draft("Jane Doe", 4, models.StatusConfirmed))
	require.NoError(t, err)

	// the anon key is refused for reads
	_, err = repo.List(ctx, models.ReservationFilter{})
	var pErr *models.PermissionError
	require.True(t, errors.As(err, &pErr))

	adminCtx := WithAccessToken(ctx, "admin-session-token")
	status := models.StatusPending
	list, err := repo.List(adminCtx, models.ReservationFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)
	assert.Equal(t, "Bearer admin-session-token", backend.lastAuth)

	counts, err := repo.CountByStatus(adminCtx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.StatusPending])
	assert.Equal(t, int64(1), counts[models.StatusConfirmed])
	assert.Equal(t, int64(0), counts[models.StatusCompleted])

	reason := "Kitchen closed"
	updated, err := repo.UpdateStatus(adminCtx, pending.ID, models.StatusCancelled, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, 1, backend.cancellations)

	_, err = repo.UpdateStatus(adminCtx, "missing", models.StatusConfirmed, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHostedUpdateFilteredByRowSecurity(t *testing.T) {
	repo, backend, _ := newHostedRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, draft("Big Party", 10, models.StatusPending))
	require.NoError(t, err)
	backend.mu.Lock()
	backend.readOnly = map[string]bool{rec.ID: true}
	backend.mu.Unlock()

	adminCtx := WithAccessToken(ctx, "staff-session-token")
	_, err = repo.UpdateStatus(adminCtx, rec.ID, models.StatusConfirmed, nil)
	var pErr *models.PermissionError
	require.True(t, errors.As(err, &pErr), "got %v", err)
	assert.NotErrorIs(t, err, models.ErrNotFound)

	_, err = repo.UpdateStatus(adminCtx, "missing", models.StatusConfirmed, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHostedErrorClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            *hostedError
		wantPermission bool
	}{
		{"unauthorized", &hostedError{StatusCode: 401, Message: "JWT expired"}, true},
		{"forbidden", &hostedError{StatusCode: 403}, true},
		{"rls code", &hostedError{StatusCode: 400, Code: "42501"}, true},
		{"jwt code", &hostedError{StatusCode: 400, Code: "PGRST301"}, true},
		{"permission text", &hostedError{StatusCode: 400, Message: "Permission denied for relation"}, true},
		{"server error", &hostedError{StatusCode: 500, Message: "upstream timeout"}, false},
		{"bad request", &hostedError{StatusCode: 400, Code: "22P02", Message: "invalid input syntax"}, false},
		{"zero or many rows", &hostedError{StatusCode: 406, Code: "PGRST116", Message: "JSON object requested, multiple (or no) rows returned"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateHostedError("op", tt.err)
			var pErr *models.PermissionError
			assert.Equal(t, tt.wantPermission, errors.As(err, &pErr))
		})
	}
}
