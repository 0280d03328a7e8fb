package services

import (
	"context"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/clock"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/repository"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

// SubmitResult is returned to the guest after a successful submission.
type SubmitResult struct {
	Reservation *models.Reservation      `json:"reservation"`
	Status      models.ReservationStatus `json:"status"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
}

type submitCopy struct {
	ConfirmedTitle string
	Confirmed      string
	PendingTitle   string
	Pending        string
	Failure        string
}

var submitMessages = map[string]submitCopy{
	"en": {
		ConfirmedTitle: "Reservation Confirmed!",
		Confirmed:      "Reservation confirmed! Check your email for details.",
		PendingTitle:   "Reservation Received",
		Pending:        "Your request has been received. Parties of more than 6 guests need our approval, we will contact you within 24 hours.",
		Failure:        "Failed to make reservation. Please try again.",
	},
	"fr": {
		ConfirmedTitle: "Réservation Confirmée!",
		Confirmed:      "Réservation confirmée! Vérifiez votre email pour les détails.",
		PendingTitle:   "Réservation Reçue",
		Pending:        "Votre demande a été reçue. Les groupes de plus de 6 personnes nécessitent notre approbation, nous vous contacterons dans les 24 heures.",
		Failure:        "Échec de la réservation. Veuillez réessayer.",
	},
	"nl": {
		ConfirmedTitle: "Reservering Bevestigd!",
		Confirmed:      "Reservering bevestigd! Controleer uw email voor details.",
		PendingTitle:   "Reservering Ontvangen",
		Pending:        "Uw verzoek is ontvangen. Groepen van meer dan 6 gasten hebben onze goedkeuring nodig, we nemen binnen 24 uur contact met u op.",
		Failure:        "Reservering mislukt. Probeer het opnieuw.",
	},
}

func messagesFor(lang string) submitCopy {
	if m, ok := submitMessages[lang]; ok {
		return m
	}
	return submitMessages[utils.DefaultLanguage]
}

// SubmitFailureMessage is the localized retry message shown for backend failures.
func SubmitFailureMessage(lang string) string {
	return messagesFor(utils.NormalizeLanguage(lang)).Failure
}

// ReservationService runs the guest and admin reservation flows on top of a
// repository. guard reports whether the configured store is usable; it is
// consulted before every repository call.
type ReservationService struct {
	repo    repository.ReservationRepository
	guard   func() bool
	clock   clock.Clock
	timeout time.Duration
}

func NewReservationService(repo repository.ReservationRepository, guard func() bool, c clock.Clock, timeout time.Duration) *ReservationService {
	return &ReservationService{
		repo:    repo,
		guard:   guard,
		clock:   c,
		timeout: timeout,
	}
}

func (s *ReservationService) checkConfigured() error {
	if s.repo == nil || (s.guard != nil && !s.guard()) {
		return &models.ConfigurationError{Component: "reservation backend"}
	}
	return nil
}

func (s *ReservationService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Submit validates a guest request, decides its status and stores it. The
// confirmation email is queued with the reservation and sent later.
func (s *ReservationService) Submit(ctx context.Context, req ReservationRequest, idempotencyKey string) (*SubmitResult, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	lang := utils.NormalizeLanguage(req.Language)
	decision := Decide(req, clock.Today(s.clock))
	if !decision.Valid() {
		return nil, decision.Errors[0]
	}

	draft := models.Reservation{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          optional(req.Phone),
		Date:           strings.TrimSpace(req.Date),
		Time:           FormatTime(req.StartTime, req.EndTime),
		Guests:         req.Guests,
		AdditionalInfo: optional(req.AdditionalInfo),
		Status:         decision.Status,
		Language:       lang,
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		draft.IdempotencyKey = &key
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.repo.Create(ctx, draft)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"date":   draft.Date,
			"guests": draft.Guests,
			"error":  err.Error(),
		}).Error("Failed to create reservation")
		return nil, err
	}

	if rec.Replayed {
		utils.InfoLogger.WithField("reservation_number", rec.ReservationNumber).Info("Repeated submission, returning existing reservation")
	} else {
		utils.InfoLogger.WithFields(logrus.Fields{
			"reservation_number": rec.ReservationNumber,
			"status":             rec.Status,
			"date":               rec.Date,
			"start_time":         StartTimeOf(rec.Time),
			"guests":             rec.Guests,
			"language":           rec.Language,
		}).Info("Reservation created")
	}

	m := messagesFor(lang)
	result := &SubmitResult{Reservation: rec, Status: rec.Status, Title: m.ConfirmedTitle, Message: m.Confirmed}
	if rec.Status == models.StatusPending {
		result.Title = m.PendingTitle
		result.Message = m.Pending
	}
	return result, nil
}

// authorize runs the admin check. It is evaluated on every call.
func authorize(session *utils.Session, op string) error {
	if !utils.IsAdmin(session) {
		return &models.PermissionError{Op: op, Err: models.ErrAccessDenied}
	}
	return nil
}

func (s *ReservationService) adminContext(ctx context.Context, session *utils.Session) (context.Context, context.CancelFunc) {
	ctx = repository.WithAccessToken(ctx, session.AccessToken)
	return s.withTimeout(ctx)
}

// List returns reservations newest first, optionally filtered by status.
func (s *ReservationService) List(ctx context.Context, session *utils.Session, filter models.ReservationFilter) ([]models.Reservation, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	if err := authorize(session, "list reservations"); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, models.NewValidationError("status", "status_invalid", models.ErrInvalidStatus.Error())
	}

	ctx, cancel := s.adminContext(ctx, session)
	defer cancel()
	return s.repo.List(ctx, filter)
}

// Counts returns the number of reservations per status plus "all".
func (s *ReservationService) Counts(ctx context.Context, session *utils.Session) (map[string]int64, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	if err := authorize(session, "count reservations"); err != nil {
		return nil, err
	}

	ctx, cancel := s.adminContext(ctx, session)
	defer cancel()
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{"all": 0}
	for _, status := range models.Statuses {
		counts[string(status)] = byStatus[status]
		counts["all"] += byStatus[status]
	}
	return counts, nil
}

// UpdateStatus overwrites a reservation's status. Any of the four statuses may
// follow any other.
func (s *ReservationService) UpdateStatus(ctx context.Context, session *utils.Session, id string, status models.ReservationStatus, reason *string) (*models.Reservation, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	if err := authorize(session, "update reservation status"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, models.NewValidationError("status", "status_invalid", models.ErrInvalidStatus.Error())
	}
	if strings.TrimSpace(id) == "" {
		return nil, models.ErrNotFound
	}

	ctx, cancel := s.adminContext(ctx, session)
	defer cancel()
	rec, err := s.repo.UpdateStatus(ctx, id, status, optional(reason))
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_number": rec.ReservationNumber,
		"status":             rec.Status,
		"admin":              session.Email,
	}).Info("Reservation status updated")
	return rec, nil
}

// optional trims s and turns blank values into nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
