package services

import (
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/models"
)

const (
	// AutoConfirmThreshold is the largest party confirmed without review.
	AutoConfirmThreshold = 6
	MinGuests            = 1
	MaxGuests            = 22

	DateLayout = "2006-01-02"
	// TimeRangeSeparator joins start and end time in the stored time string.
	TimeRangeSeparator = " – "
)

// ReservationRequest is what a guest submits.
type ReservationRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Guests         int     `json:"guests"`
	AdditionalInfo *string `json:"additional_info"`
	Language       string  `json:"language"`
}

// Decision is the outcome of Decide. Status is empty whenever Errors is not.
type Decision struct {
	Status models.ReservationStatus `json:"status,omitempty"`
	Errors []*models.ValidationError `json:"errors,omitempty"`
}

func (d Decision) Valid() bool {
	return len(d.Errors) == 0
}

func reject(field, code, message string) Decision {
	return Decision{Errors: []*models.ValidationError{models.NewValidationError(field, code, message)}}
}

// Decide validates a request and assigns its initial status. Checks run in a
// fixed order and stop at the first failure. today must be midnight of the
// current day in the restaurant's time zone.
func Decide(req ReservationRequest, today time.Time) Decision {
	if strings.TrimSpace(req.Name) == "" {
		return reject("name", "name_required", "name required")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return reject("email", "email_required", "email required")
	}
	if !strings.Contains(email, "@") {
		return reject("email", "email_invalid", "invalid email")
	}

	if strings.TrimSpace(req.Date) == "" {
		return reject("date", "date_required", "date required")
	}
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(req.Date), today.Location())
	if err != nil || date.Before(today) {
		return reject("date", "date_invalid", "invalid date")
	}

	if strings.TrimSpace(req.StartTime) == "" {
		return reject("start_time", "start_time_required", "start time required")
	}

	if req.Guests < MinGuests || req.Guests > MaxGuests {
		return reject("guests", "guests_out_of_range", "guest count out of range (1-22)")
	}

	if req.Guests <= AutoConfirmThreshold {
		return Decision{Status: models.StatusConfirmed}
	}
	return Decision{Status: models.StatusPending}
}

// FormatTime builds the stored time string: "19:00" or "19:00 – 21:00".
func FormatTime(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if end == "" {
		return start
	}
	return start + TimeRangeSeparator + end
}

// StartTimeOf extracts the start time from a stored time string.
func StartTimeOf(stored string) string {
	start, _, _ := strings.Cut(stored, TimeRangeSeparator)
	return strings.TrimSpace(start)
}
