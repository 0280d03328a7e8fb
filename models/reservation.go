package models

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// Statuses lists every status in the order the admin filters show them.
var Statuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Reservation struct {
	ID                string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReservationNumber string            `gorm:"type:varchar(16);uniqueIndex;not null" json:"reservation_number"`
	Name              string            `gorm:"type:varchar(255);not null" json:"name"`
	Email             string            `gorm:"type:varchar(255);not null" json:"email"`
	Phone             *string           `gorm:"type:varchar(50)" json:"phone"`
	Date              string            `gorm:"type:varchar(10);not null;index" json:"date"`
	Time              string            `gorm:"type:varchar(32);not null" json:"time"`
	Guests            int               `gorm:"not null" json:"guests"`
	AdditionalInfo    *string           `gorm:"type:text" json:"additional_info"`
	Status            ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Language          string            `gorm:"type:varchar(5);not null;default:en" json:"language"`
	IdempotencyKey    *string           `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt         time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null" json:"updated_at"`

	// Replayed marks a record returned for a repeated idempotency key.
	Replayed bool `gorm:"-" json:"-"`
}

// MaxIdempotencyKeyLength matches the idempotency_key column width.
const MaxIdempotencyKeyLength = 64

// ReservationFilter narrows an admin listing. A nil Status means all.
type ReservationFilter struct {
	Status *ReservationStatus
}
