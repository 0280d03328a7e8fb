package models

import (
	"time"
)

type OutboxStatus string

const (
	OutboxQueued OutboxStatus = "queued"
	OutboxSent   OutboxStatus = "sent"
	OutboxFailed OutboxStatus = "failed"
)

// Notification is an outbox row written together with its reservation and
// drained by the dispatcher. Payload holds the reservation snapshot as JSON so
// sending never needs to read the reservation back.
type Notification struct {
	ID                string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReservationID     string       `gorm:"type:varchar(36);not null;index" json:"reservation_id"`
	Language          string       `gorm:"type:varchar(5);not null" json:"language"`
	Payload           string       `gorm:"type:text;not null" json:"-"`
	Status            OutboxStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	Attempts          int          `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt     time.Time    `gorm:"not null;index" json:"next_attempt_at"`
	LastError         *string      `gorm:"type:text" json:"last_error"`
	ProviderMessageID *string      `gorm:"type:varchar(100)" json:"provider_message_id"`
	CreatedAt         time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null" json:"updated_at"`
}
