package models

import "time"

type Cancellation struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReservationID string      `gorm:"type:varchar(36);not null;index" json:"reservation_id"`
	Reservation   Reservation `gorm:"foreignKey:ReservationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Reason        *string     `gorm:"type:text" json:"reason"`
	CancelledAt   time.Time   `gorm:"not null" json:"cancelled_at"`
}
