package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const BookingConfirmed BookingStatus = "confirmed"

type Contact struct {
	Name  string `db:"name" json:"name" validate:"required,max=200"`
	Email string `db:"email" json:"email" validate:"required,email,max=254"`
	Phone string `db:"phone" json:"phone" validate:"required,max=40"`
}

type Booking struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Date        Date        `db:"booking_date" json:"date"`
	StartTime   Clock       `db:"start_minute" json:"start_time"`
	SessionType SessionType `db:"session_type" json:"session_type"`
	Contact
	StudentAge *int          `db:"student_age" json:"student_age,omitempty"`
	Notes      string        `db:"notes" json:"notes"`
	Timezone   string        `db:"timezone" json:"timezone,omitempty"`
	Status     BookingStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

func (b *Booking) Key() SlotKey {
	return SlotKey{StartTime: b.StartTime, SessionType: b.SessionType}
}
