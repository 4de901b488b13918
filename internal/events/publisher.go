package events

import (
	"booking-service/internal/model"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectBookingCreated       = "booking.created"
	SubjectBookingCreatedFailed = "booking.created.failed"
)

type BookingEventPublisher interface {
	PublishBookingCreated(booking *model.Booking) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("booking-service"))

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}

type BookingCreatedEvent struct {
	EventType   string            `json:"event_type"`
	BookingID   uuid.UUID         `json:"booking_id"`
	Date        model.Date        `json:"date"`
	StartTime   model.Clock       `json:"start_time"`
	SessionType model.SessionType `json:"session_type"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	CreatedAt   time.Time         `json:"created_at"`
}

func NewBookingCreatedEvent(booking *model.Booking) BookingCreatedEvent {
	return BookingCreatedEvent{
		EventType:   SubjectBookingCreated,
		BookingID:   booking.ID,
		Date:        booking.Date,
		StartTime:   booking.StartTime,
		SessionType: booking.SessionType,
		Name:        booking.Name,
		Email:       booking.Email,
		CreatedAt:   booking.CreatedAt,
	}
}

func (p *NatsPublisher) PublishBookingCreated(booking *model.Booking) error {
	eventJSON, err := json.Marshal(NewBookingCreatedEvent(booking))

	if err != nil {
		log.Printf("Error marshalling event JSON: %v", err)
		return err
	}

	err = p.conn.Publish(SubjectBookingCreated, eventJSON)

	if err != nil {
		log.Printf("Error publishing to NATS: %v", err)
		return err
	}

	log.Printf("Published event to NATS on subject '%s' for booking '%s'", SubjectBookingCreated, booking.ID)

	return nil
}
