package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"booking-service/internal/events"

	"github.com/nats-io/nats.go"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

const (
	maxRetries = 3
	retryDelay = 2 * time.Second
	queueGroup = "notification-worker"
)

type TokenSource interface {
	ListTokens(ctx context.Context) ([]string, error)
}

type Pusher interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

type DeadLetterPublisher interface {
	Publish(subject string, data []byte) error
}

type APNSConfig struct {
	AuthKeyPath string
	KeyID       string
	TeamID      string
	Topic       string
	Mode        string
}

// Outcome summarises what happened to one booking.created event.
type Outcome struct {
	Sent         int
	Failed       int
	DeadLettered bool
}

type Worker struct {
	tokens     TokenSource
	pusher     Pusher
	dlq        DeadLetterPublisher
	topic      string
	retryDelay time.Duration
}

// New builds a worker. A nil pusher puts it in mock mode, where alerts are only logged.
func New(tokens TokenSource, pusher Pusher, dlq DeadLetterPublisher, topic string) *Worker {
	return &Worker{
		tokens:     tokens,
		pusher:     pusher,
		dlq:        dlq,
		topic:      topic,
		retryDelay: retryDelay,
	}
}

// NewAPNsClient returns nil, nil when the credentials are incomplete.
func NewAPNsClient(cfg APNSConfig) (*apns2.Client, error) {
	if cfg.AuthKeyPath == "" || cfg.AuthKeyPath[0] == '#' || cfg.KeyID == "" || cfg.TeamID == "" {
		slog.Info("APNs credentials not found or invalid. Worker will run in MOCK mode.")
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.AuthKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read APNs auth key: %w", err)
	}

	authToken := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	if cfg.Mode == "production" {
		return apns2.NewTokenClient(authToken).Production(), nil
	}
	return apns2.NewTokenClient(authToken).Development(), nil
}

// Subscribe joins the worker queue group so that each event is handled by one instance only.
func (w *Worker) Subscribe(nc *nats.Conn) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(events.SubjectBookingCreated, queueGroup, w.HandleBookingCreated)
	if err != nil {
		return nil, err
	}
	slog.Info("Notification worker listening", slog.String("subject", events.SubjectBookingCreated))
	return sub, nil
}

func (w *Worker) HandleBookingCreated(msg *nats.Msg) {
	w.Handle(context.Background(), msg.Data)
}

func (w *Worker) Handle(ctx context.Context, data []byte) Outcome {
	var event events.BookingCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Error unmarshalling booking event", slog.String("error", err.Error()))
		return Outcome{}
	}

	slog.Info("Booking event received",
		slog.String("booking_id", event.BookingID.String()),
		slog.String("date", event.Date.String()),
		slog.String("start_time", event.StartTime.String()),
	)

	tokens, err := w.loadTokens(ctx)
	if err != nil {
		slog.Error("Failed to load instructor device tokens, sending to DLQ",
			slog.Int("attempts", maxRetries),
			slog.String("booking_id", event.BookingID.String()),
			slog.String("error", err.Error()),
		)
		return Outcome{DeadLettered: w.deadLetter(data)}
	}

	if len(tokens) == 0 {
		slog.Info("No instructor device tokens registered. No notifications sent.")
		return Outcome{}
	}

	body, err := json.Marshal(alertPayload(event))
	if err != nil {
		slog.Error("Failed to build APNs payload", slog.String("error", err.Error()))
		return Outcome{Failed: len(tokens)}
	}

	var outcome Outcome
	for _, deviceToken := range tokens {
		if w.push(deviceToken, body) {
			outcome.Sent++
		} else {
			outcome.Failed++
		}
	}
	return outcome
}

func (w *Worker) loadTokens(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		tokens, err := w.tokens.ListTokens(ctx)
		if err == nil {
			return tokens, nil
		}
		lastErr = err

		slog.Warn("Failed loading device tokens",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < maxRetries {
			time.Sleep(w.retryDelay)
		}
	}
	return nil, lastErr
}

func (w *Worker) deadLetter(data []byte) bool {
	if w.dlq == nil {
		return false
	}
	if err := w.dlq.Publish(events.SubjectBookingCreatedFailed, data); err != nil {
		slog.Error("Failed to publish to DLQ", slog.String("subject", events.SubjectBookingCreatedFailed), slog.String("error", err.Error()))
		return false
	}
	slog.Info("Published failed booking event to DLQ", slog.String("subject", events.SubjectBookingCreatedFailed))
	return true
}

func (w *Worker) push(deviceToken string, body []byte) bool {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       w.topic,
		Payload:     body,
		Priority:    apns2.PriorityHigh,
	}

	if w.pusher == nil {
		slog.Info("SUCCESS (mock): push notification sent", slog.String("device", deviceToken))
		return true
	}

	res, err := w.pusher.Push(notification)
	if err != nil {
		slog.Error("FAILED to send notification", slog.String("error", err.Error()))
		return false
	}
	if !res.Sent() {
		slog.Error("FAILED: notification not sent", slog.String("device", deviceToken), slog.String("reason", res.Reason))
		return false
	}

	slog.Info("SUCCESS: notification sent", slog.String("apns_id", res.ApnsID))
	return true
}

func alertPayload(event events.BookingCreatedEvent) *payload.Payload {
	body := fmt.Sprintf("%s booked a %s session on %s at %s",
		event.Name,
		event.SessionType,
		event.Date.Midnight(time.UTC).Format("Mon 2 Jan"),
		event.StartTime,
	)

	return payload.NewPayload().
		AlertTitle("New booking").
		AlertBody(body).
		Sound("default").
		Custom("booking_id", event.BookingID.String())
}
