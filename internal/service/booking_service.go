package service

import (
	"booking-service/internal/events"
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"booking-service/internal/schedule"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	minStudentAge     = 1
	maxStudentAge     = 100
	maxNotesLength    = 2000
	maxListWindowDays = 366
)

type SubmitRequest struct {
	Date        model.Date
	StartTime   model.Clock
	SessionType model.SessionType
	Contact     model.Contact
	StudentAge  *int
	Notes       string
	Timezone    string
}

type BookingService interface {
	SessionTypes() []model.SessionTypeInfo
	ListSlots(ctx context.Context, date model.Date, sessionType model.SessionType) ([]model.Slot, error)
	SubmitBooking(ctx context.Context, req SubmitRequest) (*model.Booking, error)
	ListBookings(ctx context.Context, from, to model.Date) ([]model.Booking, error)
	Today() model.Date
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	resolver    *schedule.Resolver
	catalogue   schedule.Catalogue
	publisher   events.BookingEventPublisher
	location    *time.Location
	now         func() time.Time
	validate    *validator.Validate
}

type Option func(*bookingService)

// WithNow replaces the wall clock used to decide what "today" is.
func WithNow(now func() time.Time) Option {
	return func(s *bookingService) { s.now = now }
}

func NewBookingService(
	repo repository.BookingRepository,
	resolver *schedule.Resolver,
	catalogue schedule.Catalogue,
	pub events.BookingEventPublisher,
	location *time.Location,
	opts ...Option,
) BookingService {
	if location == nil {
		location = time.UTC
	}
	s := &bookingService{
		bookingRepo: repo,
		resolver:    resolver,
		catalogue:   catalogue,
		publisher:   pub,
		location:    location,
		now:         time.Now,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) SessionTypes() []model.SessionTypeInfo {
	return s.catalogue.List()
}

func (s *bookingService) Today() model.Date {
	return model.DateOf(s.now().In(s.location))
}

func (s *bookingService) ListSlots(ctx context.Context, date model.Date, sessionType model.SessionType) ([]model.Slot, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	if sessionType != "" {
		if _, ok := s.catalogue.Lookup(sessionType); !ok {
			return nil, invalidField("session_type", fmt.Sprintf("%q is not offered", sessionType))
		}
	}

	return s.availability(ctx, date, sessionType)
}

// availability resolves the candidates for date and merges them with that date's bookings,
// read once.
func (s *bookingService) availability(ctx context.Context, date model.Date, sessionType model.SessionType) ([]model.Slot, error) {
	candidates := s.resolver.ResolveType(date, sessionType)
	if len(candidates) == 0 {
		return []model.Slot{}, nil
	}

	bookings, err := s.bookingRepo.ListByDate(ctx, date)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load bookings", slog.String("date", date.String()), slog.String("error", err.Error()))
		return nil, persistenceUnavailable(err)
	}

	return schedule.Merge(candidates, bookings), nil
}

func (s *bookingService) SubmitBooking(ctx context.Context, req SubmitRequest) (*model.Booking, error) {
	if req.Date.IsZero() || req.Date.Before(s.Today()) {
		return nil, ErrInvalidDate
	}

	if err := s.checkSlotAvailable(ctx, req); err != nil {
		return nil, err
	}

	contact, err := s.checkContact(req.Contact)
	if err != nil {
		return nil, err
	}

	age, err := s.checkStudentAge(req.SessionType, req.StudentAge)
	if err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(req.Notes)
	if len(notes) > maxNotesLength {
		return nil, invalidField("notes", fmt.Sprintf("must be at most %d characters", maxNotesLength))
	}

	booking := &model.Booking{
		Date:        req.Date,
		StartTime:   req.StartTime,
		SessionType: req.SessionType,
		Contact:     contact,
		StudentAge:  age,
		Notes:       notes,
		Timezone:    strings.TrimSpace(req.Timezone),
		Status:      model.BookingConfirmed,
	}

	created, err := s.bookingRepo.InsertIfAbsent(ctx, booking)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			return nil, ErrConflictOnInsert
		}
		slog.ErrorContext(ctx, "Failed to insert booking", slog.String("error", err.Error()))
		return nil, persistenceUnavailable(err)
	}

	slog.InfoContext(ctx, "Booking confirmed",
		slog.String("booking_id", created.ID.String()),
		slog.String("date", created.Date.String()),
		slog.String("start_time", created.StartTime.String()),
		slog.String("session_type", string(created.SessionType)),
	)

	if s.publisher != nil {
		event := *created
		go s.publisher.PublishBookingCreated(&event)
	}

	return created, nil
}

// checkSlotAvailable recomputes availability from the rules and the stored bookings.
// Nothing the client believes about the slot is trusted.
func (s *bookingService) checkSlotAvailable(ctx context.Context, req SubmitRequest) error {
	if _, ok := s.catalogue.Lookup(req.SessionType); !ok {
		return unavailable(fmt.Sprintf("session type %q is not offered", req.SessionType))
	}

	key := model.SlotKey{StartTime: req.StartTime, SessionType: req.SessionType}
	if !s.resolver.Offers(req.Date, key) {
		return unavailable(fmt.Sprintf("%s %s is not offered on %s", req.SessionType, req.StartTime, req.Date.Weekday()))
	}

	slots, err := s.availability(ctx, req.Date, req.SessionType)
	if err != nil {
		return err
	}

	slot, ok := schedule.Find(slots, key)
	if !ok || slot.Status != model.SlotAvailable {
		return unavailable("already booked")
	}
	return nil
}

func (s *bookingService) checkContact(in model.Contact) (model.Contact, error) {
	contact := model.Contact{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}

	if err := s.validate.Struct(&contact); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.Contact{}, &ValidationError{Fields: []FieldError{{Field: "contact", Reason: err.Error()}}}
		}
		out := &ValidationError{}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{
				Field:  strings.ToLower(fe.Field()),
				Reason: describeTag(fe),
			})
		}
		return model.Contact{}, out
	}

	return contact, nil
}

// checkStudentAge only keeps an age for session types that ask for one.
func (s *bookingService) checkStudentAge(sessionType model.SessionType, age *int) (*int, error) {
	if !s.catalogue.RequiresStudentAge(sessionType) {
		return nil, nil
	}
	if age == nil {
		return nil, invalidField("student_age", "is required for this session type")
	}
	if *age < minStudentAge || *age > maxStudentAge {
		return nil, invalidField("student_age", fmt.Sprintf("must be between %d and %d", minStudentAge, maxStudentAge))
	}
	v := *age
	return &v, nil
}

func (s *bookingService) ListBookings(ctx context.Context, from, to model.Date) ([]model.Booking, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrInvalidDate
	}
	if to.Before(from) {
		return nil, invalidField("to", "must not be before from")
	}
	if from.AddDays(maxListWindowDays).Before(to) {
		return nil, invalidField("to", fmt.Sprintf("range must not exceed %d days", maxListWindowDays))
	}

	bookings, err := s.bookingRepo.ListRange(ctx, from, to)
	if err != nil {
		return nil, persistenceUnavailable(err)
	}
	return bookings, nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
