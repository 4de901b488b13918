package api

import (
	"errors"
	"log/slog"
	"strings"

	"booking-service/internal/model"
	"booking-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var categoryMessages = map[service.MessageCategory]string{
	service.PickAnotherTime:  "This time is no longer available. Please pick another time.",
	service.CheckYourDetails: "Please check your details and try again.",
	service.TryAgainLater:    "We could not save your booking right now. Please try again later.",
}

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type SubmitBookingRequest struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	SessionType string `json:"session_type"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	StudentAge  *int   `json:"student_age"`
	Notes       string `json:"notes"`
	Timezone    string `json:"timezone"`
}

type ErrorBody struct {
	Code     string                  `json:"code"`
	Category service.MessageCategory `json:"category"`
	Message  string                  `json:"message"`
	Fields   []service.FieldError    `json:"fields,omitempty"`
}

type SubmitResponse struct {
	Success   bool       `json:"success"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
}

type SlotsResponse struct {
	Date    model.Date   `json:"date"`
	Weekday string       `json:"weekday"`
	Slots   []model.Slot `json:"slots"`
}

func (h *BookingHandler) GetSessionTypes(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.bookingService.SessionTypes())
}

func (h *BookingHandler) ListSlots(c *fiber.Ctx) error {
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		return writeBookingError(c, service.ErrInvalidDate)
	}

	sessionType := model.SessionType(strings.TrimSpace(c.Query("session_type")))

	slots, err := h.bookingService.ListSlots(c.UserContext(), date, sessionType)
	if err != nil {
		return writeBookingError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(SlotsResponse{
		Date:    date,
		Weekday: date.Weekday().String(),
		Slots:   slots,
	})
}

func (h *BookingHandler) SubmitBooking(c *fiber.Ctx) error {
	var request SubmitBookingRequest

	if err := c.BodyParser(&request); err != nil {
		return writeBookingError(c, &service.ValidationError{Fields: []service.FieldError{{Field: "body", Reason: "is not valid JSON"}}})
	}

	submit, err := request.toSubmit()
	if err != nil {
		return writeBookingError(c, err)
	}

	booking, err := h.bookingService.SubmitBooking(c.UserContext(), submit)
	if err != nil {
		return writeBookingError(c, err)
	}

	bookingSubmissions.WithLabelValues("created").Inc()

	return c.Status(fiber.StatusCreated).JSON(SubmitResponse{
		Success:   true,
		BookingID: &booking.ID,
	})
}

// toSubmit only parses. Every other check belongs to the service so that its ordering holds.
func (r SubmitBookingRequest) toSubmit() (service.SubmitRequest, error) {
	date, err := model.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return service.SubmitRequest{}, service.ErrInvalidDate
	}

	start, err := model.ParseClock(strings.TrimSpace(r.StartTime))
	if err != nil {
		return service.SubmitRequest{}, service.ErrSlotUnavailable
	}

	return service.SubmitRequest{
		Date:        date,
		StartTime:   start,
		SessionType: model.SessionType(strings.TrimSpace(r.SessionType)),
		Contact: model.Contact{
			Name:  r.Name,
			Email: r.Email,
			Phone: r.Phone,
		},
		StudentAge: r.StudentAge,
		Notes:      r.Notes,
		Timezone:   r.Timezone,
	}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrSlotUnavailable), errors.Is(err, service.ErrConflictOnInsert):
		return fiber.StatusConflict
	default:
		return fiber.StatusServiceUnavailable
	}
}

func errorBody(err error) *ErrorBody {
	category := service.CategoryOf(err)
	body := &ErrorBody{
		Code:     service.CodeOf(err),
		Category: category,
		Message:  categoryMessages[category],
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	return body
}

func writeBookingError(c *fiber.Ctx, err error) error {
	body := errorBody(err)
	status := statusFor(err)

	if c.Method() == fiber.MethodPost {
		bookingSubmissions.WithLabelValues(body.Code).Inc()
	}

	if status == fiber.StatusServiceUnavailable {
		slog.ErrorContext(c.UserContext(), "Booking request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	} else {
		slog.InfoContext(c.UserContext(), "Booking request rejected", slog.String("path", c.Path()), slog.String("code", body.Code))
	}

	return c.Status(status).JSON(SubmitResponse{Success: false, Error: body})
}
