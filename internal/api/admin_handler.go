package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"booking-service/internal/export"
	bookingjwt "booking-service/internal/jwt"
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"booking-service/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type BookingExporter interface {
	Export(ctx context.Context, from, to model.Date, bookings []model.Booking) (*export.Result, error)
}

type AdminCredentials struct {
	Email        string
	PasswordHash string
}

type AdminHandler struct {
	bookingService  service.BookingService
	deviceTokenRepo repository.DeviceTokenRepository
	exporter        BookingExporter
	credentials     AdminCredentials
	jwtSecret       []byte
	validate        *validator.Validate
}

func NewAdminHandler(
	bookingService service.BookingService,
	deviceTokenRepo repository.DeviceTokenRepository,
	exporter BookingExporter,
	credentials AdminCredentials,
	jwtSecret []byte,
) *AdminHandler {
	return &AdminHandler{
		bookingService:  bookingService,
		deviceTokenRepo: deviceTokenRepo,
		exporter:        exporter,
		credentials:     credentials,
		jwtSecret:       jwtSecret,
		validate:        validator.New(),
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type RegisterDeviceTokenRequest struct {
	DeviceToken string `json:"device_token" validate:"required,hexadecimal,min=32,max=200"`
	Label       string `json:"label" validate:"max=100"`
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	if h.credentials.Email == "" || h.credentials.PasswordHash == "" || len(h.jwtSecret) == 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Admin login is not configured"})
	}

	emailMatches := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(request.Email))),
		[]byte(strings.ToLower(h.credentials.Email)),
	) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(h.credentials.PasswordHash), []byte(request.Password))

	if !emailMatches || passwordErr != nil {
		slog.WarnContext(c.UserContext(), "Admin login failed", slog.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := bookingjwt.GenerateAdminToken(h.jwtSecret, h.credentials.Email, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue token"})
	}

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(bookingjwt.AccessTokenTTL.Seconds()),
	})
}

func (h *AdminHandler) ListBookings(c *fiber.Ctx) error {
	from, to, err := h.parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bookings, err := h.bookingService.ListBookings(c.UserContext(), from, to)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"from":     from,
		"to":       to,
		"count":    len(bookings),
		"bookings": bookings,
	})
}

func (h *AdminHandler) ExportBookings(c *fiber.Ctx) error {
	if h.exporter == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Export storage is not configured"})
	}

	from, to, err := h.parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bookings, err := h.bookingService.ListBookings(c.UserContext(), from, to)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.exporter.Export(c.UserContext(), from, to, bookings)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "Booking export failed", slog.String("error", err.Error()))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to upload export"})
	}

	admin, _ := GetAdminFromClaims(c)
	slog.InfoContext(c.UserContext(), "Bookings exported",
		slog.String("admin", admin),
		slog.String("key", result.Key),
		slog.Int("rows", result.Rows),
	)

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AdminHandler) RegisterDeviceToken(c *fiber.Ctx) error {
	var request RegisterDeviceTokenRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	request.DeviceToken = strings.TrimSpace(request.DeviceToken)
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	token, err := h.deviceTokenRepo.Register(c.UserContext(), &model.DeviceToken{
		DeviceToken: request.DeviceToken,
		Label:       strings.TrimSpace(request.Label),
	})
	if err != nil {
		slog.ErrorContext(c.UserContext(), "Failed to register device token", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register device token"})
	}

	return c.Status(fiber.StatusCreated).JSON(token)
}

func (h *AdminHandler) parseRange(c *fiber.Ctx) (model.Date, model.Date, error) {
	from, err := model.ParseDate(c.Query("from"))
	if err != nil {
		return model.Date{}, model.Date{}, errors.New("from must be a YYYY-MM-DD date")
	}

	toRaw := c.Query("to")
	if toRaw == "" {
		return from, from, nil
	}

	to, err := model.ParseDate(toRaw)
	if err != nil {
		return model.Date{}, model.Date{}, errors.New("to must be a YYYY-MM-DD date")
	}
	return from, to, nil
}
