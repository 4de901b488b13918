package api

import (
	"github.com/gofiber/fiber/v2"
)

type Routes struct {
	Booking     *BookingHandler
	Admin       *AdminHandler
	Nonce       *NonceIssuer
	JWTSecret   []byte
	RateLimiter fiber.Handler
}

func SetupRoutes(app *fiber.App, r Routes) {
	v1 := app.Group("/v1")
	if r.RateLimiter != nil {
		v1.Use(r.RateLimiter)
	}

	v1.Get("/session-types", r.Booking.GetSessionTypes)
	v1.Get("/slots", r.Booking.ListSlots)

	bookings := v1.Group("/bookings")
	bookings.Get("/nonce", IssueNonce(r.Nonce))
	bookings.Post("/", NonceMiddleware(r.Nonce), r.Booking.SubmitBooking)

	if r.Admin == nil {
		return
	}

	admin := v1.Group("/admin")
	admin.Post("/login", r.Admin.Login)

	requireAdmin := AdminAuthMiddleware(r.JWTSecret)
	admin.Get("/bookings", requireAdmin, r.Admin.ListBookings)
	admin.Post("/bookings/export", requireAdmin, r.Admin.ExportBookings)
	admin.Post("/device-tokens", requireAdmin, r.Admin.RegisterDeviceToken)
}
