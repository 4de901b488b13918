package api

import (
	"encoding/hex"
	"errors"
	"time"

	"booking-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/securecookie"
)

const (
	nonceName   = "booking_nonce"
	NonceHeader = "X-Booking-Nonce"
)

var (
	ErrNonceMissing = errors.New("booking form nonce is missing")
	ErrNonceInvalid = errors.New("booking form nonce is invalid or expired")
)

type nonceValue struct {
	Nonce    string `json:"n"`
	IssuedAt int64  `json:"iat"`
}

// NonceIssuer signs short-lived tokens that a booking form must echo back on submit.
type NonceIssuer struct {
	codec *securecookie.SecureCookie
	ttl   time.Duration
	now   func() time.Time
}

func NewNonceIssuer(hashKey []byte, ttl time.Duration) *NonceIssuer {
	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl.Seconds()))

	return &NonceIssuer{codec: codec, ttl: ttl, now: time.Now}
}

func (n *NonceIssuer) Issue() (string, time.Time, error) {
	issuedAt := n.now()
	value := nonceValue{
		Nonce:    hex.EncodeToString(securecookie.GenerateRandomKey(16)),
		IssuedAt: issuedAt.Unix(),
	}

	token, err := n.codec.Encode(nonceName, value)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, issuedAt.Add(n.ttl), nil
}

func (n *NonceIssuer) Verify(token string) error {
	if token == "" {
		return ErrNonceMissing
	}

	var value nonceValue
	if err := n.codec.Decode(nonceName, token, &value); err != nil {
		return ErrNonceInvalid
	}

	issuedAt := time.Unix(value.IssuedAt, 0)
	if n.now().After(issuedAt.Add(n.ttl)) {
		return ErrNonceInvalid
	}
	return nil
}

// IssueNonce serves GET /v1/bookings/nonce. Without an issuer the nonce is not required.
func IssueNonce(n *NonceIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if n == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"required": false})
		}

		token, expiresAt, err := n.Issue()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue nonce"})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"required":   true,
			"nonce":      token,
			"expires_at": expiresAt.UTC(),
		})
	}
}

func NonceMiddleware(n *NonceIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if n == nil {
			return c.Next()
		}

		if err := n.Verify(c.Get(NonceHeader)); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(SubmitResponse{
				Success: false,
				Error: &ErrorBody{
					Code:     "invalid_nonce",
					Category: service.TryAgainLater,
					Message:  "This form has expired. Please reload the page and try again.",
				},
			})
		}

		return c.Next()
	}
}
