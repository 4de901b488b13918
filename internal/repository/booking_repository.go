package repository

import (
	"booking-service/internal/model"
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

var ErrDuplicateBooking = errors.New("a booking already exists for this slot")

type BookingRepository interface {
	ListByDate(ctx context.Context, date model.Date) ([]model.Booking, error)
	ListRange(ctx context.Context, from, to model.Date) ([]model.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	InsertIfAbsent(ctx context.Context, booking *model.Booking) (*model.Booking, error)
}

type postgresBookingRepository struct {
	db *sqlx.DB
}

func NewPostgresBookingRepository(db *sqlx.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

const bookingColumns = `id, booking_date, start_minute, session_type, name, email, phone, student_age, notes, timezone, status, created_at`

func (r *postgresBookingRepository) ListByDate(ctx context.Context, date model.Date) ([]model.Booking, error) {
	bookings := []model.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_date = $1 AND status = $2 ORDER BY start_minute, session_type`
	err := r.db.SelectContext(ctx, &bookings, query, date, model.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *postgresBookingRepository) ListRange(ctx context.Context, from, to model.Date) ([]model.Booking, error) {
	bookings := []model.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_date BETWEEN $1 AND $2 ORDER BY booking_date, start_minute, session_type`
	err := r.db.SelectContext(ctx, &bookings, query, from, to)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// InsertIfAbsent is the only write path for bookings. The unique key on
// (booking_date, start_minute, session_type) decides concurrent submissions: the loser
// gets ErrDuplicateBooking.
func (r *postgresBookingRepository) InsertIfAbsent(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	query := `
		INSERT INTO bookings (booking_date, start_minute, session_type, name, email, phone, student_age, notes, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (booking_date, start_minute, session_type) DO NOTHING
		RETURNING id, created_at
	`

	if booking.Status == "" {
		booking.Status = model.BookingConfirmed
	}

	row := r.db.QueryRowxContext(ctx, query,
		booking.Date, booking.StartTime, booking.SessionType,
		booking.Name, booking.Email, booking.Phone,
		booking.StudentAge, booking.Notes, booking.Timezone, booking.Status,
	)
	err := row.Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}

	return booking, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
