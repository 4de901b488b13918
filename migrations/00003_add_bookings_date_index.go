package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddBookingsDateIndex, downAddBookingsDateIndex)
}

func upAddBookingsDateIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_bookings_date_status ON bookings (booking_date, status);`)
	return err
}

func downAddBookingsDateIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_bookings_date_status;`)
	return err
}
