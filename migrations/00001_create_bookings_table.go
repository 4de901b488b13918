package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateBookingsTable, downCreateBookingsTable)
}

func upCreateBookingsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE bookings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			booking_date DATE NOT NULL,
			start_minute SMALLINT NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
			session_type TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			student_age SMALLINT CHECK (student_age BETWEEN 1 AND 100),
			notes TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			CONSTRAINT bookings_slot_key UNIQUE (booking_date, start_minute, session_type)
		);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateBookingsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS bookings;`
	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}
