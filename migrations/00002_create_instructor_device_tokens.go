package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateInstructorDeviceTokens, downCreateInstructorDeviceTokens)
}

func upCreateInstructorDeviceTokens(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS instructor_device_tokens (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			device_token TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
	`)
	return err
}

func downCreateInstructorDeviceTokens(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS instructor_device_tokens;`)
	return err
}
