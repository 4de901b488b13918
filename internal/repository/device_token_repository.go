package repository

import (
	"booking-service/internal/model"
	"context"

	"github.com/jmoiron/sqlx"
)

// DeviceTokenRepository stores the instructor devices that receive booking alerts.
type DeviceTokenRepository interface {
	Register(ctx context.Context, token *model.DeviceToken) (*model.DeviceToken, error)
	ListTokens(ctx context.Context) ([]string, error)
}

type postgresDeviceTokenRepository struct {
	db *sqlx.DB
}

func NewPostgresDeviceTokenRepository(db *sqlx.DB) DeviceTokenRepository {
	return &postgresDeviceTokenRepository{db: db}
}

func (r *postgresDeviceTokenRepository) Register(ctx context.Context, token *model.DeviceToken) (*model.DeviceToken, error) {
	query := `
		INSERT INTO instructor_device_tokens (device_token, label)
		VALUES ($1, $2)
		ON CONFLICT (device_token) DO UPDATE SET label = EXCLUDED.label
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, token.DeviceToken, token.Label).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *postgresDeviceTokenRepository) ListTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	query := `SELECT device_token FROM instructor_device_tokens ORDER BY created_at`
	err := r.db.SelectContext(ctx, &tokens, query)
	return tokens, err
}
