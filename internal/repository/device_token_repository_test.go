package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"booking-service/internal/model"
	repo "booking-service/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestPostgresDeviceTokenRepository_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewPostgresDeviceTokenRepository(sqlx.NewDb(db, "sqlmock"))

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO instructor_device_tokens (device_token, label)
		VALUES ($1, $2)
		ON CONFLICT (device_token) DO UPDATE SET label = EXCLUDED.label
		RETURNING id, created_at
	`)).WithArgs("abc123", "studio iPad").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), time.Now()))

	tok, err := r.Register(context.Background(), &model.DeviceToken{DeviceToken: "abc123", Label: "studio iPad"})
	require.NoError(t, err)
	require.Equal(t, id, tok.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeviceTokenRepository_ListTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewPostgresDeviceTokenRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT device_token FROM instructor_device_tokens ORDER BY created_at`)).
		WillReturnRows(sqlmock.NewRows([]string{"device_token"}).AddRow("t1").AddRow("t2"))

	tokens, err := r.ListTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t2"}, tokens)
	require.NoError(t, mock.ExpectationsWereMet())
}
