package repository

import (
	"booking-service/internal/model"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"booking-service/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type BookingRepositoryIntegrationTestSuite struct {
	suite.Suite
	db   *sqlx.DB
	repo BookingRepository
	pgc  *postgres.PostgresContainer
	ctx  context.Context
}

func (s *BookingRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %s", err)
	}
	s.pgc = pgc

	connStr, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	assert.NoError(s.T(), err)

	db, err := sqlx.Connect("pgx", connStr)
	assert.NoError(s.T(), err)
	s.db = db

	err = migrations.Run(s.ctx, db.DB, "../../migrations", "up")
	assert.NoError(s.T(), err)

	s.repo = NewPostgresBookingRepository(s.db)
}

func (s *BookingRepositoryIntegrationTestSuite) TearDownSuite() {
	s.db.Close()
	if err := s.pgc.Terminate(s.ctx); err != nil {
		log.Fatalf("failed to terminate pg container: %s", err)
	}
}

func (s *BookingRepositoryIntegrationTestSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE bookings`)
	s.Require().NoError(err)
}

func (s *BookingRepositoryIntegrationTestSuite) booking(name string) *model.Booking {
	d, _ := model.ParseDate("2030-01-07")
	return &model.Booking{
		Date:        d,
		StartTime:   model.NewClock(6, 0),
		SessionType: "general",
		Contact:     model.Contact{Name: name, Email: name + "@example.com", Phone: "0788"},
	}
}

func (s *BookingRepositoryIntegrationTestSuite) TestInsertThenListByDate() {
	created, err := s.repo.InsertIfAbsent(s.ctx, s.booking("aline"))
	s.Require().NoError(err)

	bookings, err := s.repo.ListByDate(s.ctx, created.Date)
	s.Require().NoError(err)
	s.Require().Len(bookings, 1)
	s.Equal(created.ID, bookings[0].ID)
	s.Equal(model.NewClock(6, 0), bookings[0].StartTime)
	s.Equal(created.Date, bookings[0].Date)
}

func (s *BookingRepositoryIntegrationTestSuite) TestSecondInsertForSameSlotLoses() {
	_, err := s.repo.InsertIfAbsent(s.ctx, s.booking("first"))
	s.Require().NoError(err)

	_, err = s.repo.InsertIfAbsent(s.ctx, s.booking("second"))
	s.ErrorIs(err, ErrDuplicateBooking)

	other := s.booking("kid")
	other.SessionType = "kids"
	age := 8
	other.StudentAge = &age
	_, err = s.repo.InsertIfAbsent(s.ctx, other)
	s.NoError(err, "a different session type at the same time is a different slot")
}

func (s *BookingRepositoryIntegrationTestSuite) TestConcurrentInsertsExactlyOneWins() {
	const contenders = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := s.repo.InsertIfAbsent(s.ctx, s.booking("racer"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateBooking):
				conflicts++
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(contenders-1, conflicts)
}

func TestBookingRepositoryIntegration(t *testing.T) {
	if os.Getenv("DOCKER_HOST") == "" {
		t.Skip("Docker is not available, skipping integration test.")
	}
	suite.Run(t, new(BookingRepositoryIntegrationTestSuite))
}
