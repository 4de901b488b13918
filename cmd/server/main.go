package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"booking-service/internal/api"
	"booking-service/internal/config"
	"booking-service/internal/events"
	"booking-service/internal/export"
	"booking-service/internal/repository"
	"booking-service/internal/schedule"
	"booking-service/internal/service"
	"booking-service/internal/tracing"
	"booking-service/migrations"
)

const serviceName = "booking-service"

func main() {
	api.SetupGlobalHandler(serviceName)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracer, err := tracing.InitTracerProvider(serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg)
		return
	}

	location, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid BOOKING_TIMEZONE: %v", err)
	}
	catalogue, err := cfg.Catalogue()
	if err != nil {
		log.Fatalf("Invalid session types: %v", err)
	}
	rules, err := cfg.Rules(catalogue)
	if err != nil {
		log.Fatalf("Invalid schedule rules: %v", err)
	}
	log.Printf("Loaded %d schedule rules for %d session types (timezone %s)", len(rules), len(catalogue), location)

	db := connectDB(cfg)
	defer db.Close()

	var publisher events.BookingEventPublisher
	natsPublisher, err := events.NewNatsPublisher(cfg.NatsURL)
	if err != nil {
		log.Printf("WARNING: Failed to connect to NATS, booking notifications are disabled: %v", err)
	} else {
		defer natsPublisher.Close()
		publisher = natsPublisher
		log.Println("Successfully connected to NATS.")
	}

	bookingRepo := repository.NewPostgresBookingRepository(db)
	deviceTokenRepo := repository.NewPostgresDeviceTokenRepository(db)

	bookingService := service.NewBookingService(bookingRepo, schedule.NewResolver(rules), catalogue, publisher, location)

	var exporter api.BookingExporter
	s3Exporter, err := export.NewS3Exporter(context.Background(), export.Options{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.AWSRegion,
		Bucket:       cfg.S3BucketName,
		AccessKey:    cfg.AWSAccessKeyID,
		SecretKey:    cfg.AWSSecretAccessKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Printf("Booking export disabled: %v", err)
	} else {
		exporter = s3Exporter
	}

	var nonce *api.NonceIssuer
	if cfg.NonceHashKey != "" {
		nonce = api.NewNonceIssuer([]byte(cfg.NonceHashKey), cfg.NonceTTL)
	}

	var limiterStorage fiber.Storage
	if cfg.RedisAddr != "" {
		redisClient, err := api.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		limiterStorage = api.NewRedisStorage(redisClient)
		log.Println("Rate limiting backed by Redis.")
	}

	bookingHandler := api.NewBookingHandler(bookingService)
	adminHandler := api.NewAdminHandler(
		bookingService,
		deviceTokenRepo,
		exporter,
		api.AdminCredentials{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash},
		[]byte(cfg.JWTSecret),
	)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": serviceName})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api.SetupRoutes(app, api.Routes{
		Booking:     bookingHandler,
		Admin:       adminHandler,
		Nonce:       nonce,
		JWTSecret:   []byte(cfg.JWTSecret),
		RateLimiter: api.RateLimiter(limiterStorage, cfg.RateLimitMax, time.Duration(cfg.RateLimitExpiration)*time.Second),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down booking-service...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Listening booking-service on port %s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func connectDB(cfg *config.Config) *sqlx.DB {
	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleMigrations(cfg *config.Config) {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(context.Background(), db, migrations.Dir, "up"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
