package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"booking-service/internal/api"
	"booking-service/internal/config"
	"booking-service/internal/repository"
	"booking-service/internal/worker"
)

func main() {
	api.SetupGlobalHandler("notification-worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Notification worker connected to the database.")

	apnsClient, err := worker.NewAPNsClient(worker.APNSConfig{
		AuthKeyPath: cfg.APNSAuthKeyPath,
		KeyID:       cfg.APNSKeyID,
		TeamID:      cfg.APNSTeamID,
		Topic:       cfg.APNSTopic,
		Mode:        cfg.APNSMode,
	})
	if err != nil {
		log.Fatalf("Failed to initialize APNs client: %v", err)
	}

	var pusher worker.Pusher
	if apnsClient != nil {
		pusher = apnsClient
	}

	nc, err := nats.Connect(cfg.NatsURL, nats.Name("notification-worker"))
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Drain()

	w := worker.New(repository.NewPostgresDeviceTokenRepository(db), pusher, nc, cfg.APNSTopic)
	if _, err := w.Subscribe(nc); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Notification worker started, waiting for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down notification worker...")
}
