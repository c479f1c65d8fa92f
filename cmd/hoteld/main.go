package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/alert"
	"hotel-ops-backend/internal/api"
	"hotel-ops-backend/internal/db"
	"hotel-ops-backend/internal/sim"
	"hotel-ops-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "hotel-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatalf("VAPID keys must be configured when push is enabled. Please generate them and add them to your config file.")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Background writer between the simulation and the store
	persister := store.NewPersister(appStore)
	persister.Start(ctx)

	engineOpts := []sim.Option{sim.WithPersister(persister)}

	// Resume from the last persisted snapshot, if any
	if snap, ok, err := appStore.LoadSnapshot(ctx); err != nil {
		logger.Fatalf("failed to load saved state: %v", err)
	} else if ok {
		logger.Println("resuming from saved state")
		engineOpts = append(engineOpts, sim.WithSnapshot(snap))
	}

	if webpushOptions != nil {
		alertPool := alert.NewPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		alertPool.Start(ctx)
		engineOpts = append(engineOpts, sim.WithNotifier(alertPool))
		logger.Println("alert pool started")
	}

	engine := sim.New(cfg.Sim, sim.WallClock{}, engineOpts...)
	engine.Start()
	logger.Println("simulation started")

	// Initialize router
	router := api.NewRouter(&cfg.Server, engine, appStore, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	engine.Stop()

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
