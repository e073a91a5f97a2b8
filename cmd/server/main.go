// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log" // Standard log for messages before/after zap is active
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barbershop_backend/internal/auth"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/jobs"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/platform/logger"
	"barbershop_backend/internal/platform/tracing"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrate(os.Args[2:])
			return
		case "purge-sessions":
			runPurgeSessions()
			return
		}
	}

	// Default: Start server
	startServer()
}

func loadConfigAndLogger(purpose string) (*config.Config, *zap.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for %s: %v", purpose, err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for %s: %v", purpose, err)
	}
	return cfg, appLogger
}

// runMigrate applies or reverts the embedded Postgres migrations.
func runMigrate(args []string) {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	direction := migrateCmd.String("direction", "up", "Migration direction (up, down)")
	steps := migrateCmd.Int("steps", 0, "Number of migrations to apply; 0 means all")
	_ = migrateCmd.Parse(args)

	cfg, appLogger := loadConfigAndLogger("migrate")
	defer func() { _ = appLogger.Sync() }()

	if cfg.DBDriver != "postgres" {
		appLogger.Fatal("FATAL: SQL migrations target Postgres; SQLite schemas are auto-migrated at startup", zap.String("driver", cfg.DBDriver))
	}
	if err := database.RunMigrations(database.PostgresURL(cfg), *direction, *steps, appLogger); err != nil {
		appLogger.Fatal("FATAL: Migration failed", zap.Error(err))
	}
}

// runPurgeSessions deletes stale sessions once and exits.
func runPurgeSessions() {
	cfg, appLogger := loadConfigAndLogger("purge-sessions")
	defer func() { _ = appLogger.Sync() }()

	db, cleanup, err := provideDB(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for purge", zap.Error(err))
	}
	defer cleanup()

	sessions := auth.NewSessionService(auth.NewGORMSessionRepository(db), cfg, appLogger)
	job := jobs.NewSessionCleanupJob(sessions, nil, appLogger, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	purged, err := job.RunOnce(ctx)
	if err != nil {
		appLogger.Error("Session purge failed", zap.Error(err))
		return
	}
	appLogger.Info("Session purge completed", zap.Int64("sessions_purged", purged))
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	shutdownTracing, err := tracing.Setup(context.Background(), cfg)
	if err != nil {
		log.Printf("WARN: Tracing disabled, exporter setup failed: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("WARN: Flushing traces failed: %v", err)
	}
	log.Println("INFO: Application exiting.")
}
