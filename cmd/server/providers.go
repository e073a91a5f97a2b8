package main

import (
	"log"
	"net/http"
	"time"

	"barbershop_backend/internal/address"
	"barbershop_backend/internal/auth"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/lookup"
	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/platform/httpclient"
	"barbershop_backend/internal/platform/metrics"
	"barbershop_backend/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// schemaModels are auto-migrated when running on SQLite. Postgres uses the
// embedded SQL migrations instead.
var schemaModels = []interface{}{
	&user.User{},
	&address.Address{},
	&auth.Account{},
	&auth.Session{},
}

// provideDB opens the database and returns a cleanup that closes it and
// flushes the logger.
func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBDriver == "sqlite" {
		if err := database.AutoMigrate(db, schemaModels...); err != nil {
			database.CloseGORMDB(db, logger)
			return nil, nil, err
		}
	}
	cleanup := func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db, logger)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}
	return db, cleanup, nil
}

func provideCollector(reg *prometheus.Registry) *metrics.Collector {
	return metrics.NewCollector(reg)
}

// provideOutboundClient is shared by the postal lookups and the OAuth
// providers.
func provideOutboundClient(cfg *config.Config) *http.Client {
	return httpclient.NewSafe(cfg.LookupTimeout)
}

func provideBlocklist(cfg *config.Config) auth.TokenBlocklistService {
	return auth.NewInMemoryBlocklistService(auth.InMemoryBlocklistConfig{
		DefaultExpiration: cfg.JWTAccessTokenExpiryMinutes,
		CleanupInterval:   10 * time.Minute,
	})
}

func provideLoginLimiter(cfg *config.Config, logger *zap.Logger) *middleware.RateLimiter {
	return middleware.NewRateLimiter(
		middleware.PerMinute(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
		logger.Named("LoginRateLimiter"),
	)
}

func provideLookupService(cfg *config.Config, client *http.Client, collector *metrics.Collector, logger *zap.Logger) *lookup.Service {
	return lookup.NewService(
		lookup.NewViaCEPClient(cfg.ViaCEPBaseURL, client),
		lookup.NewIBGEClient(cfg.IBGEBaseURL, client),
		cfg.LookupCacheTTL,
		collector,
		logger.Named("LookupService"),
	)
}
