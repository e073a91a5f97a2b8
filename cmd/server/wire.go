// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"barbershop_backend/internal/address"
	"barbershop_backend/internal/app"
	"barbershop_backend/internal/auth"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/jobs"
	"barbershop_backend/internal/lookup"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/platform/logger"
	"barbershop_backend/internal/platform/metrics"
	"barbershop_backend/internal/shared"
	"barbershop_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		provideDB,
		database.NewTransactor,
		metrics.NewRegistry,
		provideCollector,
		provideOutboundClient,

		// Users and addresses
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(address.UserFinder), new(*user.ServiceImplementation)),
		user.NewHandler,
		address.NewGORMRepository,
		address.NewService,
		wire.Bind(new(address.Service), new(*address.ServiceImplementation)),
		wire.Bind(new(user.AddressReader), new(*address.ServiceImplementation)),
		address.NewHandler,

		// Auth
		auth.NewGORMAccountRepository,
		auth.NewGORMSessionRepository,
		auth.NewSessionService,
		auth.NewJWTService,
		auth.NewCredentialVerifier,
		auth.NewAccountLinker,
		auth.NewSignInService,
		auth.DefaultOAuthEndpoints,
		auth.NewOAuthService,
		provideBlocklist,
		auth.NewHandler,
		provideLoginLimiter,

		// Lookups
		provideLookupService,
		lookup.NewHandler,

		// Jobs
		jobs.NewSessionCleanupJob,
		wire.Bind(new(jobs.SessionPurger), new(*auth.SessionService)),

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
