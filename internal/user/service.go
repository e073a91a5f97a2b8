package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the full user service, including registration which only the
// user handler needs.
type Service interface {
	shared.Service
	Register(ctx context.Context, req CreateUserRequest) (*shared.User, error)
}

// ServiceImplementation implements user.Service.
type ServiceImplementation struct {
	repo   Repository
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a new user with a bcrypt hashed password.
func (s *ServiceImplementation) Register(ctx context.Context, req CreateUserRequest) (*shared.User, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, common.ErrEmailAlreadyExists
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user by email: %w", err)
	}

	hashedPassword, err := common.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, err
	}

	dbUser := CreateRequestToDB(&req, hashedPassword)
	if err := s.repo.Create(ctx, dbUser); err != nil {
		// A concurrent registration can still win the unique index.
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		s.logger.Error("Failed to create user in repository", zap.Error(err), zap.String("email", dbUser.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered successfully", zap.String("userID", dbUser.ID.String()))
	return DBToShared(dbUser), nil
}

// Authenticate verifies an email/password pair against the stored bcrypt hash.
// Unknown emails, password-less accounts and wrong passwords all return the
// same ErrInvalidCredentials.
func (s *ServiceImplementation) Authenticate(ctx context.Context, email, password string) (*shared.User, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("User not found during login", zap.String("email", NormalizeEmail(email)))
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error("Error finding user by email during login", zap.Error(err))
		return nil, err
	}

	if dbUser.PasswordHash == nil || *dbUser.PasswordHash == "" {
		s.logger.Warn("Password login attempted for an account without a password", zap.String("userID", dbUser.ID.String()))
		return nil, common.ErrInvalidCredentials
	}
	if !common.CheckPasswordHash(password, *dbUser.PasswordHash) {
		s.logger.Info("Invalid password attempt", zap.String("userID", dbUser.ID.String()))
		return nil, common.ErrInvalidCredentials
	}

	return DBToShared(dbUser), nil
}

// GetUserByID retrieves a user by their ID.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// GetUserByEmail retrieves a user by their email.
func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// FindOrCreateOAuthUser links by email: an existing user with the same email
// is reused regardless of how it signed up. Missing profile fields on the
// existing row are filled from the provider.
func (s *ServiceImplementation) FindOrCreateOAuthUser(ctx context.Context, profile shared.OAuthUserProfile) (*shared.User, bool, error) {
	email := NormalizeEmail(profile.Email)
	if email == "" {
		return nil, false, common.ErrBadRequest.WithDetails("The provider did not return an email address.")
	}

	dbUser, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if s.mergeProfile(dbUser, profile) {
			if err := s.repo.Update(ctx, dbUser); err != nil {
				return nil, false, fmt.Errorf("updating user from %s profile: %w", profile.Provider, err)
			}
		}
		return DBToShared(dbUser), false, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, false, err
	}

	name := common.SanitizeText(profile.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	dbUser = &User{Name: name, Email: email}
	if profile.PictureURL != "" {
		pic := profile.PictureURL
		dbUser.AvatarURL = &pic
	}
	if profile.EmailVerified {
		now := s.now()
		dbUser.EmailVerifiedAt = &now
	}

	if err := s.repo.Create(ctx, dbUser); err != nil {
		if errors.Is(err, common.ErrEmailAlreadyExists) {
			// Lost a race with another sign-in for the same email.
			existing, findErr := s.repo.FindByEmail(ctx, email)
			if findErr != nil {
				return nil, false, findErr
			}
			return DBToShared(existing), false, nil
		}
		return nil, false, fmt.Errorf("creating user from %s profile: %w", profile.Provider, err)
	}

	s.logger.Info("User created from OAuth profile",
		zap.String("userID", dbUser.ID.String()),
		zap.String("provider", profile.Provider))
	return DBToShared(dbUser), true, nil
}

func (s *ServiceImplementation) mergeProfile(dbUser *User, profile shared.OAuthUserProfile) bool {
	changed := false
	if dbUser.AvatarURL == nil && profile.PictureURL != "" {
		pic := profile.PictureURL
		dbUser.AvatarURL = &pic
		changed = true
	}
	if dbUser.EmailVerifiedAt == nil && profile.EmailVerified {
		now := s.now()
		dbUser.EmailVerifiedAt = &now
		changed = true
	}
	if name := common.SanitizeText(profile.Name); strings.TrimSpace(dbUser.Name) == "" && name != "" {
		dbUser.Name = name
		changed = true
	}
	return changed
}

// RecordLogin stamps the user's last login time.
func (s *ServiceImplementation) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.repo.TouchLastLogin(ctx, id, at)
}
