package auth

import (
	"context"
	"errors"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/platform/metrics"
	"barbershop_backend/internal/shared"

	"go.uber.org/zap"
)

// SignInService turns a verified identity into a user, a session and an
// access token.
type SignInService struct {
	cfg      *config.Config
	tx       database.Transactor
	users    shared.Service
	accounts AccountRepository
	linker   *AccountLinker
	sessions *SessionService
	tokens   shared.TokenService
	verifier *CredentialVerifier
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
}

// NewSignInService creates a new sign-in service.
func NewSignInService(
	cfg *config.Config,
	tx database.Transactor,
	users shared.Service,
	accounts AccountRepository,
	linker *AccountLinker,
	sessions *SessionService,
	tokens shared.TokenService,
	verifier *CredentialVerifier,
	collector *metrics.Collector,
	logger *zap.Logger,
) *SignInService {
	return &SignInService{
		cfg:      cfg,
		tx:       tx,
		users:    users,
		accounts: accounts,
		linker:   linker,
		sessions: sessions,
		tokens:   tokens,
		verifier: verifier,
		metrics:  collector,
		logger:   logger.Named("SignInService"),
		now:      time.Now,
	}
}

func (s *SignInService) isPrimary(provider string) bool {
	return provider == s.cfg.AuthPrimaryProvider
}

// CompleteOAuth signs in the owner of a provider profile. The primary
// provider creates the user, account and session atomically and fails the
// sign-in on any error. Other providers go through the account linker, whose
// failures are logged only.
func (s *SignInService) CompleteOAuth(ctx context.Context, profile shared.OAuthUserProfile, tokens TokenSet, accountType string, client ClientMeta) (*SignInResult, error) {
	if profile.ProviderID == "" {
		return nil, common.ErrBadRequest.WithDetails("Missing user identifier from provider.")
	}

	var (
		usr     *shared.User
		isNew   bool
		session *IssuedSession
	)
	run := func(ctx context.Context) error {
		var err error
		usr, isNew, err = s.resolveUser(ctx, profile)
		if err != nil {
			return err
		}
		session, err = s.attach(ctx, LinkRequest{
			User:              usr,
			Provider:          profile.Provider,
			ProviderAccountID: profile.ProviderID,
			AccountType:       accountType,
			Tokens:            tokens,
			Client:            client,
		})
		return err
	}

	var err error
	if s.isPrimary(profile.Provider) {
		err = s.tx.WithinTransaction(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		s.metrics.RecordAuth(profile.Provider, "failure")
		s.logger.Error("OAuth sign-in failed", zap.String("provider", profile.Provider), zap.Error(err))
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, common.ErrInternalServer.WithDetails("Failed to process user account after sign-in.")
	}

	token, err := s.issueToken(usr)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAuth(profile.Provider, "success")
	s.logger.Info("OAuth sign-in successful",
		zap.String("provider", profile.Provider),
		zap.String("userID", usr.ID.String()),
		zap.Bool("newUser", isNew))
	return &SignInResult{User: usr, Session: session, Token: token, IsNewUser: isNew}, nil
}

// CompleteCredentials verifies an email/password pair, then links the
// credentials provider to the user and opens a session.
func (s *SignInService) CompleteCredentials(ctx context.Context, email, password string, client ClientMeta) (*SignInResult, error) {
	usr, token, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	session, err := s.attach(ctx, LinkRequest{
		User:              usr,
		Provider:          ProviderCredentials,
		ProviderAccountID: usr.ID.String(),
		AccountType:       AccountTypeCredentials,
		Client:            client,
	})
	if err != nil {
		return nil, err
	}
	return &SignInResult{User: usr, Session: session, Token: token}, nil
}

// resolveUser prefers the user already linked to the provider account and
// falls back to matching by email.
func (s *SignInService) resolveUser(ctx context.Context, profile shared.OAuthUserProfile) (*shared.User, bool, error) {
	acct, err := s.accounts.FindByProviderAccount(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		usr, err := s.users.GetUserByID(ctx, acct.UserID)
		return usr, false, err
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	return s.users.FindOrCreateOAuthUser(ctx, profile)
}

// attach links the provider when needed and returns the session for this
// sign-in. A user already linked to the provider gets a fresh session.
func (s *SignInService) attach(ctx context.Context, req LinkRequest) (*IssuedSession, error) {
	var outcome LinkOutcome
	if s.isPrimary(req.Provider) {
		var err error
		if outcome, err = s.linker.link(ctx, req); err != nil {
			return nil, err
		}
	} else {
		outcome = s.linker.Link(ctx, req)
		if !outcome.Accepted {
			return nil, ErrAccessDenied
		}
	}
	if outcome.Session != nil {
		return outcome.Session, nil
	}

	if err := s.users.RecordLogin(ctx, req.User.ID, s.now()); err != nil {
		s.logger.Warn("Failed to record login", zap.String("userID", req.User.ID.String()), zap.Error(err))
	}
	return s.sessions.Create(ctx, req.User.ID, req.Client)
}

func (s *SignInService) issueToken(usr *shared.User) (*shared.TokenResponse, error) {
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(usr)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err), zap.String("userID", usr.ID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not generate access token.")
	}
	return &shared.TokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		TokenType:   common.AuthorizationTypeBearer,
	}, nil
}
