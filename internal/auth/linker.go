package auth

import (
	"context"
	"errors"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/shared"

	"go.uber.org/zap"
)

// LinkRequest describes a provider identity to attach to a user.
type LinkRequest struct {
	User              *shared.User
	Provider          string
	ProviderAccountID string
	AccountType       string
	Tokens            TokenSet
	Client            ClientMeta
}

// LinkOutcome reports what Link did. Linked is false when the user already
// had an account for the provider. Session is only set when a new account was
// created.
type LinkOutcome struct {
	Accepted bool
	Linked   bool
	Session  *IssuedSession
}

// AccountLinker attaches provider accounts to users on sign-in.
type AccountLinker struct {
	tx       database.Transactor
	accounts AccountRepository
	sessions *SessionService
	users    shared.Service
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccountLinker creates a new account linker.
func NewAccountLinker(
	tx database.Transactor,
	accounts AccountRepository,
	sessions *SessionService,
	users shared.Service,
	logger *zap.Logger,
) *AccountLinker {
	return &AccountLinker{
		tx:       tx,
		accounts: accounts,
		sessions: sessions,
		users:    users,
		logger:   logger.Named("AccountLinker"),
		now:      time.Now,
	}
}

// Link accepts every well formed request. Failures while creating the
// account or session are logged and the sign-in proceeds without them; only
// a request missing the user or provider identity is rejected.
func (l *AccountLinker) Link(ctx context.Context, req LinkRequest) LinkOutcome {
	if req.User == nil || req.Provider == "" || req.ProviderAccountID == "" {
		l.logger.Warn("Rejecting incomplete link request",
			zap.String("provider", req.Provider),
			zap.Bool("hasUser", req.User != nil))
		return LinkOutcome{Accepted: false}
	}

	outcome, err := l.link(ctx, req)
	if err != nil {
		l.logger.Error("Failed to link provider account",
			zap.String("userID", req.User.ID.String()),
			zap.String("provider", req.Provider),
			zap.Error(err))
		return LinkOutcome{Accepted: true}
	}
	return outcome
}

// link is Link with errors surfaced. The session, the account and the login
// stamp are written in one transaction.
func (l *AccountLinker) link(ctx context.Context, req LinkRequest) (LinkOutcome, error) {
	if req.User == nil || req.Provider == "" || req.ProviderAccountID == "" {
		return LinkOutcome{}, common.ErrBadRequest.WithDetails("Incomplete provider identity.")
	}

	linked, err := l.hasAccount(ctx, req)
	if err != nil {
		return LinkOutcome{}, err
	}
	if linked {
		return LinkOutcome{Accepted: true}, nil
	}

	var session *IssuedSession
	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = l.sessions.Create(ctx, req.User.ID, req.Client)
		if err != nil {
			return err
		}
		if err := l.accounts.Create(ctx, newAccount(req)); err != nil {
			return err
		}
		return l.users.RecordLogin(ctx, req.User.ID, l.now())
	})
	if err != nil {
		if errors.Is(err, ErrAccountAlreadyLinked) {
			// A concurrent sign-in may have linked the same pair first.
			linked, findErr := l.hasAccount(ctx, req)
			if findErr == nil && linked {
				return LinkOutcome{Accepted: true}, nil
			}
		}
		return LinkOutcome{}, err
	}

	l.logger.Info("Provider account linked",
		zap.String("userID", req.User.ID.String()),
		zap.String("provider", req.Provider))
	return LinkOutcome{Accepted: true, Linked: true, Session: session}, nil
}

func (l *AccountLinker) hasAccount(ctx context.Context, req LinkRequest) (bool, error) {
	_, err := l.accounts.FindByUserAndProvider(ctx, req.User.ID, req.Provider)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func newAccount(req LinkRequest) *Account {
	accountType := req.AccountType
	if accountType == "" {
		accountType = AccountTypeOAuth
	}
	return &Account{
		UserID:            req.User.ID,
		Type:              accountType,
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
		AccessToken:       optionalString(req.Tokens.AccessToken),
		RefreshToken:      optionalString(req.Tokens.RefreshToken),
		IDToken:           optionalString(req.Tokens.IDToken),
		TokenType:         optionalString(req.Tokens.TokenType),
		Scope:             optionalString(req.Tokens.Scope),
		ExpiresAt:         req.Tokens.ExpiresAt,
	}
}
