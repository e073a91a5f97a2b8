package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/config"
	"barbershop_backend/internal/platform/crypto"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionTokenBytes is the entropy of a session token before encoding.
const sessionTokenBytes = 32

// SessionService manages server side sessions.
type SessionService struct {
	repo   SessionRepository
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(repo SessionRepository, cfg *config.Config, logger *zap.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("SessionService"),
		now:    time.Now,
	}
}

func (s *SessionService) lifetime() time.Duration {
	if s.cfg.SessionLifetime > 0 {
		return s.cfg.SessionLifetime
	}
	return 24 * time.Hour
}

// newRecord builds an unsaved session and returns it with its raw token.
func (s *SessionService) newRecord(userID uuid.UUID, client ClientMeta) (*Session, string, error) {
	token, err := crypto.GenerateSecureRandomString(sessionTokenBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}
	return &Session{
		UserID:    userID,
		TokenHash: crypto.HashToken(token),
		ExpiresAt: s.now().Add(s.lifetime()),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}, token, nil
}

// Create opens a session for userID. It joins a surrounding transaction.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, client ClientMeta) (*IssuedSession, error) {
	record, token, err := s.newRecord(userID, client)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &IssuedSession{Token: token, UserID: userID, ExpiresAt: record.ExpiresAt}, nil
}

// Read resolves a raw session token. A session found past its expiry is not
// rejected: its expiry is pushed to now plus the session lifetime.
func (s *SessionService) Read(ctx context.Context, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.repo.FindByTokenHash(ctx, crypto.HashToken(rawToken))
	if err != nil {
		return nil, err
	}

	now := s.now()
	if session.ExpiresAt.Before(now) {
		extended := now.Add(s.lifetime())
		if err := s.repo.UpdateExpiry(ctx, session.ID, extended); err != nil {
			return nil, fmt.Errorf("extending session: %w", err)
		}
		s.logger.Debug("Expired session extended",
			zap.String("sessionID", session.ID.String()),
			zap.Time("previousExpiry", session.ExpiresAt),
			zap.Time("newExpiry", extended))
		session.ExpiresAt = extended
	}
	return session, nil
}

// Revoke deletes the session behind rawToken. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	err := s.repo.DeleteByTokenHash(ctx, crypto.HashToken(rawToken))
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// PurgeStale deletes sessions that expired more than olderThan ago.
func (s *SessionService) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	n, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging sessions expired before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}
