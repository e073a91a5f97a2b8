package auth

import (
	"context"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository defines account persistence.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*Account, error)
	FindByProviderAccount(ctx context.Context, provider, providerAccountID string) (*Account, error)
}

// SessionRepository defines session persistence.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormAccountRepository struct {
	db *gorm.DB
}

// NewGORMAccountRepository creates a new GORM account repository.
func NewGORMAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func (r *gormAccountRepository) Create(ctx context.Context, a *Account) error {
	err := database.Savepoint(ctx, r.db, func(conn *gorm.DB) error {
		return conn.Create(a).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAccountAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *gormAccountRepository) FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*Account, error) {
	var a Account
	err := database.Conn(ctx, r.db).Where("user_id = ? AND provider = ?", userID, provider).First(&a).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Account not linked.")
		}
		return nil, err
	}
	return &a, nil
}

func (r *gormAccountRepository) FindByProviderAccount(ctx context.Context, provider, providerAccountID string) (*Account, error) {
	var a Account
	err := database.Conn(ctx, r.db).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&a).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("Account not linked.")
		}
		return nil, err
	}
	return &a, nil
}

type gormSessionRepository struct {
	db *gorm.DB
}

// NewGORMSessionRepository creates a new GORM session repository.
func NewGORMSessionRepository(db *gorm.DB) SessionRepository {
	return &gormSessionRepository{db: db}
}

func (r *gormSessionRepository) Create(ctx context.Context, s *Session) error {
	return database.Conn(ctx, r.db).Create(s).Error
}

func (r *gormSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var s Session
	err := database.Conn(ctx, r.db).Where("token_hash = ?", tokenHash).First(&s).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormSessionRepository) UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return database.Conn(ctx, r.db).Model(&Session{}).Where("id = ?", id).Update("expires_at", expiresAt).Error
}

func (r *gormSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return database.Conn(ctx, r.db).Where("token_hash = ?", tokenHash).Delete(&Session{}).Error
}

func (r *gormSessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).Where("expires_at < ?", cutoff).Delete(&Session{})
	return res.RowsAffected, res.Error
}
