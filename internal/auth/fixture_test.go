package auth

import (
	"context"
	"testing"
	"time"

	"barbershop_backend/internal/config"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/platform/database/dbtest"
	"barbershop_backend/internal/shared"
	"barbershop_backend/internal/user"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	cfg      *config.Config
	users    *user.ServiceImplementation
	accounts AccountRepository
	sessions *SessionService
	linker   *AccountLinker
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:                "test-secret",
		JWTAccessTokenExpiryMinutes: time.Hour,
		BcryptCost:                  bcrypt.MinCost,
		SessionLifetime:             24 * time.Hour,
		SessionCookieName:           "barbershop.session-token",
		AuthPrimaryProvider:         ProviderGoogle,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t, &user.User{}, &Account{}, &Session{})
	cfg := testConfig()
	logger := zap.NewNop()

	users := user.NewService(user.NewGORMRepository(db), cfg, logger)
	accounts := NewGORMAccountRepository(db)
	sessions := NewSessionService(NewGORMSessionRepository(db), cfg, logger)
	linker := NewAccountLinker(database.NewTransactor(db), accounts, sessions, users, logger)

	return &fixture{db: db, cfg: cfg, users: users, accounts: accounts, sessions: sessions, linker: linker}
}

func (f *fixture) registerUser(t *testing.T, email, password string) *shared.User {
	t.Helper()
	usr, err := f.users.Register(context.Background(), user.CreateUserRequest{
		Name:     "Ana",
		Email:    email,
		Password: password,
		Phone:    "(11)91234-5678",
	})
	require.NoError(t, err)
	return usr
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}
