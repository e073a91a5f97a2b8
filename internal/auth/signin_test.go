package auth

import (
	"context"
	"errors"
	"testing"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/shared"
	"barbershop_backend/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// staleUsers reports the first misses email lookups as not found, the way a
// concurrent sign-in looks before it commits.
type staleUsers struct {
	user.Repository
	misses int
}

func (s *staleUsers) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if s.misses > 0 {
		s.misses--
		return nil, common.ErrNotFound
	}
	return s.Repository.FindByEmail(ctx, email)
}

func (f *fixture) signIn(users shared.Service, accounts AccountRepository) *SignInService {
	logger := zap.NewNop()
	tx := database.NewTransactor(f.db)
	linker := NewAccountLinker(tx, accounts, f.sessions, users, logger)
	tokens := NewJWTService(f.cfg, logger)
	return NewSignInService(f.cfg, tx, users, accounts, linker, f.sessions, tokens, nil, nil, logger)
}

func googleProfile() shared.OAuthUserProfile {
	return shared.OAuthUserProfile{
		Provider:      ProviderGoogle,
		ProviderID:    "google-sub-1",
		Email:         "ana@example.com",
		Name:          "Ana Souza",
		EmailVerified: true,
	}
}

func TestPrimaryProviderRollsBackUserWhenAccountFails(t *testing.T) {
	f := newFixture(t)
	svc := f.signIn(f.users, failingAccounts{AccountRepository: f.accounts, err: errors.New("disk full")})

	res, err := svc.CompleteOAuth(context.Background(), googleProfile(), TokenSet{AccessToken: "google-access"}, AccountTypeOAuth, ClientMeta{})
	require.Error(t, err)
	assert.Nil(t, res)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 500, apiErr.StatusCode)

	assert.EqualValues(t, 0, f.count(t, &user.User{}))
	assert.EqualValues(t, 0, f.count(t, &Account{}))
	assert.EqualValues(t, 0, f.count(t, &Session{}))
}

func TestSecondaryProviderKeepsUserWhenAccountFails(t *testing.T) {
	f := newFixture(t)
	svc := f.signIn(f.users, failingAccounts{AccountRepository: f.accounts, err: errors.New("disk full")})
	profile := googleProfile()
	profile.Provider = ProviderApple

	res, err := svc.CompleteOAuth(context.Background(), profile, TokenSet{IDToken: "apple-id-token"}, AccountTypeOIDC, ClientMeta{})
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.EqualValues(t, 1, f.count(t, &user.User{}))
	assert.EqualValues(t, 0, f.count(t, &Account{}))
	assert.EqualValues(t, 1, f.count(t, &Session{}))
}

func TestPrimaryProviderReusesUserCreatedConcurrently(t *testing.T) {
	f := newFixture(t)
	existing := f.registerUser(t, "ana@example.com", "abcd")

	users := user.NewService(&staleUsers{Repository: user.NewGORMRepository(f.db), misses: 1}, f.cfg, zap.NewNop())
	svc := f.signIn(users, f.accounts)

	res, err := svc.CompleteOAuth(context.Background(), googleProfile(), TokenSet{AccessToken: "google-access"}, AccountTypeOAuth, ClientMeta{})
	require.NoError(t, err)
	assert.False(t, res.IsNewUser)
	assert.Equal(t, existing.ID, res.User.ID)
	require.NotNil(t, res.Session)

	assert.EqualValues(t, 1, f.count(t, &user.User{}))
	assert.EqualValues(t, 1, f.count(t, &Account{}))
	assert.EqualValues(t, 1, f.count(t, &Session{}))
}
