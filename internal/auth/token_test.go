package auth

import (
	"context"
	"testing"
	"time"

	"barbershop_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig(), zap.NewNop())
	usr := &shared.User{ID: uuid.New(), Email: "ana@example.com"}

	token, expiresAt, err := svc.GenerateAccessToken(usr)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, claims.UserID)
	assert.Equal(t, usr.Email, claims.Email)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTServiceRejectsForeignSecret(t *testing.T) {
	other := testConfig()
	other.JWTSecretKey = "another-secret"
	token, _, err := NewJWTService(other, zap.NewNop()).GenerateAccessToken(&shared.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = NewJWTService(testConfig(), zap.NewNop()).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(testConfig(), zap.NewNop()).(*JWTService)
	token, _, err := svc.GenerateAccessToken(&shared.User{ID: uuid.New()})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTServiceTokensHaveDistinctIDs(t *testing.T) {
	svc := NewJWTService(testConfig(), zap.NewNop())
	usr := &shared.User{ID: uuid.New()}

	a, _, err := svc.GenerateAccessToken(usr)
	require.NoError(t, err)
	b, _, err := svc.GenerateAccessToken(usr)
	require.NoError(t, err)

	ca, err := svc.ValidateToken(a)
	require.NoError(t, err)
	cb, err := svc.ValidateToken(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestInMemoryBlocklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryBlocklistService(InMemoryBlocklistConfig{DefaultExpiration: time.Hour, CleanupInterval: time.Minute})

	require.NoError(t, bl.AddToBlocklist(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, bl.AddToBlocklist(ctx, "jti-2", time.Now().Add(-time.Minute)))

	blocked, err := bl.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = bl.IsBlocklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blocked, "already expired tokens are not stored")
}
