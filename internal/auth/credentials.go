package auth

import (
	"context"
	"errors"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/metrics"
	"barbershop_backend/internal/shared"

	"go.uber.org/zap"
)

// CredentialVerifier checks an email/password pair and issues an access token.
type CredentialVerifier struct {
	users   shared.Service
	tokens  shared.TokenService
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewCredentialVerifier creates a new credential verifier.
func NewCredentialVerifier(users shared.Service, tokens shared.TokenService, collector *metrics.Collector, logger *zap.Logger) *CredentialVerifier {
	return &CredentialVerifier{
		users:   users,
		tokens:  tokens,
		metrics: collector,
		logger:  logger.Named("CredentialVerifier"),
	}
}

// Verify returns the user and a fresh access token, or ErrInvalidCredentials.
// No token is ever produced for a failed check.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	usr, err := v.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			v.metrics.RecordAuth(ProviderCredentials, "failure")
			return nil, nil, common.ErrInvalidCredentials
		}
		v.logger.Error("Credential check failed", zap.Error(err))
		return nil, nil, err
	}

	accessToken, expiresAt, err := v.tokens.GenerateAccessToken(usr)
	if err != nil {
		return nil, nil, common.ErrInternalServer.WithDetails("Could not generate access token.")
	}

	v.metrics.RecordAuth(ProviderCredentials, "success")
	return usr, &shared.TokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		TokenType:   common.AuthorizationTypeBearer,
	}, nil
}
