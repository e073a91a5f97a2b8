package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is the service level view of a user. It never carries the password hash.
type User struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Phone         *string
	AvatarURL     *string
	EmailVerified bool
	HasPassword   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// TokenResponse represents the response containing the access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Service defines the user operations other packages depend on.
type Service interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// Authenticate checks an email/password pair. Any mismatch, including an
	// unknown email or an account without a password, is ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*User, error)
	// FindOrCreateOAuthUser returns the user owning profile.Email, creating a
	// password-less one when none exists.
	FindOrCreateOAuthUser(ctx context.Context, profile OAuthUserProfile) (usr *User, wasCreated bool, err error)
	// RecordLogin stamps last_login_at. It joins a surrounding transaction.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// OAuthUserProfile holds common profile data from OAuth providers.
type OAuthUserProfile struct {
	Provider      string
	ProviderID    string
	Email         string
	Name          string
	PictureURL    string
	EmailVerified bool
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}
