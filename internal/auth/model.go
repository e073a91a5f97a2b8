// File: internal/auth/model.go
package auth

import (
	"net/http"
	"strings"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/shared"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Provider identifiers as they appear in routes and in accounts.provider.
const (
	ProviderGoogle      = "google"
	ProviderApple       = "apple"
	ProviderCredentials = "credentials"
)

// Account types stored in accounts.type.
const (
	AccountTypeOAuth       = "oauth"
	AccountTypeOIDC        = "oidc"
	AccountTypeCredentials = "credentials"
)

var (
	ErrAccountAlreadyLinked = common.NewAPIError(http.StatusConflict, "ACCOUNT_ALREADY_LINKED", "This provider account is already linked.")
	ErrSessionNotFound      = common.NewAPIError(http.StatusUnauthorized, "SESSION_NOT_FOUND", "No active session.")
	ErrAccessDenied         = common.NewAPIError(http.StatusForbidden, "ACCESS_DENIED", "Sign-in was rejected.")
	ErrProviderDisabled     = common.NewAPIError(http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED", "This sign-in provider is not configured.")
)

// LoginRequest defines the structure for login requests. HashedPassword is a
// legacy field name some clients still send; it carries the plaintext
// password just like Password.
type LoginRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required_without=HashedPassword"`
	HashedPassword string `json:"hashedPassword"`
}

// Secret returns whichever password field the client filled.
func (r LoginRequest) Secret() string {
	if r.Password != "" {
		return r.Password
	}
	return r.HashedPassword
}

// Account links a user to an identity at a sign-in provider.
type Account struct {
	common.BaseModel
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_provider"`
	Type              string    `gorm:"type:varchar(20);not null"`
	Provider          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_accounts_user_provider;uniqueIndex:idx_accounts_provider_account"`
	ProviderAccountID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_accounts_provider_account"`
	AccessToken       *string   `gorm:"type:text"`
	RefreshToken      *string   `gorm:"type:text"`
	IDToken           *string   `gorm:"type:text"`
	TokenType         *string   `gorm:"type:varchar(50)"`
	Scope             *string   `gorm:"type:text"`
	ExpiresAt         *time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Session is a server tracked login. Only the SHA-256 of the token is stored.
type Session struct {
	common.BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_user_id"`
	TokenHash string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_sessions_token_hash"`
	ExpiresAt time.Time `gorm:"not null;index:idx_sessions_expires_at"`
	IPAddress string    `gorm:"type:varchar(64)"`
	UserAgent string    `gorm:"type:text"`
}

// TableName specifies the table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}

// IssuedSession is a freshly created session together with the raw token,
// which is only available at creation time.
type IssuedSession struct {
	Token     string    `json:"-"`
	UserID    uuid.UUID `json:"userId"`
	ExpiresAt time.Time `json:"expires"`
}

// ClientMeta describes the client that started a session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// TokenSet is what a provider handed back at sign-in.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

// TokenSetFromOAuth2 copies the fields of an oauth2 token, including the
// id_token and scope extras.
func TokenSetFromOAuth2(tok *oauth2.Token) TokenSet {
	if tok == nil {
		return TokenSet{}
	}
	ts := TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		ts.ExpiresAt = &exp
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	return ts
}

// SignInResult is returned by every successful sign-in path.
type SignInResult struct {
	User      *shared.User
	Session   *IssuedSession
	Token     *shared.TokenResponse
	IsNewUser bool
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
