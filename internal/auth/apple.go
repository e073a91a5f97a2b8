package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"barbershop_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"gopkg.in/square/go-jose.v2"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

const (
	appleAuthURL      = "https://appleid.apple.com/auth/authorize"
	appleTokenURL     = "https://appleid.apple.com/auth/token"
	appleJWKSURL      = "https://appleid.apple.com/auth/keys"
	appleIssuer       = "https://appleid.apple.com"
	appleJWKSCacheKey = "jwks"
	appleJWKSCacheTTL = 24 * time.Hour
)

// appleKeySource fetches and caches Apple's signing keys.
type appleKeySource struct {
	client *http.Client
	url    string
	cache  *cache.Cache
}

func newAppleKeySource(client *http.Client, url string) *appleKeySource {
	return &appleKeySource{
		client: client,
		url:    url,
		cache:  cache.New(appleJWKSCacheTTL, time.Hour),
	}
}

func (s *appleKeySource) keys(ctx context.Context) (*jose.JSONWebKeySet, error) {
	if cached, ok := s.cache.Get(appleJWKSCacheKey); ok {
		return cached.(*jose.JSONWebKeySet), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch apple public keys from %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to fetch apple public keys: status %s, body: %s", resp.Status, string(body))
	}

	var jwks jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode apple public keys JSON: %w", err)
	}
	s.cache.SetDefault(appleJWKSCacheKey, &jwks)
	return &jwks, nil
}

// flexBool decodes Apple's boolean claims, which arrive either as JSON
// booleans or as the strings "true" and "false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(data)), `"`) {
	case "true":
		*b = true
	case "false", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean claim %s", string(data))
	}
	return nil
}

// AppleIDTokenClaims are the claims of an Apple id_token.
type AppleIDTokenClaims struct {
	josejwt.Claims
	Email          string   `json:"email,omitempty"`
	EmailVerified  flexBool `json:"email_verified,omitempty"`
	IsPrivateEmail flexBool `json:"is_private_email,omitempty"`
	AuthTime       int64    `json:"auth_time,omitempty"`
	Nonce          string   `json:"nonce,omitempty"`
}

// verifyAppleIDToken checks the signature against Apple's JWKS, then the
// issuer, audience, expiry and nonce.
func verifyAppleIDToken(ctx context.Context, keys *appleKeySource, idToken, clientID, expectedNonce string, now time.Time) (*AppleIDTokenClaims, error) {
	parsed, err := josejwt.ParseSigned(idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to parse apple id_token: %w", err)
	}

	jwks, err := keys.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get apple public keys for verification: %w", err)
	}

	var verificationKey interface{}
	var kid string
	for _, header := range parsed.Headers {
		if header.KeyID == "" {
			continue
		}
		kid = header.KeyID
		if found := jwks.Key(header.KeyID); len(found) > 0 {
			switch k := found[0].Key.(type) {
			case *ecdsa.PublicKey, *rsa.PublicKey:
				verificationKey = k
			default:
				return nil, fmt.Errorf("unexpected key type in JWKS for kid %s: %T", header.KeyID, k)
			}
			break
		}
	}
	if verificationKey == nil {
		if kid != "" {
			return nil, fmt.Errorf("apple id_token signing key with kid '%s' not found in JWKS", kid)
		}
		return nil, errors.New("apple id_token 'kid' header missing")
	}

	claims := &AppleIDTokenClaims{}
	if err := parsed.Claims(verificationKey, claims); err != nil {
		return nil, fmt.Errorf("failed to verify apple id_token signature: %w", err)
	}

	expected := josejwt.Expected{
		Issuer:   appleIssuer,
		Audience: josejwt.Audience{clientID},
		Time:     now,
	}
	if err := claims.Validate(expected); err != nil {
		return nil, fmt.Errorf("apple id_token claims validation failed: %w", err)
	}
	if expectedNonce == "" || claims.Nonce != expectedNonce {
		return nil, errors.New("apple id_token nonce mismatch")
	}
	return claims, nil
}

// AppleUserForm is the JSON Apple posts in the "user" field on first sign-in.
type AppleUserForm struct {
	Name struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Email string `json:"email"`
}

func loadApplePrivateKey(path string) (*ecdsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read apple private key file '%s': %w", path, err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the private key")
	}

	privateKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		ecKey, ecErr := x509.ParseECPrivateKey(block.Bytes)
		if ecErr != nil {
			return nil, fmt.Errorf("failed to parse apple private key (tried PKCS8 and SEC1): %v, %v", err, ecErr)
		}
		return ecKey, nil
	}

	ecdsaKey, ok := privateKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not of type ECDSA")
	}
	return ecdsaKey, nil
}

// generateAppleClientSecret signs the short lived ES256 client secret Apple
// expects at its token endpoint.
func generateAppleClientSecret(cfg *config.Config, now time.Time) (string, error) {
	privateKey, err := loadApplePrivateKey(cfg.ApplePrivateKeyPath)
	if err != nil {
		return "", fmt.Errorf("could not load apple private key: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    cfg.AppleTeamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		Audience:  jwt.ClaimStrings{appleIssuer},
		Subject:   cfg.AppleClientID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = cfg.AppleKeyID

	secret, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign apple client secret: %w", err)
	}
	return secret, nil
}
