// File: internal/auth/oauth_service.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// ProviderInfo describes a sign-in provider to clients.
type ProviderInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

// OAuthEndpoints holds the provider URLs. Tests point them at local servers.
type OAuthEndpoints struct {
	Google         oauth2.Endpoint
	GoogleUserInfo string
	AppleAuth      string
	AppleToken     string
	AppleJWKS      string
}

// DefaultOAuthEndpoints returns the production provider URLs.
func DefaultOAuthEndpoints() OAuthEndpoints {
	return OAuthEndpoints{
		Google:         google.Endpoint,
		GoogleUserInfo: googleUserInfoURL,
		AppleAuth:      appleAuthURL,
		AppleToken:     appleTokenURL,
		AppleJWKS:      appleJWKSURL,
	}
}

// OAuthService drives the Google and Apple redirect flows.
type OAuthService struct {
	cfg        *config.Config
	signIn     *SignInService
	httpClient *http.Client
	endpoints  OAuthEndpoints
	appleKeys  *appleKeySource
	logger     *zap.Logger
	now        func() time.Time
}

// NewOAuthService creates a new OAuth service. httpClient is used for every
// call to the providers.
func NewOAuthService(cfg *config.Config, signIn *SignInService, httpClient *http.Client, endpoints OAuthEndpoints, logger *zap.Logger) *OAuthService {
	return &OAuthService{
		cfg:        cfg,
		signIn:     signIn,
		httpClient: httpClient,
		endpoints:  endpoints,
		appleKeys:  newAppleKeySource(httpClient, endpoints.AppleJWKS),
		logger:     logger.Named("OAuthService"),
		now:        time.Now,
	}
}

func (s *OAuthService) googleEnabled() bool {
	return s.cfg.GoogleClientID != "" && s.cfg.GoogleClientSecret != ""
}

func (s *OAuthService) appleEnabled() bool {
	return s.cfg.AppleClientID != ""
}

// Providers lists the providers a client may sign in with.
func (s *OAuthService) Providers(baseURL string) []ProviderInfo {
	var out []ProviderInfo
	if s.googleEnabled() {
		out = append(out, ProviderInfo{
			ID:          ProviderGoogle,
			Name:        "Google",
			Type:        AccountTypeOAuth,
			SignInURL:   baseURL + "/signin/google",
			CallbackURL: s.cfg.GoogleRedirectURI,
		})
	}
	if s.appleEnabled() {
		out = append(out, ProviderInfo{
			ID:          ProviderApple,
			Name:        "Apple",
			Type:        AccountTypeOIDC,
			SignInURL:   baseURL + "/signin/apple",
			CallbackURL: s.cfg.AppleRedirectURI,
		})
	}
	out = append(out, ProviderInfo{
		ID:          ProviderCredentials,
		Name:        "Credentials",
		Type:        AccountTypeCredentials,
		SignInURL:   baseURL + "/callback/credentials",
		CallbackURL: baseURL + "/callback/credentials",
	})
	return out
}

func (s *OAuthService) googleConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     s.endpoints.Google,
	}
}

// GetGoogleLoginURL generates the URL for Google OAuth login. Offline access
// and a forced consent prompt make Google return a refresh token every time.
func (s *OAuthService) GetGoogleLoginURL(c *gin.Context) (string, error) {
	if !s.googleEnabled() {
		return "", ErrProviderDisabled
	}
	state, err := generateAndSetOAuthState(c, s.cfg, false)
	if err != nil {
		s.logger.Error("Failed to generate OAuth state for Google", zap.Error(err))
		return "", common.ErrInternalServer.WithDetails("Could not initiate Google login.")
	}
	return s.googleConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// HandleGoogleCallback processes the callback from Google.
func (s *OAuthService) HandleGoogleCallback(c *gin.Context, code, state string, client ClientMeta) (*SignInResult, error) {
	if !s.googleEnabled() {
		return nil, ErrProviderDisabled
	}
	if err := s.checkState(c, state, false); err != nil {
		return nil, err
	}

	googleCfg := s.googleConfig()
	ctx := context.WithValue(c.Request.Context(), oauth2.HTTPClient, s.httpClient)

	token, err := googleCfg.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("Failed to exchange Google auth code for token", zap.Error(err))
		return nil, common.ErrBadGateway.WithDetails("Could not exchange Google auth code.")
	}
	if !token.Valid() {
		s.logger.Error("Google token received is invalid")
		return nil, common.ErrBadGateway.WithDetails("Received invalid token from Google.")
	}

	profile, err := s.fetchGoogleProfile(ctx, googleCfg.Client(ctx, token))
	if err != nil {
		return nil, err
	}
	return s.signIn.CompleteOAuth(c.Request.Context(), *profile, TokenSetFromOAuth2(token), AccountTypeOAuth, client)
}

func (s *OAuthService) fetchGoogleProfile(ctx context.Context, client *http.Client) (*shared.OAuthUserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoints.GoogleUserInfo, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		s.logger.Error("Failed to fetch user info from Google", zap.Error(err))
		return nil, common.ErrBadGateway.WithDetails("Could not fetch user info from Google.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Error("Google user info request failed", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return nil, common.ErrBadGateway.WithDetails(fmt.Sprintf("Google returned status %d for user info.", resp.StatusCode))
	}

	var googleUser struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		s.logger.Error("Failed to decode Google user info", zap.Error(err))
		return nil, common.ErrBadGateway.WithDetails("Could not process Google user information.")
	}

	return &shared.OAuthUserProfile{
		Provider:      ProviderGoogle,
		ProviderID:    googleUser.Sub,
		Email:         strings.ToLower(googleUser.Email),
		Name:          googleUser.Name,
		PictureURL:    googleUser.Picture,
		EmailVerified: googleUser.EmailVerified,
	}, nil
}

// GetAppleLoginURL generates the URL for Sign in with Apple. Apple posts the
// callback form from its own origin, so state and nonce are cross site cookies.
func (s *OAuthService) GetAppleLoginURL(c *gin.Context) (string, error) {
	if !s.appleEnabled() {
		return "", ErrProviderDisabled
	}
	state, err := generateAndSetOAuthState(c, s.cfg, true)
	if err != nil {
		s.logger.Error("Failed to generate OAuth state for Apple", zap.Error(err))
		return "", common.ErrInternalServer.WithDetails("Could not initiate Apple login.")
	}
	nonce, err := generateAndSetOAuthNonce(c, s.cfg, true)
	if err != nil {
		s.logger.Error("Failed to generate OAuth nonce for Apple", zap.Error(err))
		return "", common.ErrInternalServer.WithDetails("Could not initiate Apple login.")
	}

	params := url.Values{}
	params.Add("client_id", s.cfg.AppleClientID)
	params.Add("redirect_uri", s.cfg.AppleRedirectURI)
	params.Add("response_type", "code id_token")
	params.Add("scope", "name email")
	params.Add("response_mode", "form_post")
	params.Add("state", state)
	params.Add("nonce", nonce)
	return s.endpoints.AppleAuth + "?" + params.Encode(), nil
}

// HandleAppleCallback processes the form Apple posts back.
func (s *OAuthService) HandleAppleCallback(c *gin.Context, code, idToken, state, appleUserJSON string, client ClientMeta) (*SignInResult, error) {
	if !s.appleEnabled() {
		return nil, ErrProviderDisabled
	}
	if err := s.checkState(c, state, true); err != nil {
		return nil, err
	}
	storedNonce, err := getOAuthCookie(c, s.cfg, s.cfg.OAuthNonceCookieName, true)
	if err != nil {
		s.logger.Warn("Apple callback without nonce cookie", zap.Error(err))
		return nil, common.ErrBadRequest.WithDetails("Invalid session or nonce missing.")
	}

	ctx := c.Request.Context()
	claims, err := verifyAppleIDToken(ctx, s.appleKeys, idToken, s.cfg.AppleClientID, storedNonce, s.now())
	if err != nil {
		s.logger.Warn("Apple ID token verification failed", zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("Invalid Apple ID token.")
	}

	profile := shared.OAuthUserProfile{
		Provider:      ProviderApple,
		ProviderID:    claims.Subject,
		Email:         strings.ToLower(claims.Email),
		EmailVerified: bool(claims.EmailVerified),
	}
	if appleUserJSON != "" {
		var form AppleUserForm
		if err := json.Unmarshal([]byte(appleUserJSON), &form); err == nil {
			profile.Name = strings.TrimSpace(form.Name.FirstName + " " + form.Name.LastName)
			if profile.Email == "" {
				profile.Email = strings.ToLower(form.Email)
			}
		} else {
			s.logger.Warn("Failed to parse Apple user form data", zap.Error(err))
		}
	}

	tokens := TokenSet{IDToken: idToken}
	if code != "" && s.cfg.ApplePrivateKeyPath != "" {
		exchanged, err := s.exchangeAppleCode(ctx, code)
		if err != nil {
			s.logger.Warn("Apple code exchange failed, continuing with id_token only", zap.Error(err))
		} else {
			tokens = *exchanged
		}
	}

	return s.signIn.CompleteOAuth(ctx, profile, tokens, AccountTypeOIDC, client)
}

func (s *OAuthService) exchangeAppleCode(ctx context.Context, code string) (*TokenSet, error) {
	secret, err := generateAppleClientSecret(s.cfg, s.now())
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("client_id", s.cfg.AppleClientID)
	form.Set("client_secret", secret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", s.cfg.AppleRedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoints.AppleToken, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apple token endpoint returned %s", resp.Status)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding apple token response: %w", err)
	}
	ts := &TokenSet{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		IDToken:      body.IDToken,
		TokenType:    body.TokenType,
	}
	if body.ExpiresIn > 0 {
		exp := s.now().Add(time.Duration(body.ExpiresIn) * time.Second)
		ts.ExpiresAt = &exp
	}
	return ts, nil
}

func (s *OAuthService) checkState(c *gin.Context, state string, crossSite bool) error {
	storedState, err := getOAuthCookie(c, s.cfg, s.cfg.OAuthStateCookieName, crossSite)
	if err != nil {
		s.logger.Warn("OAuth callback without state cookie", zap.Error(err))
		return common.ErrBadRequest.WithDetails("Invalid session or state mismatch.")
	}
	if state == "" || state != storedState {
		s.logger.Warn("OAuth state mismatch")
		return common.ErrBadRequest.WithDetails("OAuth state mismatch.")
	}
	return nil
}
