package auth_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"barbershop_backend/internal/auth"
	"barbershop_backend/internal/user"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

const appleClientID = "br.com.barbershop.web"

// appleIDServer publishes a JWKS and signs ID tokens with the matching key.
type appleIDServer struct {
	key    *ecdsa.PrivateKey
	server *httptest.Server
}

func newAppleIDServer(t *testing.T) *appleIDServer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwks := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     "apple-kid",
		Algorithm: string(jose.ES256),
		Use:       "sig",
	}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)
	return &appleIDServer{key: key, server: srv}
}

func (a *appleIDServer) idToken(t *testing.T, nonce string) string {
	t.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: jose.JSONWebKey{Key: a.key, KeyID: "apple-kid"}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	now := time.Now()
	raw, err := josejwt.Signed(signer).Claims(map[string]interface{}{
		"iss":            "https://appleid.apple.com",
		"aud":            appleClientID,
		"sub":            "001234.apple.user",
		"iat":            now.Unix(),
		"exp":            now.Add(10 * time.Minute).Unix(),
		"nonce":          nonce,
		"email":          "Ana@PrivateRelay.AppleID.com",
		"email_verified": "true",
	}).CompactSerialize()
	require.NoError(t, err)
	return raw
}

func (s *AuthHandlerSuite) enableApple() {
	s.Cfg.AppleClientID = appleClientID
	s.Cfg.AppleRedirectURI = "https://localhost/api/auth/callback/apple"
}

// appleSignIn starts Sign in with Apple and returns the redirect response with
// the state and nonce Apple would echo back.
func (s *AuthHandlerSuite) appleSignIn() (*httptest.ResponseRecorder, string, string) {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/auth/signin/apple", nil))
	s.Require().Equal(http.StatusTemporaryRedirect, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("form_post", location.Query().Get("response_mode"))
	state, nonce := location.Query().Get("state"), location.Query().Get("nonce")
	s.Require().NotEmpty(state)
	s.Require().NotEmpty(nonce)
	return rec, state, nonce
}

func (s *AuthHandlerSuite) appleCallback(cookies []*http.Cookie, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/apple", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(req)
}

func (s *AuthHandlerSuite) TestAppleStateAndNonceCookiesAreCrossSite() {
	s.enableApple()
	rec, _, _ := s.appleSignIn()

	seen := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.Name != s.Cfg.OAuthStateCookieName && c.Name != s.Cfg.OAuthNonceCookieName {
			continue
		}
		seen[c.Name] = true
		s.Equal(http.SameSiteNoneMode, c.SameSite, c.Name)
		s.True(c.Secure, c.Name)
		s.True(c.HttpOnly, c.Name)
	}
	s.True(seen[s.Cfg.OAuthStateCookieName])
	s.True(seen[s.Cfg.OAuthNonceCookieName])
}

func (s *AuthHandlerSuite) TestGoogleStateCookieKeepsConfiguredSameSite() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/auth/signin/google", nil))
	s.Require().Equal(http.StatusTemporaryRedirect, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == s.Cfg.OAuthStateCookieName {
			s.Equal(http.SameSiteLaxMode, c.SameSite)
			s.False(c.Secure)
			return
		}
	}
	s.Fail("state cookie not set")
}

func (s *AuthHandlerSuite) TestAppleCallbackCreatesUserAccountAndSession() {
	s.enableApple()
	rec, state, nonce := s.appleSignIn()
	idToken := s.Apple.idToken(s.T(), nonce)

	rec = s.appleCallback(rec.Result().Cookies(), url.Values{
		"state":    {state},
		"id_token": {idToken},
		"user":     {`{"name":{"firstName":"Ana","lastName":"Souza"},"email":"ana@privaterelay.appleid.com"}`},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().NotNil(s.sessionCookie(rec))
	s.Contains(rec.Body.String(), `"isNewUser":true`)

	usr, err := s.Users.GetUserByEmail(context.Background(), "ana@privaterelay.appleid.com")
	s.Require().NoError(err)
	s.Equal("Ana Souza", usr.Name)
	s.True(usr.EmailVerified)
	s.False(usr.HasPassword)

	var acct auth.Account
	s.Require().NoError(s.DB.Where("provider = ?", auth.ProviderApple).First(&acct).Error)
	s.Equal(usr.ID, acct.UserID)
	s.Equal(auth.AccountTypeOIDC, acct.Type)
	s.Equal("001234.apple.user", acct.ProviderAccountID)
	s.Require().NotNil(acct.IDToken)
	s.Equal(idToken, *acct.IDToken)

	var sessions []auth.Session
	s.Require().NoError(s.DB.Find(&sessions).Error)
	s.Require().Len(sessions, 1)
	s.Equal(usr.ID, sessions[0].UserID)

	var users int64
	s.Require().NoError(s.DB.Model(&user.User{}).Count(&users).Error)
	s.EqualValues(1, users)
}

func (s *AuthHandlerSuite) TestAppleCallbackWithoutCookiesIsRejected() {
	s.enableApple()
	_, state, nonce := s.appleSignIn()

	rec := s.appleCallback(nil, url.Values{
		"state":    {state},
		"id_token": {s.Apple.idToken(s.T(), nonce)},
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *AuthHandlerSuite) TestAppleCallbackNonceMismatch() {
	s.enableApple()
	rec, state, _ := s.appleSignIn()

	rec = s.appleCallback(rec.Result().Cookies(), url.Values{
		"state":    {state},
		"id_token": {s.Apple.idToken(s.T(), "replayed-nonce")},
	})
	s.Equal(http.StatusUnauthorized, rec.Code)

	var accounts int64
	s.Require().NoError(s.DB.Model(&auth.Account{}).Count(&accounts).Error)
	s.Zero(accounts)
}
