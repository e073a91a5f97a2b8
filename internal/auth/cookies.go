package auth

import (
	"fmt"
	"net/http"
	"time"

	"barbershop_backend/internal/config"
	"barbershop_backend/internal/platform/crypto"

	"github.com/gin-gonic/gin"
)

// setOAuthCookie sets a short lived cookie for state or nonce. crossSite
// cookies must survive a provider's form_post back to the callback.
func setOAuthCookie(c *gin.Context, cfg *config.Config, name, value string, crossSite bool) {
	sameSite, secure := oauthCookieSite(cfg, crossSite)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.OAuthCookieDomain,
		MaxAge:   cfg.OAuthCookieMaxAgeMinutes * 60,
		Secure:   secure,
		HttpOnly: cfg.OAuthCookieHTTPOnly,
		SameSite: sameSite,
	})
}

// getOAuthCookie retrieves and deletes an OAuth cookie.
func getOAuthCookie(c *gin.Context, cfg *config.Config, name string, crossSite bool) (string, error) {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return "", fmt.Errorf("%s cookie not found: %w", name, err)
	}
	expireCookie(c, cfg, name, crossSite)
	return cookie.Value, nil
}

func expireCookie(c *gin.Context, cfg *config.Config, name string, crossSite bool) {
	sameSite, secure := oauthCookieSite(cfg, crossSite)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.OAuthCookieDomain,
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

// oauthCookieSite returns the SameSite mode and Secure flag for a cookie.
// Browsers drop SameSite=None cookies that are not Secure.
func oauthCookieSite(cfg *config.Config, crossSite bool) (http.SameSite, bool) {
	if crossSite {
		return http.SameSiteNoneMode, true
	}
	return parseSameSite(cfg.OAuthCookieSameSite), cfg.OAuthCookieSecure
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func generateAndSetOAuthState(c *gin.Context, cfg *config.Config, crossSite bool) (string, error) {
	state, err := crypto.GenerateSecureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	setOAuthCookie(c, cfg, cfg.OAuthStateCookieName, state, crossSite)
	return state, nil
}

func generateAndSetOAuthNonce(c *gin.Context, cfg *config.Config, crossSite bool) (string, error) {
	nonce, err := crypto.GenerateSecureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	setOAuthCookie(c, cfg, cfg.OAuthNonceCookieName, nonce, crossSite)
	return nonce, nil
}

// setSessionCookie hands the raw session token to the browser.
func setSessionCookie(c *gin.Context, cfg *config.Config, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(cfg.SessionLifetime.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.OAuthCookieDomain,
		Expires:  expiresAt,
		MaxAge:   maxAge,
		Secure:   cfg.OAuthCookieSecure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.OAuthCookieSameSite),
	})
}

func clearSessionCookie(c *gin.Context, cfg *config.Config) {
	expireCookie(c, cfg, cfg.SessionCookieName, false)
}
