// File: internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"
	"time"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	cfg       *config.Config
	users     shared.Service
	verifier  *CredentialVerifier
	signIn    *SignInService
	sessions  *SessionService
	oauth     *OAuthService
	tokens    shared.TokenService
	blocklist TokenBlocklistService
	logger    *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(
	cfg *config.Config,
	users shared.Service,
	verifier *CredentialVerifier,
	signIn *SignInService,
	sessions *SessionService,
	oauth *OAuthService,
	tokens shared.TokenService,
	blocklist TokenBlocklistService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		users:     users,
		verifier:  verifier,
		signIn:    signIn,
		sessions:  sessions,
		oauth:     oauth,
		tokens:    tokens,
		blocklist: blocklist,
		logger:    logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations. limiter
// guards the two password endpoints.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, limiter gin.HandlerFunc) {
	router.POST("/login", limiter, h.login)

	authGroup := router.Group("/auth")
	{
		authGroup.GET("/providers", h.providers)
		authGroup.GET("/session", h.session)
		authGroup.POST("/signout", h.signOut)
		authGroup.GET("/signin/google", h.googleLogin)
		authGroup.GET("/callback/google", h.googleCallback)
		authGroup.GET("/signin/apple", h.appleLogin)
		authGroup.POST("/callback/apple", h.appleCallback)
		authGroup.POST("/callback/credentials", limiter, h.credentialsCallback)
	}
}

func (h *Handler) bindLogin(c *gin.Context) (*LoginRequest, bool) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return nil, false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Malformed request body."))
		return nil, false
	}
	return &req, true
}

func (h *Handler) login(c *gin.Context) {
	req, ok := h.bindLogin(c)
	if !ok {
		return
	}

	loggedInUser, tokenResponse, err := h.verifier.Verify(c.Request.Context(), req.Email, req.Secret())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", gin.H{
		"user":  shared.ToUserResponse(loggedInUser),
		"token": tokenResponse,
	})
}

func (h *Handler) credentialsCallback(c *gin.Context) {
	req, ok := h.bindLogin(c)
	if !ok {
		return
	}
	result, err := h.signIn.CompleteCredentials(c.Request.Context(), req.Email, req.Secret(), clientMeta(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.respondSignedIn(c, result, "Sign-in successful.")
}

func (h *Handler) providers(c *gin.Context) {
	common.RespondOK(c, "", gin.H{"providers": h.oauth.Providers("/api/auth")})
}

func (h *Handler) session(c *gin.Context) {
	raw := common.GetSessionTokenFromContext(c, h.cfg.SessionCookieName)
	session, err := h.sessions.Read(c.Request.Context(), raw)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	usr, err := h.users.GetUserByID(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(c, ErrSessionNotFound)
			return
		}
		common.RespondWithError(c, err)
		return
	}

	if _, cookieErr := c.Cookie(h.cfg.SessionCookieName); cookieErr == nil {
		setSessionCookie(c, h.cfg, raw, session.ExpiresAt)
	}
	common.RespondOK(c, "", gin.H{
		"user":    shared.ToUserResponse(usr),
		"expires": session.ExpiresAt,
	})
}

func (h *Handler) signOut(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := common.GetSessionTokenFromContext(c, h.cfg.SessionCookieName); raw != "" {
		if err := h.sessions.Revoke(ctx, raw); err != nil {
			common.RespondWithError(c, err)
			return
		}
	}
	if bearer := common.GetTokenFromContext(c); bearer != "" {
		if claims, err := h.tokens.ValidateToken(bearer); err == nil && claims.ExpiresAt != nil {
			if err := h.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				h.logger.Warn("Failed to blocklist access token", zap.Error(err))
			}
		}
	}
	clearSessionCookie(c, h.cfg)
	common.RespondOK(c, "Signed out.", nil)
}

func (h *Handler) googleLogin(c *gin.Context) {
	authURL, err := h.oauth.GetGoogleLoginURL(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *Handler) googleCallback(c *gin.Context) {
	if errorParam := c.Query("error"); errorParam != "" {
		h.logger.Warn("Google OAuth callback error",
			zap.String("error", errorParam),
			zap.String("description", c.Query("error_description")))
		common.RespondWithError(c, ErrAccessDenied.WithDetails("Google login failed: "+errorParam))
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Missing authorization code or state from Google."))
		return
	}

	result, err := h.oauth.HandleGoogleCallback(c, code, state, clientMeta(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.respondSignedIn(c, result, "Google login processed successfully.")
}

func (h *Handler) appleLogin(c *gin.Context) {
	authURL, err := h.oauth.GetAppleLoginURL(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *Handler) appleCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not parse Apple callback form."))
		return
	}
	if errorParam := c.PostForm("error"); errorParam != "" {
		h.logger.Warn("Apple OAuth callback error", zap.String("error", errorParam))
		common.RespondWithError(c, ErrAccessDenied.WithDetails("Apple Sign-In failed: "+errorParam))
		return
	}

	idToken := c.PostForm("id_token")
	state := c.PostForm("state")
	if idToken == "" || state == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Missing id_token or state from Apple."))
		return
	}

	result, err := h.oauth.HandleAppleCallback(c, c.PostForm("code"), idToken, state, c.PostForm("user"), clientMeta(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.respondSignedIn(c, result, "Apple Sign-In processed successfully.")
}

func (h *Handler) respondSignedIn(c *gin.Context, result *SignInResult, message string) {
	setSessionCookie(c, h.cfg, result.Session.Token, result.Session.ExpiresAt)
	common.RespondOK(c, message, gin.H{
		"user":      shared.ToUserResponse(result.User),
		"token":     result.Token,
		"session":   gin.H{"token": result.Session.Token, "expires": result.Session.ExpiresAt.Format(time.RFC3339)},
		"isNewUser": result.IsNewUser,
	})
}

func clientMeta(c *gin.Context) ClientMeta {
	return ClientMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
