package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	iauth "github.com/ivevents/ivevents/internal/auth"
	"github.com/ivevents/ivevents/internal/services"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
	"github.com/ivevents/ivevents/pkg/logger"
	"github.com/ivevents/ivevents/pkg/metrics"
	"github.com/ivevents/ivevents/pkg/response"
)

const (
	stateCookieName = "oauth_state"
	nonceCookieName = "oauth_nonce"
	nextCookieName  = "oauth_next"

	// The state and nonce cookies only need to survive the round trip
	// through the provider's consent screen.
	oauthCookieMaxAge = 600
)

// SSOHandler drives the Google OIDC login flow: the begin leg issues
// state and nonce values, the callback leg verifies them, reconciles
// the identity, and establishes a session.
type SSOHandler struct {
	google   *iauth.GoogleClient
	users    *services.UserService
	sessions *iauth.SessionService
	cookie   SessionCookie

	frontendBaseURL string
	secureCookies   bool
}

func NewSSOHandler(google *iauth.GoogleClient, users *services.UserService, sessions *iauth.SessionService, cookie SessionCookie, frontendBaseURL string) *SSOHandler {
	return &SSOHandler{
		google:          google,
		users:           users,
		sessions:        sessions,
		cookie:          cookie,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		secureCookies:   cookie.Secure,
	}
}

// GET /auth/google/login
//
// Redirects the browser to Google's consent screen. State and nonce are
// random per-attempt values pinned in short-lived cookies so the
// callback can bind the response to this browser.
func (h *SSOHandler) Begin(c *gin.Context) {
	state := uuid.NewString()
	nonce := uuid.NewString()

	h.setFlowCookie(c, stateCookieName, state)
	h.setFlowCookie(c, nonceCookieName, nonce)

	if next := sanitizeRedirect(c.Query("next")); next != "" {
		h.setFlowCookie(c, nextCookieName, next)
	}

	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state, nonce))
}

// GET /auth/google/callback
//
// Completes the code flow. Any verification failure ends the flow with
// 401 rather than leaking which check tripped.
func (h *SSOHandler) Callback(c *gin.Context) {
	expectedState, stateErr := c.Cookie(stateCookieName)
	nonce, _ := c.Cookie(nonceCookieName)
	storedNext, _ := c.Cookie(nextCookieName)

	// Flow cookies are single-use; drop them before any response body is
	// written so the clearing headers actually go out.
	h.clearFlowCookies(c)

	if stateErr != nil || expectedState == "" || c.Query("state") != expectedState {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	code := c.Query("code")
	if code == "" {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := requestContext(c)
	identity, err := h.google.Exchange(ctx, code, nonce)
	if err != nil {
		logger.WithModule("sso").Warn("google code exchange failed", zap.Error(err))
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.FindOrCreateByGoogleSubject(ctx, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	if err := h.users.TouchLastLogin(ctx, user.ID); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	session, err := h.sessions.Create(ctx, user.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.cookie.Write(c, session.ID)

	next := "/"
	if sanitized := sanitizeRedirect(storedNext); sanitized != "" {
		next = sanitized
	}
	c.Redirect(http.StatusFound, h.frontendBaseURL+next)
}

func (h *SSOHandler) setFlowCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   oauthCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *SSOHandler) clearFlowCookies(c *gin.Context) {
	for _, name := range []string{stateCookieName, nonceCookieName, nextCookieName} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// sanitizeRedirect accepts only same-site paths. Absolute URLs and
// protocol-relative values ("//evil.example") are rejected.
func sanitizeRedirect(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
