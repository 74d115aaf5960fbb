package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/ivevents/ivevents/internal/auth"
	"github.com/ivevents/ivevents/internal/middleware"
	"github.com/ivevents/ivevents/internal/services"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
	"github.com/ivevents/ivevents/pkg/metrics"
	"github.com/ivevents/ivevents/pkg/response"
)

// Fixed identity used by the dev-only login path.
const (
	devUserEmail = "dev@ivevents.local"
	devUserName  = "Dev User"
)

// AuthHandler manages the session lifecycle: login, logout, and identity lookup.
type AuthHandler struct {
	users    *services.UserService
	sessions *iauth.SessionService
	cookie   SessionCookie
	devMode  bool
}

func NewAuthHandler(users *services.UserService, sessions *iauth.SessionService, cookie SessionCookie, devMode bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, cookie: cookie, devMode: devMode}
}

type loginRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name" validate:"max=255"`
}

// POST /auth/login
//
// Dev-flow identity claim: find-or-create the user by normalized email,
// then issue a fresh session and hand its id back as the cookie value.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrEmailRequired)
		return
	}

	h.establishSession(c, req.Email, req.FullName)
}

// GET|POST /auth/login-dev
//
// Creates a session for a fixed dev user. Registered only in development.
func (h *AuthHandler) DevLogin(c *gin.Context) {
	if !h.devMode {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	h.establishSession(c, devUserEmail, devUserName)
}

func (h *AuthHandler) establishSession(c *gin.Context, email, fullName string) {
	ctx := requestContext(c)

	user, err := h.users.FindOrCreateByEmail(ctx, email, fullName)
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
	response.Success(c, http.StatusOK, gin.H{"user_id": user.ID})
}

// POST /auth/logout
//
// Revokes the session referenced by the cookie, when one exists, and
// clears the cookie. Always succeeds: logging out with no credential or
// an already-dead one is a no-op, not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.cookie.Read(c); token != "" {
		err := h.sessions.Revoke(requestContext(c), token)
		if err != nil && !errors.Is(err, iauth.ErrSessionNotFound) {
			response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
			return
		}
	}

	h.cookie.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// DELETE /me
//
// Deletes the authenticated account and everything it owns. The
// session cookie is cleared; the sessions themselves die with the
// account.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity.IsAnonymous() {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.users.Delete(requestContext(c), identity.UserID()); err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	h.cookie.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /auth/me
//
// Returns the authenticated identity's public attributes.
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity.IsAnonymous() {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user := identity.User
	response.Success(c, http.StatusOK, gin.H{
		"user_id":       user.ID,
		"email":         user.Email,
		"full_name":     user.FullName,
		"last_login_at": user.LastLoginAt,
	})
}
