package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookie centralises the transport attributes of the session
// credential: HTTP-only, SameSite=Lax, path "/", max-age equal to the
// session validity window, Secure outside development.
type SessionCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Write sets the session cookie carrying the opaque token.
func (sc SessionCookie) Write(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sc.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear deletes the session cookie on the client.
func (sc SessionCookie) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the cookie value, or "" when absent.
func (sc SessionCookie) Read(c *gin.Context) string {
	value, err := c.Cookie(sc.Name)
	if err != nil {
		return ""
	}
	return value
}
