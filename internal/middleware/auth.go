package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/ivevents/ivevents/internal/auth"
	"github.com/ivevents/ivevents/pkg/errors"
	"github.com/ivevents/ivevents/pkg/response"
)

// CtxIdentityKey stores the resolved auth.Identity for the request.
const CtxIdentityKey = "authIdentity"

// RequireAuth resolves the session cookie and rejects Anonymous requests
// before any input validation runs. The identity is resolved exactly
// once per request and propagated through the gin context.
func RequireAuth(resolver *iauth.Resolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolveCookie(c, resolver, cookieName)
		if err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			c.Abort()
			return
		}

		if identity.IsAnonymous() {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxIdentityKey, identity)
		c.Next()
	}
}

// OptionalAuth resolves the session cookie when present but lets
// Anonymous requests through. Endpoints with a public face (the event
// feed, event detail) use this to personalise responses.
func OptionalAuth(resolver *iauth.Resolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolveCookie(c, resolver, cookieName)
		if err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(CtxIdentityKey, identity)
		c.Next()
	}
}

// IdentityFromContext returns the identity stored by the auth
// middleware, defaulting to Anonymous.
func IdentityFromContext(c *gin.Context) iauth.Identity {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return iauth.Anonymous
	}
	identity, ok := v.(iauth.Identity)
	if !ok {
		return iauth.Anonymous
	}
	return identity
}

func resolveCookie(c *gin.Context, resolver *iauth.Resolver, cookieName string) (iauth.Identity, error) {
	token, err := c.Cookie(cookieName)
	if err != nil {
		// No cookie at all: anonymous, not an error.
		return iauth.Anonymous, nil
	}
	return resolver.Resolve(c.Request.Context(), token)
}
