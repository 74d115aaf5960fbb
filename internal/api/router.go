package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/app"
	iauth "github.com/ivevents/ivevents/internal/auth"
	"github.com/ivevents/ivevents/internal/handlers"
	"github.com/ivevents/ivevents/internal/middleware"
	"github.com/ivevents/ivevents/internal/services"
)

// NewRouter builds the Gin engine, wires middleware, and registers all
// API routes. googleClient may be nil when Google login is disabled; the
// SSO routes are simply not mounted in that case.
func NewRouter(db *gorm.DB, cfg *app.Config, sessions *iauth.SessionService, resolver *iauth.Resolver, googleClient *iauth.GoogleClient) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if resolver == nil {
		return nil, fmt.Errorf("session resolver must be provided")
	}

	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	events, err := services.NewEventService(db, nil)
	if err != nil {
		return nil, err
	}
	preferences, err := services.NewPreferenceService(db, nil)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.FrontendBaseURL))

	cookie := handlers.SessionCookie{
		Name:   cfg.Auth.Session.CookieName,
		MaxAge: sessions.TTL(),
		Secure: !cfg.Server.IsDevelopment(),
	}
	cookieName := cfg.Auth.Session.CookieName

	requireAuth := middleware.RequireAuth(resolver, cookieName)
	optionalAuth := middleware.OptionalAuth(resolver, cookieName)

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/health", healthHandler.Check)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(users, sessions, cookie, cfg.Server.IsDevelopment())

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
	}

	if cfg.Server.IsDevelopment() {
		auth.GET("/login-dev", authHandler.DevLogin)
		auth.POST("/login-dev", authHandler.DevLogin)

		debugHandler := handlers.NewDebugHandler(r)
		r.GET("/debug/routes", debugHandler.Routes)
	}

	if googleClient != nil {
		ssoHandler := handlers.NewSSOHandler(googleClient, users, sessions, cookie, cfg.Server.FrontendBaseURL)
		auth.GET("/google/login", ssoHandler.Begin)
		auth.GET("/google/callback", ssoHandler.Callback)
	}

	eventHandler := handlers.NewEventHandler(events)

	api := r.Group("/api")
	{
		api.GET("/events", optionalAuth, eventHandler.List)
		api.POST("/events", requireAuth, eventHandler.Create)
		api.GET("/events/mine", requireAuth, eventHandler.Mine)
		api.GET("/events/:id", optionalAuth, eventHandler.Get)
		api.POST("/events/:id/rsvp", requireAuth, eventHandler.RSVP)
	}

	preferenceHandler := handlers.NewPreferenceHandler(preferences)

	me := api.Group("/me")
	me.Use(requireAuth)
	{
		me.DELETE("", authHandler.DeleteAccount)
		me.GET("/preferences", preferenceHandler.Get)
		me.PUT("/preferences", preferenceHandler.Update)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
