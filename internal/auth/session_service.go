package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/models"
	"github.com/ivevents/ivevents/pkg/metrics"
)

// DefaultSessionTTL is the fallback session validity window.
const DefaultSessionTTL = 7 * 24 * time.Hour

// ErrSessionNotFound indicates that no session matches the provided id.
// Revoking a missing or already-revoked session surfaces this sentinel;
// callers treat it as a no-op rather than a failure.
var ErrSessionNotFound = errors.New("session: not found")

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	TTL   time.Duration
	Clock func() time.Time
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// SessionService is the credential store: it creates, looks up, and
// revokes session rows. Expired rows are never purged; expiry is
// evaluated lazily by the resolver.
type SessionService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionService constructs a session store backed by the provided database.
func NewSessionService(db *gorm.DB, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{db: db, ttl: ttl, now: clock}, nil
}

// TTL returns the configured validity window, used for cookie max-age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create inserts a new session row for the user. The generated row id is
// the opaque bearer token handed back to the client.
func (s *SessionService) Create(ctx context.Context, userID string, meta SessionMetadata) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("session service: user id is required")
	}

	now := s.now()

	session := &models.Session{
		UserID:    userID,
		IPAddress: strings.TrimSpace(meta.IPAddress),
		UserAgent: strings.TrimSpace(meta.UserAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("session service: create session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	return session, nil
}

// FindByID performs a point lookup by primary key. An absent row is
// reported as ErrSessionNotFound, not as a storage error.
func (s *SessionService) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Take(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find session: %w", err)
	}
	return &session, nil
}

// Revoke marks a session as revoked. Revocation is monotonic: the guard
// on revoked_at means repeated revokes never move the timestamp, and
// there is no path back to an active session.
func (s *SessionService) Revoke(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrSessionNotFound
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", s.now())

	if result.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	metrics.ActiveSessions.Sub(float64(result.RowsAffected))

	return nil
}

// RevokeUserSessions revokes every active session belonging to a user.
// Used by the user deletion policy and "log out everywhere".
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("session service: user id is required")
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now())
	if result.Error != nil {
		return fmt.Errorf("session service: revoke user sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return nil
}
