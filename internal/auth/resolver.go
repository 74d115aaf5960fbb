package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/models"
)

// Resolver turns a raw request credential into an Identity. It is a pure
// function of (token, clock, store): read-only, no request-global state,
// safe to call multiple times per request.
//
// Absent, malformed, unknown, revoked, and expired tokens all resolve to
// Anonymous. The non-nil error path is reserved for storage failures,
// which callers surface as a server error.
type Resolver struct {
	db  *gorm.DB
	now func() time.Time
}

// NewResolver constructs a Resolver. A nil clock defaults to time.Now.
func NewResolver(db *gorm.DB, clock func() time.Time) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("resolver: db is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Resolver{db: db, now: clock}, nil
}

// Resolve applies the credential validity rules in order: presence,
// token format, row existence, revocation, expiry. A forged token is
// indistinguishable from an absent one to the caller.
func (r *Resolver) Resolve(ctx context.Context, rawToken string) (Identity, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return Anonymous, nil
	}

	if _, err := uuid.Parse(token); err != nil {
		return Anonymous, nil
	}

	var session models.Session
	err := r.db.WithContext(ctx).Take(&session, "id = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Anonymous, nil
	}
	if err != nil {
		return Anonymous, fmt.Errorf("resolver: load session: %w", err)
	}

	if !session.ValidAt(r.now()) {
		return Anonymous, nil
	}

	var user models.User
	err = r.db.WithContext(ctx).Take(&user, "id = ?", session.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Owner deleted between session lookup and user load.
		return Anonymous, nil
	}
	if err != nil {
		return Anonymous, fmt.Errorf("resolver: load user: %w", err)
	}

	return Identity{User: &user}, nil
}
