package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a server-side credential record. The row id doubles as the
// opaque bearer token handed to clients; there is no separate secret.
type Session struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ValidAt reports whether the session is usable at the given instant.
// Revocation and expiry are both one-way: once either applies, the
// session never becomes valid again.
func (s *Session) ValidAt(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
