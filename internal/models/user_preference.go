package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserPreference stores per-user content preferences, one row per user.
// Tag and day lists are JSON columns so they map onto Postgres JSONB.
type UserPreference struct {
	UserID string `gorm:"primaryKey;type:uuid" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	PreferredTags       datatypes.JSONSlice[string] `json:"preferred_tags"`
	PreferredDays       datatypes.JSONSlice[string] `json:"preferred_days"`
	PreferredTimeWindow *string                     `json:"preferred_time_window"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidTimeWindow reports whether w is an accepted preference window.
func ValidTimeWindow(w string) bool {
	switch w {
	case "morning", "afternoon", "evening", "night":
		return true
	}
	return false
}
