package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RSVP statuses and participant roles accepted by the API.
const (
	RoleHost     = "host"
	RoleAttendee = "attendee"

	RSVPGoing = "going"
	RSVPMaybe = "maybe"
	RSVPNo    = "no"
)

// Event is a listed event. The creator reference survives user deletion
// as NULL so the listing keeps its history.
type Event struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`

	StartsAt time.Time  `gorm:"not null;index" json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`

	CreatedByUserID *string `gorm:"type:uuid;index" json:"created_by_user_id"`
	CreatedBy       *User   `gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:SET NULL" json:"-"`

	Participants []EventParticipant `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EventParticipant links a user to an event with a role and RSVP status.
type EventParticipant struct {
	EventID string `gorm:"primaryKey;type:uuid" json:"event_id"`
	UserID  string `gorm:"primaryKey;type:uuid" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Role       string `gorm:"not null;default:attendee" json:"role"`
	RSVPStatus string `gorm:"not null;default:going" json:"rsvp_status"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidRSVPStatus reports whether status is one of the accepted values.
func ValidRSVPStatus(status string) bool {
	switch status {
	case RSVPGoing, RSVPMaybe, RSVPNo:
		return true
	}
	return false
}
