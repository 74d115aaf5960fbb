package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/models"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
)

const (
	defaultFeedLimit = 25
	maxFeedLimit     = 100
)

// EventService coordinates event, participation, and RSVP persistence.
type EventService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEventService constructs an EventService. A nil clock defaults to time.Now.
func NewEventService(db *gorm.DB, clock func() time.Time) (*EventService, error) {
	if db == nil {
		return nil, fmt.Errorf("event service: db is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &EventService{db: db, now: clock}, nil
}

// CreateEventInput carries the fields accepted when creating an event.
type CreateEventInput struct {
	CreatorID   string
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      *time.Time
}

// Create inserts an event and enrolls the creator as its host.
func (s *EventService) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if input.StartsAt.IsZero() {
		return nil, apperrors.ErrStartsAtRequired
	}

	event := &models.Event{
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		CreatedByUserID: &input.CreatorID,
		CreatedAt:       s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("event service: create event: %w", err)
		}

		host := models.EventParticipant{
			EventID:    event.ID,
			UserID:     input.CreatorID,
			Role:       models.RoleHost,
			RSVPStatus: models.RSVPGoing,
		}
		if err := tx.Create(&host).Error; err != nil {
			return fmt.Errorf("event service: enroll host: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// EventSummary is a feed entry with participation details for the viewer.
type EventSummary struct {
	Event            models.Event `json:"event"`
	ParticipantCount int64        `json:"participant_count"`
	MyRSVP           *string      `json:"my_rsvp"`
}

// ListInput filters the upcoming-events feed. ViewerID may be empty for
// the public feed; OnlyMine requires it.
type ListInput struct {
	Limit    int
	OnlyMine bool
	ViewerID string
}

// List returns upcoming events ordered by start time.
func (s *EventService) List(ctx context.Context, input ListInput) ([]EventSummary, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	query := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("starts_at >= ?", s.now()).
		Order("starts_at ASC").
		Limit(limit)

	if input.OnlyMine {
		query = query.
			Joins("JOIN event_participants ON event_participants.event_id = events.id").
			Where("event_participants.user_id = ?", input.ViewerID)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("event service: list events: %w", err)
	}

	summaries := make([]EventSummary, 0, len(events))
	for _, event := range events {
		summary := EventSummary{Event: event}

		err := s.db.WithContext(ctx).
			Model(&models.EventParticipant{}).
			Where("event_id = ?", event.ID).
			Count(&summary.ParticipantCount).Error
		if err != nil {
			return nil, fmt.Errorf("event service: count participants: %w", err)
		}

		if input.ViewerID != "" {
			var link models.EventParticipant
			err := s.db.WithContext(ctx).
				Take(&link, "event_id = ? AND user_id = ?", event.ID, input.ViewerID).Error
			switch {
			case err == nil:
				status := link.RSVPStatus
				summary.MyRSVP = &status
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, fmt.Errorf("event service: load viewer rsvp: %w", err)
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Mine returns the events a user created and the events they participate in.
func (s *EventService) Mine(ctx context.Context, userID string) (created, participating []models.Event, err error) {
	err = s.db.WithContext(ctx).
		Where("created_by_user_id = ?", userID).
		Order("starts_at DESC").
		Limit(maxFeedLimit).
		Find(&created).Error
	if err != nil {
		return nil, nil, fmt.Errorf("event service: list created events: %w", err)
	}

	err = s.db.WithContext(ctx).
		Joins("JOIN event_participants ON event_participants.event_id = events.id").
		Where("event_participants.user_id = ?", userID).
		Order("starts_at DESC").
		Limit(maxFeedLimit).
		Find(&participating).Error
	if err != nil {
		return nil, nil, fmt.Errorf("event service: list participating events: %w", err)
	}

	return created, participating, nil
}

// EventDetail combines an event with its full participant list and the
// viewer's own participation, when any.
type EventDetail struct {
	Event           models.Event              `json:"event"`
	Participants    []models.EventParticipant `json:"participants"`
	MyParticipation *models.EventParticipant  `json:"my_participation"`
}

// Get loads a single event with participants. ViewerID may be empty.
func (s *EventService) Get(ctx context.Context, eventID, viewerID string) (*EventDetail, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Take(&event, "id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: find event: %w", err)
	}

	detail := &EventDetail{Event: event}

	err = s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&detail.Participants).Error
	if err != nil {
		return nil, fmt.Errorf("event service: list participants: %w", err)
	}

	if viewerID != "" {
		for i := range detail.Participants {
			if detail.Participants[i].UserID == viewerID {
				detail.MyParticipation = &detail.Participants[i]
				break
			}
		}
	}

	return detail, nil
}

// RSVP records or updates the user's RSVP on an event. First RSVP from a
// non-participant enrolls them as an attendee.
func (s *EventService) RSVP(ctx context.Context, eventID, userID, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidRSVPStatus(status) {
		return apperrors.ErrInvalidRSVPStatus
	}

	var exists int64
	err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ?", eventID).
		Count(&exists).Error
	if err != nil {
		return fmt.Errorf("event service: check event: %w", err)
	}
	if exists == 0 {
		return ErrEventNotFound
	}

	var link models.EventParticipant
	err = s.db.WithContext(ctx).
		Take(&link, "event_id = ? AND user_id = ?", eventID, userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		link = models.EventParticipant{
			EventID:    eventID,
			UserID:     userID,
			Role:       models.RoleAttendee,
			RSVPStatus: status,
		}
		if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
			return fmt.Errorf("event service: create participation: %w", err)
		}
	case err != nil:
		return fmt.Errorf("event service: load participation: %w", err)
	default:
		err := s.db.WithContext(ctx).Model(&models.EventParticipant{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Update("rsvp_status", status).Error
		if err != nil {
			return fmt.Errorf("event service: update rsvp: %w", err)
		}
	}

	return nil
}
