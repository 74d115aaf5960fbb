package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ivevents/ivevents/internal/middleware"
	"github.com/ivevents/ivevents/internal/services"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
	"github.com/ivevents/ivevents/pkg/response"
)

// EventHandler exposes the event feed, event detail, and RSVP endpoints.
type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description" validate:"max=4000"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
}

// POST /events
func (h *EventHandler) Create(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req createEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if req.StartsAt == "" {
		response.Error(c, apperrors.ErrStartsAtRequired)
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.Error(c, apperrors.ErrInvalidEventTime)
		return
	}

	var endsAt *time.Time
	if req.EndsAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			response.Error(c, apperrors.ErrInvalidEventTime)
			return
		}
		endsAt = &parsed
	}

	event, err := h.events.Create(requestContext(c), services.CreateEventInput{
		CreatorID:   identity.UserID(),
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

// GET /events
//
// Public upcoming-events feed. When a viewer is authenticated their
// RSVP status is folded into each entry; mine=1 narrows the feed to
// events they participate in and requires authentication.
func (h *EventHandler) List(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, apperrors.NewBadRequest("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	onlyMine := c.Query("mine") == "1" || c.Query("mine") == "true"
	if onlyMine && identity.IsAnonymous() {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	summaries, err := h.events.List(requestContext(c), services.ListInput{
		Limit:    limit,
		OnlyMine: onlyMine,
		ViewerID: identity.UserID(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": summaries})
}

// GET /events/mine
func (h *EventHandler) Mine(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	created, participating, err := h.events.Mine(requestContext(c), identity.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"created":       created,
		"participating": participating,
	})
}

// GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	identity := middleware.IdentityFromContext(c)

	detail, err := h.events.Get(requestContext(c), eventID, identity.UserID())
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			response.Error(c, apperrors.ErrNotFound)
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

type rsvpRequest struct {
	Status string `json:"status"`
}

// POST /events/:id/rsvp
func (h *EventHandler) RSVP(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	identity := middleware.IdentityFromContext(c)

	var req rsvpRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.events.RSVP(requestContext(c), eventID, identity.UserID(), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			response.Error(c, apperrors.ErrNotFound)
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event_id": eventID, "status": req.Status})
}

func eventIDParam(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	if _, err := uuid.Parse(raw); err != nil {
		response.Error(c, apperrors.ErrInvalidEventID)
		return "", false
	}
	return raw, true
}
