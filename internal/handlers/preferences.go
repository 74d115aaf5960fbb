package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivevents/ivevents/internal/middleware"
	"github.com/ivevents/ivevents/internal/services"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
	"github.com/ivevents/ivevents/pkg/response"
)

// PreferenceHandler reads and updates the viewer's content preferences.
type PreferenceHandler struct {
	preferences *services.PreferenceService
}

func NewPreferenceHandler(preferences *services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

// GET /me/preferences
func (h *PreferenceHandler) Get(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	pref, err := h.preferences.Get(requestContext(c), identity.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}

// updatePreferencesRequest distinguishes "field absent" (leave as-is)
// from "field null" (clear) for preferred_time_window by binding the
// raw JSON token.
type updatePreferencesRequest struct {
	PreferredTags       *[]string       `json:"preferred_tags"`
	PreferredDays       *[]string       `json:"preferred_days"`
	PreferredTimeWindow json.RawMessage `json:"preferred_time_window"`
}

// PUT /me/preferences
func (h *PreferenceHandler) Update(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return
	}

	input := services.UpdatePreferencesInput{
		PreferredTags: req.PreferredTags,
		PreferredDays: req.PreferredDays,
	}

	if len(req.PreferredTimeWindow) > 0 {
		if string(req.PreferredTimeWindow) == "null" {
			input.ClearTimeWindow = true
		} else {
			var window string
			if err := json.Unmarshal(req.PreferredTimeWindow, &window); err != nil {
				response.Error(c, apperrors.ErrInvalidTimeWindow)
				return
			}
			input.PreferredTimeWindow = &window
		}
	}

	pref, err := h.preferences.Update(requestContext(c), identity.UserID(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}
