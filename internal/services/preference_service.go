package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/models"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
)

// PreferenceService stores per-user content preferences. A missing row
// is materialised with defaults on first read so clients always see a
// consistent shape.
type PreferenceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPreferenceService constructs a PreferenceService. A nil clock defaults to time.Now.
func NewPreferenceService(db *gorm.DB, clock func() time.Time) (*PreferenceService, error) {
	if db == nil {
		return nil, fmt.Errorf("preference service: db is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &PreferenceService{db: db, now: clock}, nil
}

// Get returns the user's preferences, creating the default row if missing.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.UserPreference, error) {
	pref := models.UserPreference{
		UserID:        userID,
		PreferredTags: datatypes.NewJSONSlice([]string{}),
		PreferredDays: datatypes.NewJSONSlice([]string{}),
	}

	err := s.db.WithContext(ctx).
		Where(models.UserPreference{UserID: userID}).
		FirstOrCreate(&pref).Error
	if err != nil {
		return nil, fmt.Errorf("preference service: load preferences: %w", err)
	}

	return &pref, nil
}

// UpdatePreferencesInput carries a partial preference update. Nil slice
// pointers mean "leave unchanged"; ClearTimeWindow clears the window
// when no replacement value is supplied.
type UpdatePreferencesInput struct {
	PreferredTags       *[]string
	PreferredDays       *[]string
	PreferredTimeWindow *string
	ClearTimeWindow     bool
}

// Update applies a partial update and returns the stored preferences.
func (s *PreferenceService) Update(ctx context.Context, userID string, input UpdatePreferencesInput) (*models.UserPreference, error) {
	pref, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.PreferredTags != nil {
		normalized := normalizeList(*input.PreferredTags)
		pref.PreferredTags = datatypes.NewJSONSlice(normalized)
		updates["preferred_tags"] = pref.PreferredTags
	}

	if input.PreferredDays != nil {
		normalized := normalizeList(*input.PreferredDays)
		pref.PreferredDays = datatypes.NewJSONSlice(normalized)
		updates["preferred_days"] = pref.PreferredDays
	}

	switch {
	case input.PreferredTimeWindow != nil:
		window := strings.ToLower(strings.TrimSpace(*input.PreferredTimeWindow))
		if !models.ValidTimeWindow(window) {
			return nil, apperrors.ErrInvalidTimeWindow
		}
		pref.PreferredTimeWindow = &window
		updates["preferred_time_window"] = window
	case input.ClearTimeWindow:
		pref.PreferredTimeWindow = nil
		updates["preferred_time_window"] = nil
	}

	if len(updates) == 0 {
		return pref, nil
	}

	updates["updated_at"] = s.now()
	pref.UpdatedAt = updates["updated_at"].(time.Time)

	err = s.db.WithContext(ctx).Model(&models.UserPreference{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("preference service: update preferences: %w", err)
	}

	return pref, nil
}

func normalizeList(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			normalized = append(normalized, v)
		}
	}
	return normalized
}
