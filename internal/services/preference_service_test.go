package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ivevents/ivevents/internal/database/testutil"
	"github.com/ivevents/ivevents/internal/models"
	"github.com/ivevents/ivevents/internal/services"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
)

func strptr(s string) *string { return &s }

func TestPreferencesDefaultRow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := services.NewPreferenceService(db, nil)
	require.NoError(t, err)

	user := createEventTestUser(t, db, "pref@example.com")

	pref, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, pref.UserID)
	require.Empty(t, []string(pref.PreferredTags))
	require.Empty(t, []string(pref.PreferredDays))
	require.Nil(t, pref.PreferredTimeWindow)

	// Reading twice materialises exactly one row.
	_, err = svc.Get(context.Background(), user.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserPreference{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPreferencesUpdate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := newTestClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))

	svc, err := services.NewPreferenceService(db, clock.Now)
	require.NoError(t, err)

	user := createEventTestUser(t, db, "pref2@example.com")

	tags := []string{"  Music ", "tech", "", "MUSIC"}
	days := []string{"Saturday", " sunday "}
	pref, err := svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{
		PreferredTags:       &tags,
		PreferredDays:       &days,
		PreferredTimeWindow: strptr("Evening"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"music", "tech", "music"}, []string(pref.PreferredTags))
	require.Equal(t, []string{"saturday", "sunday"}, []string(pref.PreferredDays))
	require.NotNil(t, pref.PreferredTimeWindow)
	require.Equal(t, "evening", *pref.PreferredTimeWindow)

	stored, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"music", "tech", "music"}, []string(stored.PreferredTags))
	require.Equal(t, "evening", *stored.PreferredTimeWindow)
}

func TestPreferencesPartialUpdate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	clock := newTestClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))

	svc, err := services.NewPreferenceService(db, clock.Now)
	require.NoError(t, err)

	user := createEventTestUser(t, db, "pref3@example.com")

	tags := []string{"art"}
	_, err = svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{
		PreferredTags:       &tags,
		PreferredTimeWindow: strptr("morning"),
	})
	require.NoError(t, err)

	// Omitted fields are left untouched.
	days := []string{"friday"}
	pref, err := svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{
		PreferredDays: &days,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"art"}, []string(pref.PreferredTags))
	require.Equal(t, []string{"friday"}, []string(pref.PreferredDays))
	require.Equal(t, "morning", *pref.PreferredTimeWindow)
}

func TestPreferencesClearTimeWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := services.NewPreferenceService(db, nil)
	require.NoError(t, err)

	user := createEventTestUser(t, db, "pref4@example.com")

	_, err = svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{
		PreferredTimeWindow: strptr("night"),
	})
	require.NoError(t, err)

	pref, err := svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{
		ClearTimeWindow: true,
	})
	require.NoError(t, err)
	require.Nil(t, pref.PreferredTimeWindow)

	stored, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.PreferredTimeWindow)
}

func TestPreferencesInvalidTimeWindow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := services.NewPreferenceService(db, nil)
	require.NoError(t, err)

	user := createEventTestUser(t, db, "pref5@example.com")

	_, err = svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{
		PreferredTimeWindow: strptr("midnight"),
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidTimeWindow)
}

func TestPreferencesEmptyUpdateIsNoOp(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := services.NewPreferenceService(db, nil)
	require.NoError(t, err)

	user := createEventTestUser(t, db, "pref6@example.com")

	before, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)

	after, err := svc.Update(context.Background(), user.ID, services.UpdatePreferencesInput{})
	require.NoError(t, err)
	require.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}
