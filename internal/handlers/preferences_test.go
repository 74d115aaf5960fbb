package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/ivevents/ivevents/internal/auth"
	"github.com/ivevents/ivevents/internal/database/testutil"
	"github.com/ivevents/ivevents/internal/handlers"
	"github.com/ivevents/ivevents/internal/middleware"
	"github.com/ivevents/ivevents/internal/services"
)

type preferenceFixture struct {
	authFixture
	users *services.UserService
}

func newPreferenceFixture(t *testing.T) *preferenceFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clock := newTestClock(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	preferences, err := services.NewPreferenceService(db, clock.Now)
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, iauth.SessionConfig{TTL: time.Hour, Clock: clock.Now})
	require.NoError(t, err)
	resolver, err := iauth.NewResolver(db, clock.Now)
	require.NoError(t, err)

	handler := handlers.NewPreferenceHandler(preferences)
	requireAuth := middleware.RequireAuth(resolver, testCookieName)

	r := gin.New()
	r.GET("/api/me/preferences", requireAuth, handler.Get)
	r.PUT("/api/me/preferences", requireAuth, handler.Update)

	return &preferenceFixture{
		authFixture: authFixture{db: db, clock: clock, router: r, sessions: sessions},
		users:       users,
	}
}

func (f *preferenceFixture) loginAs(t *testing.T, email string) string {
	t.Helper()

	user, err := f.users.FindOrCreateByEmail(context.Background(), email, "Pref Tester")
	require.NoError(t, err)

	session, err := f.sessions.Create(context.Background(), user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	return session.ID
}

type preferencesResponse struct {
	Data struct {
		PreferredTags       []string `json:"preferred_tags"`
		PreferredDays       []string `json:"preferred_days"`
		PreferredTimeWindow *string  `json:"preferred_time_window"`
	} `json:"data"`
}

func TestPreferencesRequireAuth(t *testing.T) {
	f := newPreferenceFixture(t)

	w := f.do(t, http.MethodGet, "/api/me/preferences", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPreferencesDefaults(t *testing.T) {
	f := newPreferenceFixture(t)
	token := f.loginAs(t, "pref@example.com")

	w := f.do(t, http.MethodGet, "/api/me/preferences", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp preferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Data.PreferredTags)
	require.Empty(t, resp.Data.PreferredDays)
	require.Nil(t, resp.Data.PreferredTimeWindow)
}

func TestPreferencesUpdateRoundTrip(t *testing.T) {
	f := newPreferenceFixture(t)
	token := f.loginAs(t, "pref2@example.com")

	w := f.do(t, http.MethodPut, "/api/me/preferences",
		`{"preferred_tags":["Music","tech"],"preferred_days":["saturday"],"preferred_time_window":"Evening"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp preferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, []string{"music", "tech"}, resp.Data.PreferredTags)
	require.Equal(t, []string{"saturday"}, resp.Data.PreferredDays)
	require.NotNil(t, resp.Data.PreferredTimeWindow)
	require.Equal(t, "evening", *resp.Data.PreferredTimeWindow)
}

func TestPreferencesOmittedFieldIsUntouched(t *testing.T) {
	f := newPreferenceFixture(t)
	token := f.loginAs(t, "pref3@example.com")

	w := f.do(t, http.MethodPut, "/api/me/preferences", `{"preferred_time_window":"morning"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	// Absent key: the window stays.
	w = f.do(t, http.MethodPut, "/api/me/preferences", `{"preferred_tags":["art"]}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp preferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.PreferredTimeWindow)
	require.Equal(t, "morning", *resp.Data.PreferredTimeWindow)
}

func TestPreferencesNullClearsTimeWindow(t *testing.T) {
	f := newPreferenceFixture(t)
	token := f.loginAs(t, "pref4@example.com")

	w := f.do(t, http.MethodPut, "/api/me/preferences", `{"preferred_time_window":"night"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	// Explicit null: the window is cleared.
	w = f.do(t, http.MethodPut, "/api/me/preferences", `{"preferred_time_window":null}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp preferencesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Nil(t, resp.Data.PreferredTimeWindow)
}

func TestPreferencesInvalidWindow(t *testing.T) {
	f := newPreferenceFixture(t)
	token := f.loginAs(t, "pref5@example.com")

	w := f.do(t, http.MethodPut, "/api/me/preferences", `{"preferred_time_window":"midnight"}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
