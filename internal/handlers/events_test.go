package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
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

type eventFixture struct {
	authFixture
	users *services.UserService
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clock := newTestClock(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	events, err := services.NewEventService(db, clock.Now)
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, iauth.SessionConfig{TTL: time.Hour, Clock: clock.Now})
	require.NoError(t, err)
	resolver, err := iauth.NewResolver(db, clock.Now)
	require.NoError(t, err)

	requireAuth := middleware.RequireAuth(resolver, testCookieName)
	optionalAuth := middleware.OptionalAuth(resolver, testCookieName)

	eventHandler := handlers.NewEventHandler(events)

	r := gin.New()
	r.GET("/api/events", optionalAuth, eventHandler.List)
	r.POST("/api/events", requireAuth, eventHandler.Create)
	r.GET("/api/events/mine", requireAuth, eventHandler.Mine)
	r.GET("/api/events/:id", optionalAuth, eventHandler.Get)
	r.POST("/api/events/:id/rsvp", requireAuth, eventHandler.RSVP)

	return &eventFixture{
		authFixture: authFixture{db: db, clock: clock, router: r, sessions: sessions},
		users:       users,
	}
}

func (f *eventFixture) loginAs(t *testing.T, email string) string {
	t.Helper()

	user, err := f.users.FindOrCreateByEmail(context.Background(), email, "Tester")
	require.NoError(t, err)

	session, err := f.sessions.Create(context.Background(), user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	return session.ID
}

func (f *eventFixture) createEvent(t *testing.T, token, title string, startsAt time.Time) string {
	t.Helper()

	body := fmt.Sprintf(`{"title":%q,"starts_at":%q}`, title, startsAt.Format(time.RFC3339))
	w := f.do(t, http.MethodPost, "/api/events", body, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestCreateEventRequiresAuth(t *testing.T) {
	f := newEventFixture(t)

	w := f.do(t, http.MethodPost, "/api/events", `{"title":"Nope","starts_at":"2026-08-01T18:00:00Z"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateEventValidatesTimes(t *testing.T) {
	f := newEventFixture(t)
	token := f.loginAs(t, "host@example.com")

	w := f.do(t, http.MethodPost, "/api/events", `{"title":"Bad time","starts_at":"tomorrow"}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/events", `{"title":"No time"}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventFeedIsPublic(t *testing.T) {
	f := newEventFixture(t)
	token := f.loginAs(t, "host@example.com")

	f.createEvent(t, token, "Open mic", f.clock.Now().Add(24*time.Hour))

	w := f.do(t, http.MethodGet, "/api/events", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Events []struct {
				Event struct {
					Title string `json:"title"`
				} `json:"event"`
				MyRSVP *string `json:"my_rsvp"`
			} `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Events, 1)
	require.Equal(t, "Open mic", resp.Data.Events[0].Event.Title)
	require.Nil(t, resp.Data.Events[0].MyRSVP)
}

func TestEventFeedMineRequiresAuth(t *testing.T) {
	f := newEventFixture(t)

	w := f.do(t, http.MethodGet, "/api/events?mine=1", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventFeedRejectsBadLimit(t *testing.T) {
	f := newEventFixture(t)

	w := f.do(t, http.MethodGet, "/api/events?limit=abc", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventDetailAndRSVP(t *testing.T) {
	f := newEventFixture(t)
	host := f.loginAs(t, "host@example.com")
	guest := f.loginAs(t, "guest@example.com")

	eventID := f.createEvent(t, host, "Workshop", f.clock.Now().Add(24*time.Hour))

	rsvp := f.do(t, http.MethodPost, "/api/events/"+eventID+"/rsvp", `{"status":"maybe"}`, guest)
	require.Equal(t, http.StatusOK, rsvp.Code)

	detail := f.do(t, http.MethodGet, "/api/events/"+eventID, "", guest)
	require.Equal(t, http.StatusOK, detail.Code)

	var resp struct {
		Data struct {
			Participants    []json.RawMessage `json:"participants"`
			MyParticipation *struct {
				RSVPStatus string `json:"rsvp_status"`
			} `json:"my_participation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(detail.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Participants, 2)
	require.NotNil(t, resp.Data.MyParticipation)
	require.Equal(t, "maybe", resp.Data.MyParticipation.RSVPStatus)
}

func TestEventDetailInvalidID(t *testing.T) {
	f := newEventFixture(t)

	w := f.do(t, http.MethodGet, "/api/events/not-a-uuid", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventDetailNotFound(t *testing.T) {
	f := newEventFixture(t)

	w := f.do(t, http.MethodGet, "/api/events/0e7a9a6e-0000-4000-8000-000000000000", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRSVPInvalidStatus(t *testing.T) {
	f := newEventFixture(t)
	host := f.loginAs(t, "host@example.com")

	eventID := f.createEvent(t, host, "Strict", f.clock.Now().Add(24*time.Hour))

	w := f.do(t, http.MethodPost, "/api/events/"+eventID+"/rsvp", `{"status":"attending"}`, host)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsMine(t *testing.T) {
	f := newEventFixture(t)
	host := f.loginAs(t, "host@example.com")

	f.createEvent(t, host, "My event", f.clock.Now().Add(24*time.Hour))

	w := f.do(t, http.MethodGet, "/api/events/mine", "", host)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Created       []json.RawMessage `json:"created"`
			Participating []json.RawMessage `json:"participating"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Created, 1)
	require.Len(t, resp.Data.Participating, 1)
}
