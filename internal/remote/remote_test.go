package remote

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/takeoff/internal/backend"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/store"
	"github.com/alexanderramin/takeoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	database := testutil.NewTestDB(t)
	svc := backend.NewService(database, testutil.NewTestUoW(database))
	var logs bytes.Buffer
	srv := httptest.NewServer(NewServer(svc, slog.New(slog.NewTextHandler(&logs, nil))).Handler())
	t.Cleanup(srv.Close)
	return srv, &logs
}

func TestClient_EventRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv, logs := newTestServer(t)
	c := NewClient(srv.URL+"/", time.Second)

	events, err := c.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)

	in := testutil.NewTestInput("Launch",
		testutil.WithProject("Liftoff"),
		testutil.WithReminder(-15),
		testutil.WithLinks("crm-42", "brief.pdf"),
	)
	saved, err := c.SaveEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.ID, "evt-"))
	assert.Equal(t, "Liftoff", saved.ProjectName())
	require.Len(t, saved.Reminders, 1)
	require.NotNil(t, saved.Links)
	assert.Equal(t, []string{"brief.pdf"}, saved.Links.Files)

	events, err = c.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, saved.ID, events[0].ID)
	assert.True(t, saved.Start.Equal(events[0].Start))

	require.NoError(t, c.DeleteEvent(ctx, saved.ID))
	assert.Contains(t, logs.String(), "http_request")
}

func TestClient_StatusErrors(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	err := c.DeleteEvent(ctx, "evt-missing")
	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Message, "event evt-missing not found")

	in := testutil.NewTestInput("Backwards", testutil.WithSpan(testutil.BaseTime, testutil.BaseTime.Add(-time.Hour)))
	_, err = c.SaveEvent(ctx, in)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)

	_, err = c.ApplyPlan(ctx, domain.PlanDiff{Deleted: []string{"evt-missing"}})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestServer_RejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/events", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClient_Settings(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	got, err := c.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BackendDefaultSettings(), got)

	saved, err := c.SaveSettings(ctx, domain.Settings{DefaultSlotMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, saved.DefaultSlotMinutes)
	assert.Equal(t, "08:00", saved.WorkingHours.Start)
}

func TestClient_ApplyPlan(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	a, err := c.SaveEvent(ctx, testutil.NewTestInput("a"))
	require.NoError(t, err)
	events, err := c.ApplyPlan(ctx, domain.PlanDiff{
		Added:   []domain.Event{*testutil.NewTestEvent("b", testutil.WithEventID(""))},
		Deleted: []string{a.ID},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].Title)
}

func TestClient_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.NoError(t, NewClient(srv.URL, time.Second).Health(context.Background()))
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := NewClient(endpoint, time.Second).ListEvents(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := NewClient(srv.URL, 50*time.Millisecond).GetSettings(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRemoteStoreOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	settings := store.NewRemoteSettingsStore(c)
	require.NoError(t, settings.Load(ctx))
	events := store.NewRemoteEventStore(c, store.WithSettings(settings))
	require.NoError(t, events.Load(ctx))

	e, err := events.Create(ctx, testutil.NewTestInput("Sync", testutil.WithDuration(20*time.Minute)))
	require.NoError(t, err)
	dup, err := events.Duplicate(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "Sync (Copy)", dup.Title)
	assert.Equal(t, 30*time.Minute, dup.End.Sub(dup.Start))

	require.NoError(t, events.Remove(ctx, e.ID))
	fresh := store.NewRemoteEventStore(c)
	require.NoError(t, fresh.Load(ctx))
	assert.Len(t, fresh.All(), 1)
	assert.Equal(t, dup.ID, fresh.All()[0].ID)
}
