package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/model"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := Audience
		if r.URL.Query().Get("scope") == "artist" {
			scope = Artist
		}
		_ = hub.ServeWS(w, r, r.URL.Query().Get("show"), "", scope)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, showID string, scope Scope) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?show=" + showID + "&scope=" + scope.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubDeliversOnlyToFollowersOfTheShow(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "show-a", Audience)
	b := dial(t, srv, "show-b", Audience)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("show-a") == 1 && hub.ConnectionCount("show-b") == 1
	}, 2*time.Second, 10*time.Millisecond)

	ev := model.ChangeEvent{Entity: model.EntityRequest, ID: "r1", ShowID: "show-a", NewState: "accepted",
		At: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)}
	require.NoError(t, hub.Publish(context.Background(), ev))

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := a.ReadMessage()
	require.NoError(t, err)
	var got model.ChangeEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ev, got)

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "show-b must not receive show-a events")
}

func readEvent(t *testing.T, conn *websocket.Conn) model.ChangeEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev model.ChangeEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHubKeepsFlaggedRequestsFromAudience(t *testing.T) {
	hub, srv := startHub(t)
	fan := dial(t, srv, "show-a", Audience)
	dashboard := dial(t, srv, "show-a", Artist)
	require.Eventually(t, func() bool { return hub.ConnectionCount("show-a") == 2 }, 2*time.Second, 10*time.Millisecond)

	at := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	pos := 1
	held := model.ChangeEvent{Entity: model.EntityRequest, ID: "r1", ShowID: "show-a", NewState: "pending",
		Flagged: true, Position: &pos, At: at}
	approved := held
	approved.Flagged = false
	live := model.ChangeEvent{Entity: model.EntityShow, ID: "show-a", ShowID: "show-a", NewState: "paused", At: at}

	require.NoError(t, hub.Publish(context.Background(), held))
	require.NoError(t, hub.Publish(context.Background(), approved))
	require.NoError(t, hub.Publish(context.Background(), live))

	assert.Equal(t, held, readEvent(t, dashboard))
	assert.Equal(t, approved, readEvent(t, dashboard))
	assert.Equal(t, live, readEvent(t, dashboard))

	// Events arrive in publish order, so the first one a fan sees proves the
	// held event was skipped.
	assert.Equal(t, approved, readEvent(t, fan))
	assert.Equal(t, live, readEvent(t, fan))
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "show-a", Audience)
	require.Eventually(t, func() bool { return hub.ConnectionCount("show-a") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount("show-a") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.Discard())
	ev := model.ChangeEvent{Entity: model.EntityShow, ID: "s", ShowID: "s"}
	for i := 0; i < cap(hub.broadcast); i++ {
		require.NoError(t, hub.Publish(context.Background(), ev))
	}
	assert.ErrorIs(t, hub.Publish(context.Background(), ev), ErrHubBusy)
}
