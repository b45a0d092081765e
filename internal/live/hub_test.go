package live

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := chi.NewRouter()
	r.Get("/tournaments/{id}/ws", hub.ServeWs)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNotifyReachesOnlyTheTournamentRoom(t *testing.T) {
	hub, srv := startHub(t)

	watcher := dial(t, srv, "/tournaments/7/ws")
	other := dial(t, srv, "/tournaments/8/ws")
	require.Eventually(t, func() bool {
		return hub.Clients(Room(7)) == 1 && hub.Clients(Room(8)) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Notify(7, "MATCH_REPORTED", map[string]int{"match_id": 3})

	require.NoError(t, watcher.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := watcher.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
		RoomID  string         `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "MATCH_REPORTED", msg.Type)
	assert.Equal(t, 3, msg.Payload["match_id"])
	assert.Equal(t, "tournament_7", msg.RoomID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "a different room must not receive the event")
}

func TestClientLeavingClosesRoom(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "/tournaments/1/ws")
	require.Eventually(t, func() bool { return hub.Clients(Room(1)) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients(Room(1)) == 0 }, time.Second, 10*time.Millisecond)

	hub.Notify(1, "ROUND_GENERATED", nil)
}

func TestServeWsRejectsBadID(t *testing.T) {
	_, srv := startHub(t)

	resp, err := http.Get(srv.URL + "/tournaments/abc/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
