package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameba1399/mes-signaling/internal/server"
	"github.com/ameba1399/mes-signaling/internal/signaling"
)

func newTestServer(t *testing.T, cfg server.Config) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := signaling.NewHub(logger)
	srv := httptest.NewServer(server.Routes(hub, cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var m map[string]any
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

// TestCallSetupScenario walks the full call-setup flow: join, discover,
// chat, exchange an offer, disconnect.
func TestCallSetupScenario(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	alice := dial(t, srv, "room=lobby&user=Alice")
	state := readJSON(t, alice)
	require.Equal(t, "room-state", state["type"])
	aliceID, _ := state["selfId"].(string)
	require.NotEmpty(t, aliceID)
	assert.Equal(t, "Alice", state["name"])
	assert.Empty(t, state["peers"])

	bob := dial(t, srv, "room=lobby&user=Bob")

	// Alice hears about Bob.
	join := readJSON(t, alice)
	require.Equal(t, "peer-join", join["type"])
	assert.Equal(t, "Bob", join["name"])
	bobID, _ := join["userId"].(string)
	require.NotEmpty(t, bobID)

	// Bob's snapshot lists Alice only.
	state = readJSON(t, bob)
	require.Equal(t, "room-state", state["type"])
	assert.Equal(t, bobID, state["selfId"])
	peers := state["peers"].([]any)
	require.Len(t, peers, 1)
	assert.Equal(t, aliceID, peers[0].(map[string]any)["userId"])

	// Chat echoes to the whole room, sender included.
	require.NoError(t, alice.WriteJSON(map[string]any{"type": "chat-message", "text": "hi"}))
	for _, conn := range []*websocket.Conn{alice, bob} {
		chat := readJSON(t, conn)
		require.Equal(t, "chat-message", chat["type"])
		assert.Equal(t, aliceID, chat["from"])
		assert.Equal(t, "Alice", chat["name"])
		assert.Equal(t, "hi", chat["text"])
	}

	// An offer goes to Bob alone, payload untouched.
	require.NoError(t, alice.WriteJSON(map[string]any{
		"type":   "webrtc-offer",
		"target": bobID,
		"signal": map[string]any{"sdp": "v=0"},
	}))
	offer := readJSON(t, bob)
	require.Equal(t, "webrtc-offer", offer["type"])
	assert.Equal(t, aliceID, offer["from"])
	assert.Equal(t, "v=0", offer["signal"].(map[string]any)["sdp"])

	// Control events reach everyone but the sender.
	require.NoError(t, alice.WriteJSON(map[string]any{"type": "control", "muted": true}))
	ctrl := readJSON(t, bob)
	require.Equal(t, "control", ctrl["type"])
	assert.Equal(t, aliceID, ctrl["from"])
	assert.Equal(t, true, ctrl["muted"])

	// Alice saw none of that; her next frame is the pong she asks for.
	require.NoError(t, alice.WriteJSON(map[string]any{"type": "ping"}))
	pong := readJSON(t, alice)
	assert.Equal(t, "pong", pong["type"])

	// Abrupt disconnect still yields exactly one peer-leave.
	alice.Close()
	leave := readJSON(t, bob)
	require.Equal(t, "peer-leave", leave["type"])
	assert.Equal(t, aliceID, leave["userId"])

	require.NoError(t, bob.WriteJSON(map[string]any{"type": "get-peers"}))
	state = readJSON(t, bob)
	require.Equal(t, "room-state", state["type"])
	assert.Empty(t, state["peers"])
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	conn := dial(t, srv, "room=lobby&user=Alice")
	readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"no type"}`)))

	// The connection survives; later messages still route.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	pong := readJSON(t, conn)
	assert.Equal(t, "pong", pong["type"])
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	conn := dial(t, srv, "room=lobby&user=Alice")
	readJSON(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "teleport"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	pong := readJSON(t, conn)
	assert.Equal(t, "pong", pong["type"])
}

func TestGuestNamePlaceholder(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	conn := dial(t, srv, "room=lobby")
	state := readJSON(t, conn)
	require.Equal(t, "room-state", state["type"])
	name, _ := state["name"].(string)
	assert.NotEmpty(t, name, "a connection without a display name gets a placeholder")
}

func TestOriginCheck(t *testing.T) {
	srv := newTestServer(t, server.Config{
		AllowedOrigins: []string{"https://app.example.com"},
	})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room=lobby"

	_, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{
		"Origin": {"https://evil.example.com"},
	})
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{
		"Origin": {"https://app.example.com"},
	})
	require.NoError(t, err)
	conn.Close()
}

func TestHealthReportsRegistryStats(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	conn := dial(t, srv, "room=lobby&user=Alice")
	readJSON(t, conn) // registration is complete once room-state arrives

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(1), health["rooms"])
	assert.Equal(t, float64(1), health["participants"])
}
