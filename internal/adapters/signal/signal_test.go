package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavrk/beam/internal/app"
	"github.com/mavrk/beam/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:             "release",
		ReadLimit:        32768,
		PingPeriod:       54 * time.Second,
		SendBuffer:       64,
		RingTimeout:      time.Minute,
		ChatRateLimit:    100,
		ChatRateInterval: time.Second,
	}
}

// newTestServer exposes the controller behind a route that takes the
// user id from the query string instead of the cookie middleware.
func newTestServer(t *testing.T) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	orch := app.Build(cfg, app.StaticFollowers{}, app.LogBilling{})
	ctl := NewWSController(orch, app.TokenIdentity{}, cfg)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", c.Query("uid"))
		ctl.HandleWS(context.Background(), c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, orch
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=" + uid
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(v))
}

// readUntil drains frames until one matches the wanted type, skipping
// presence pushes and other interleaved traffic.
func readUntil(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, ws.SetReadDeadline(deadline))
	for {
		var m map[string]any
		require.NoError(t, ws.ReadJSON(&m), "waiting for %q", typ)
		if m["type"] == typ {
			return m
		}
	}
}

func readNotification(t *testing.T, ws *websocket.Conn, kind string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, ws.SetReadDeadline(deadline))
	for {
		var m map[string]any
		require.NoError(t, ws.ReadJSON(&m), "waiting for notification %q", kind)
		if m["type"] == "notification" && m["kind"] == kind {
			return m
		}
	}
}

func TestWS_CallFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	// both must appear online before the call request can succeed
	for {
		m := readUntil(t, alice, "presence")
		var online []string
		raw, _ := json.Marshal(m["online"])
		_ = json.Unmarshal(raw, &online)
		if len(online) == 2 {
			break
		}
	}

	send(t, alice, map[string]any{"type": "request-call", "callee": "bob", "rate_per_minute": 100})

	state := readUntil(t, alice, "call_state")
	session := state["session"].(map[string]any)
	assert.Equal(t, "requested", session["state"])

	notif := readNotification(t, bob, "call-request")
	payload := notif["payload"].(map[string]any)
	sessionID := payload["id"].(string)
	require.NotEmpty(t, sessionID)

	send(t, bob, map[string]any{"type": "accept-call", "session_id": sessionID})

	for {
		m := readUntil(t, alice, "call_state")
		s := m["session"].(map[string]any)
		if s["state"] == "active" {
			break
		}
	}

	t.Run("signaling relays between the parties", func(t *testing.T) {
		send(t, alice, map[string]any{
			"type": "signal", "to": "bob", "kind": "offer",
			"payload": map[string]any{"sdp": "v=0"},
		})
		m := readUntil(t, bob, "signal")
		env := m["envelope"].(map[string]any)
		assert.Equal(t, "alice", env["from"])
		assert.Equal(t, "offer", env["kind"])
		assert.Equal(t, float64(1), env["sequence"])
	})

	send(t, alice, map[string]any{"type": "end-call", "session_id": sessionID})
	for {
		m := readUntil(t, bob, "call_state")
		s := m["session"].(map[string]any)
		if s["state"] == "ended" {
			break
		}
	}
}

func TestWS_CallOfflineCallee(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dial(t, srv, "alice")

	send(t, alice, map[string]any{"type": "request-call", "callee": "ghost", "rate_per_minute": 100})
	m := readUntil(t, alice, "error")
	assert.Equal(t, "RECIPIENT_OFFLINE", m["code"])
}

func TestWS_StreamFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	streamer := dial(t, srv, "streamer")
	viewer := dial(t, srv, "viewer")

	send(t, streamer, map[string]any{"type": "start-stream"})
	readUntil(t, streamer, "stream_started")

	send(t, viewer, map[string]any{"type": "join-stream", "stream_id": "streamer"})
	readUntil(t, viewer, "stream_joined")

	t.Run("chat fans out to the audience", func(t *testing.T) {
		send(t, viewer, map[string]any{"type": "chat-message", "stream_id": "streamer", "text": "hello"})
		m := readUntil(t, streamer, "stream_chat")
		assert.Equal(t, "hello", m["text"])
		assert.Equal(t, "viewer", m["sender_id"])
	})

	t.Run("tip reaches streamer as broadcast and notification", func(t *testing.T) {
		send(t, viewer, map[string]any{"type": "send-tip", "stream_id": "streamer", "amount": 200})
		m := readUntil(t, streamer, "stream_tip")
		assert.Equal(t, float64(200), m["amount"])
		readNotification(t, streamer, "tip-received")
	})

	send(t, streamer, map[string]any{"type": "stop-stream"})
	readNotification(t, viewer, "stream-ended")
}

func TestWS_PingPong(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dial(t, srv, "alice")

	send(t, alice, map[string]any{"type": "ping"})
	readUntil(t, alice, "pong")
}
