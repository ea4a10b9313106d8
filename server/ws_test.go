package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestWebSocketObserver(t *testing.T) {
	f := newFixture(t)
	gameID := f.createGame(t)
	_, token := f.join(t, gameID, "Alice")

	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	// The first frame is always a snapshot of the current state
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "snapshot", env["name"])

	state := env["state"].(map[string]any)
	assert.Equal(t, gameID, state["id"])

	// Subsequent game events are forwarded as they happen
	f.join(t, gameID, "Bob")

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "player_joined", env["name"])
}

func TestWebSocketRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)

	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "bogus"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
