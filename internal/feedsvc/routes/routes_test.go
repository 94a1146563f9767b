package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/card-catalog/internal/comm"
	"github.com/avvvet/card-catalog/internal/feedsvc/broker"
	"github.com/avvvet/card-catalog/internal/feedsvc/handlers"
	"github.com/avvvet/card-catalog/internal/feedsvc/ws"
	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeed(t *testing.T) (*ws.Ws, *httptest.Server) {
	t.Helper()
	hub := ws.NewWs()
	r := chi.NewRouter()
	SetRoutes(r, hub, "8081")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFeed_BroadcastsCardEvents(t *testing.T) {
	hub, srv := newFeed(t)
	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	data, err := json.Marshal(&comm.WSMessage{
		Type: comm.EventCardCreated,
		Data: json.RawMessage(`{"id":"1","name":"Charizard"}`),
	})
	require.NoError(t, err)
	broker.NewBroker(nil, hub.Broadcast).HandleMessage(data)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got comm.WSMessage
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, comm.EventCardCreated, got.Type)
		assert.JSONEq(t, `{"id":"1","name":"Charizard"}`, string(got.Data))
	}
}

func TestFeed_PingAndDisconnect(t *testing.T) {
	hub, srv := newFeed(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(&comm.WSMessage{Type: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pong comm.WSMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)
	assert.NotEmpty(t, pong.SocketId)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	var errMsg map[string]string
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg["type"])

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeed_Health(t *testing.T) {
	_, srv := newFeed(t)

	rsp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer rsp.Body.Close()
	require.Equal(t, http.StatusOK, rsp.StatusCode)

	var body handlers.Response
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&body))
	assert.Contains(t, body.Message, "8081")
}
