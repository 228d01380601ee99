package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorypro/internal/config"
	"inventorypro/internal/notify"
	"inventorypro/internal/websocket"
)

func newWebSocketServer(t *testing.T, allowedOrigins []string) (*httptest.Server, *websocket.Hub) {
	t.Helper()
	hub := websocket.NewHub(quietLogger())
	hub.Start()
	t.Cleanup(hub.Stop)

	h := NewWebSocketHandler(hub, config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PongWait:        time.Minute,
	}, allowedOrigins, quietLogger())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketHandler_ReceivesToasts(t *testing.T) {
	srv, hub := newWebSocketServer(t, nil)

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello websocket.Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, websocket.TypeConnection, hello.Type)

	notifier := notify.NewHubNotifier(hub, time.Minute, quietLogger())
	defer notifier.Close()
	notifier.Notify(context.Background(), config.MsgExportSuccessful, notify.Success)

	var toast struct {
		Type string              `json:"type"`
		Data notify.Notification `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&toast))
	assert.Equal(t, websocket.TypeToast, toast.Type)
	assert.Equal(t, config.MsgExportSuccessful, toast.Data.Message)
	assert.Equal(t, notify.Success, toast.Data.Severity)
}

func TestWebSocketHandler_RejectsOrigin(t *testing.T) {
	srv, _ := newWebSocketServer(t, []string{"http://inventory.local"})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := gorillaws.DefaultDialer.Dial(wsURL(srv), header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketHandler_AllowsListedOrigin(t *testing.T) {
	srv, _ := newWebSocketServer(t, []string{"http://inventory.local"})

	header := http.Header{"Origin": []string{"http://INVENTORY.local"}}
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL(srv), header)

	require.NoError(t, err)
	conn.Close()
}
