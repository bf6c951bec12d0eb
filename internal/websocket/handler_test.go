package websocket

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/shared/testutil"
)

func newTestServer(t *testing.T, cfg HandlerConfig, withErrors bool) (*Hub, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := newTestHub(t, Options{}, nil)

	var eh ErrorHandler
	if withErrors {
		eh = apperrors.NewErrorHandler(logger, false)
	}
	srv := httptest.NewServer(NewHandler(hub, cfg, logger, eh))
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_ConnectAndReceive(t *testing.T) {
	hub, srv := newTestServer(t, HandlerConfig{}, true)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeConnection, msg.Type)
	assert.NotEmpty(t, msg.TraceID)

	hub.Broadcast(TypeDatasetReloaded, map[string]interface{}{"rows": 7})
	msg = readMessage(t, conn)
	assert.Equal(t, TypeDatasetReloaded, msg.Type)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  func(srv *httptest.Server) string
		wantOK  bool
	}{
		{"no origin header", nil, func(*httptest.Server) string { return "" }, true},
		{"same host", nil, func(srv *httptest.Server) string { return srv.URL }, true},
		{"listed origin", []string{"http://dashboard.example/"}, func(*httptest.Server) string { return "http://dashboard.example" }, true},
		{"wildcard", []string{"*"}, func(*httptest.Server) string { return "http://anything.example" }, true},
		{"foreign origin", []string{"http://dashboard.example"}, func(*httptest.Server) string { return "http://evil.example" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newTestServer(t, HandlerConfig{AllowedOrigins: tt.allowed}, true)

			header := http.Header{}
			if o := tt.origin(srv); o != "" {
				header.Set("Origin", o)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
			if tt.wantOK {
				require.NoError(t, err)
				conn.Close()
				return
			}

			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), "WEBSOCKET_UPGRADE_FAILED")
		})
	}
}

func TestHandler_PlainRequestRejected(t *testing.T) {
	_, srv := newTestServer(t, HandlerConfig{}, false)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
