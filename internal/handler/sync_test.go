package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rationdesk/internal/mw"
	"rationdesk/internal/syncstatus"
)

func TestSyncFeed(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	dialer := websocket.Dialer{Subprotocols: []string{mw.WebSocketProtocol, e.token}}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sync/ws"
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Equal(t, mw.WebSocketProtocol, conn.Subprotocol())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first syncstatus.Status
	require.NoError(t, conn.ReadJSON(&first))
	assert.True(t, first.InSync())

	e.sync.RecordFailure(2, errors.New("remote unreachable"))

	var next syncstatus.Status
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, 2, next.Pending)
	assert.Equal(t, "remote unreachable", next.LastError)
}

func TestSyncFeedRejectsQueryToken(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sync/ws?access_token=" + e.token
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSyncFeedRejectsAnonymous(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sync/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

