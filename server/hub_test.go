package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habib256/wilderness/progress"
)

func dialWS(t *testing.T, srv *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	// The handshake completes before the handler registers the client;
	// wait for registration so an immediate broadcast is not missed.
	require.Eventually(t, func() bool {
		srv.hub.mu.RLock()
		defer srv.hub.mu.RUnlock()
		return len(srv.hub.clients) > 0
	}, time.Second, 5*time.Millisecond)
	return conn
}

func TestProgressStream(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, srv, ts)
	defer conn.Close()

	sink := srv.hub.sink()
	sink.StartStage(progress.StageErosion, "droplets away")
	sink.Update(progress.StageErosion, 0.5, "halfway", progress.Extras{"droplets": 500})
	sink.CompleteStage(progress.StageErosion, 2*time.Second)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var start wsEvent
	require.NoError(t, conn.ReadJSON(&start))
	assert.Equal(t, "stage_start", start.Type)
	assert.Equal(t, progress.StageErosion, start.Stage)
	assert.Equal(t, "droplets away", start.Message)

	var update wsEvent
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "progress", update.Type)
	assert.Equal(t, 0.5, update.Fraction)
	require.NotNil(t, update.Extras)

	var done wsEvent
	require.NoError(t, conn.ReadJSON(&done))
	assert.Equal(t, "stage_complete", done.Type)
	assert.Equal(t, 2.0, done.ElapsedS)
}

func TestProgressStreamError(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, srv, ts)
	defer conn.Close()

	srv.hub.sink().Error(progress.StageSaving, assert.AnError)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "error", ev.Type)
	assert.NotEmpty(t, ev.Error)
}

func TestBroadcastNeverBlocksOnStalledClient(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, srv, ts)
	defer conn.Close()

	// A client that never reads. Flood well past the per-client buffer
	// and the socket's capacity; the emitting side must finish anyway.
	payload := strings.Repeat("x", 1<<16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sink := srv.hub.sink()
		for i := 0; i < clientSendBuffer*16; i++ {
			sink.Update(progress.StageErosion, 0.5, payload, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}

	// Once its buffer fills the stalled client is dropped.
	require.Eventually(t, func() bool {
		srv.hub.mu.RLock()
		defer srv.hub.mu.RUnlock()
		return len(srv.hub.clients) == 0
	}, 10*time.Second, 20*time.Millisecond)
}

func TestBroadcastDropsClosedClients(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, srv, ts)
	conn.Close()

	// Give the reader goroutine time to reap the closed connection, then
	// a broadcast to nobody must not panic.
	time.Sleep(50 * time.Millisecond)
	srv.hub.sink().Update(progress.StageErosion, 1, "done", nil)

	srv.hub.mu.RLock()
	defer srv.hub.mu.RUnlock()
	assert.Empty(t, srv.hub.clients)
}
