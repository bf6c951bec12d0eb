package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acaipulse/internal/shared/testutil"
)

func newTestHub(t *testing.T, opts Options, recorder Recorder) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(opts, logger, recorder)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, pongWait, opts.PongWait)
	assert.Less(t, opts.PingPeriod, opts.PongWait)
	assert.Equal(t, 256, opts.SendBuffer)

	// a ping period longer than the pong wait is corrected
	opts = Options{PongWait: time.Second, PingPeriod: 2 * time.Second}.withDefaults()
	assert.Equal(t, 900*time.Millisecond, opts.PingPeriod)
}

func TestHub_RegisterSendsConnectionMessage(t *testing.T) {
	recorder := &deltaRecorder{}
	hub := newTestHub(t, Options{}, recorder)

	client := NewClient(hub, newFakeConn(), "trace-1", nil)
	hub.Register(client)

	msg := receive(t, client)
	assert.Equal(t, TypeConnection, msg.Type)
	assert.Equal(t, "trace-1", msg.TraceID)
	assert.NotEmpty(t, msg.Timestamp)

	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.ID(), data["client_id"])

	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, []int64{1}, recorder.recorded())
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := newTestHub(t, Options{}, nil)

	clients := []*Client{
		NewClient(hub, newFakeConn(), "", nil),
		NewClient(hub, newFakeConn(), "", nil),
	}
	for _, c := range clients {
		hub.Register(c)
		receive(t, c)
	}

	hub.Broadcast(TypeDatasetReloaded, map[string]interface{}{"rows": 42})

	for _, c := range clients {
		msg := receive(t, c)
		assert.Equal(t, TypeDatasetReloaded, msg.Type)
		assert.EqualValues(t, 42, msg.Data.(map[string]interface{})["rows"])
	}

	assert.Eventually(t, func() bool {
		return hub.GetHubMetrics()["messages_sent"].(int64) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHub_Unregister(t *testing.T) {
	recorder := &deltaRecorder{}
	hub := newTestHub(t, Options{}, recorder)

	client := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(client)
	receive(t, client)

	hub.Unregister(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok, "send channel should be closed")

	// a second unregister is harmless
	hub.Unregister(client)
	assert.Eventually(t, func() bool {
		return len(recorder.recorded()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{1, -1}, recorder.recorded())
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := newTestHub(t, Options{SendBuffer: 1}, nil)

	// the connection message fills the buffer
	client := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(client)
	assert.Eventually(t, func() bool { return len(client.send) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(TypeDatasetReloaded, nil)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_Stop(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(Options{}, logger, nil)
	hub.Start()
	hub.Start()

	client := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(client)
	receive(t, client)

	hub.Stop()
	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	_, ok := <-client.send
	assert.False(t, ok)

	// registering after stop must not block
	done := make(chan struct{})
	go func() {
		hub.Register(NewClient(hub, newFakeConn(), "", nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register blocked on a stopped hub")
	}
}
