package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dialTestConnection opens a real websocket pair; the server side holds the
// connection until the test ends.
func dialTestConnection(t *testing.T) *Connection {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	wsConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return NewConnection("CB-1", wsConn, nil, time.Second, 0, zap.NewNop(), nil)
}

func (c *Connection) pendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

func TestSendCallAfterCleanupReturnsError(t *testing.T) {
	c := dialTestConnection(t)
	c.cleanup()

	var invoked bool
	err := c.SendCall("RemoteStopTransaction", map[string]int{"transactionId": 1}, func(json.RawMessage, error) {
		invoked = true
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
	assert.False(t, invoked)
	assert.Equal(t, 0, c.pendingCount())
}

func TestSendCallBufferFullDeregistersCallback(t *testing.T) {
	c := dialTestConnection(t)
	// No write pump running, so the buffer never drains.
	for i := 0; i < cap(c.send); i++ {
		c.Send([]byte("{}"))
	}

	var invoked bool
	err := c.SendCall("Heartbeat", struct{}{}, func(json.RawMessage, error) {
		invoked = true
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer")
	assert.False(t, invoked)
	assert.Equal(t, 0, c.pendingCount())
}

// Racing a dispatch against a disconnect must never reach the closed send
// channel: either the call is enqueued before the teardown and its callback is
// drained with an error, or SendCall observes the closed connection and
// returns an error without registering anything.
func TestSendCallCleanupRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := dialTestConnection(t)

		var invoked atomic.Bool
		var sendErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.cleanup()
		}()
		go func() {
			defer wg.Done()
			sendErr = c.SendCall("Heartbeat", struct{}{}, func(_ json.RawMessage, err error) {
				invoked.Store(true)
			})
		}()
		wg.Wait()

		if sendErr != nil {
			assert.False(t, invoked.Load())
		} else {
			assert.True(t, invoked.Load())
		}
		assert.Equal(t, 0, c.pendingCount())
	}
}
