package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Delivers(t *testing.T) {
	received := make(chan Notification, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/notifications", r.URL.Path)

		var n Notification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		received <- n
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	defer d.Close()

	d.Send(Notification{
		UserID:   "driver-1",
		Type:     "delivery_assignment",
		Title:    "New Delivery Assigned",
		Channels: []string{ChannelInApp, ChannelPush},
	})

	select {
	case n := <-received:
		assert.Equal(t, "driver-1", n.UserID)
		assert.Equal(t, "delivery_assignment", n.Type)
		assert.Equal(t, []string{"in_app", "push"}, n.Channels)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestDispatcher_RetriesOnServerError(t *testing.T) {
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	d.Send(Notification{UserID: "u1", Type: "earnings_created"})
	d.Close()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDispatcher_SendNeverBlocks(t *testing.T) {
	// No server: deliveries fail, but Send must stay non-blocking even with a
	// backlog well past the queue size.
	d := NewDispatcher("http://127.0.0.1:0")

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*2; i++ {
			d.Send(Notification{UserID: "u", Type: "delivery_update"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a full queue")
	}
}
