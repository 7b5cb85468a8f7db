package listener

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodei/pipelines/pkg/types"
)

func event(execID, msg string) *types.ExecutionEvent {
	return &types.ExecutionEvent{
		ExecutionID: execID,
		Type:        types.EventStatusChanged,
		Message:     msg,
		Timestamp:   time.Now(),
	}
}

func TestStreamDeliveryPreservesOrder(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	sub, err := r.SubscribeStream("exec-1", Options{IncludeEvents: true})
	require.NoError(t, err)

	for _, msg := range []string{"one", "two", "three"} {
		r.NotifyEvent(event("exec-1", msg))
	}

	var got []string
	for i := 0; i < 3; i++ {
		item := <-sub.Items()
		got = append(got, item.Event.Message)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestStreamIncludeFlags(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	sub, err := r.SubscribeStream("exec-1", Options{IncludeOutput: true})
	require.NoError(t, err)

	r.NotifyEvent(event("exec-1", "ignored"))
	r.NotifyOutput(&types.LogChunk{ExecutionID: "exec-1", Data: []byte("hello")})

	item := <-sub.Items()
	require.NotNil(t, item.Output)
	assert.Equal(t, []byte("hello"), item.Output.Data)
}

func TestStreamOverflowDisconnects(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	sub, err := r.SubscribeStream("exec-1", Options{IncludeEvents: true, InboxSize: 2})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r.NotifyEvent(event("exec-1", "x"))
	}

	// Drain until close; the channel must end after the buffered items
	n := 0
	for range sub.Items() {
		n++
	}
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, sub.Err(), types.ErrOverflow)
}

func TestNotifyIgnoresOtherExecutions(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	sub, err := r.SubscribeStream("exec-1", Options{IncludeEvents: true})
	require.NoError(t, err)

	r.NotifyEvent(event("exec-2", "elsewhere"))

	select {
	case item := <-sub.Items():
		t.Fatalf("unexpected delivery: %+v", item)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCleanupExecutionClosesSubscribers(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	sub, err := r.SubscribeStream("exec-1", Options{IncludeEvents: true})
	require.NoError(t, err)

	r.CleanupExecution("exec-1")

	_, open := <-sub.Items()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
}

func TestWebhookDelivery(t *testing.T) {
	var mu sync.Mutex
	var bodies []webhookPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var p webhookPayload
		require.NoError(t, json.NewDecoder(req.Body).Decode(&p))
		mu.Lock()
		bodies = append(bodies, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRegistry()
	_, err := r.SubscribeWebhook("exec-1", srv.URL, Options{IncludeEvents: true, IncludeOutput: true})
	require.NoError(t, err)

	r.NotifyEvent(event("exec-1", "started"))
	r.NotifyOutput(&types.LogChunk{ExecutionID: "exec-1", Data: []byte("line"), Timestamp: time.Now()})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bodies) == 2
	}, 3*time.Second, 20*time.Millisecond)

	r.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "event", bodies[0].Kind)
	assert.Equal(t, "started", bodies[0].Message)
	assert.Equal(t, "output", bodies[1].Kind)
	assert.Equal(t, []byte("line"), bodies[1].Output)
}

func TestWebhookRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRegistry()
	_, err := r.SubscribeWebhook("exec-1", srv.URL, Options{IncludeEvents: true})
	require.NoError(t, err)

	r.NotifyEvent(event("exec-1", "flaky"))

	require.Eventually(t, func() bool {
		return calls.Load() == 3
	}, 5*time.Second, 20*time.Millisecond)

	r.Shutdown()
}

func TestSubscribeValidation(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	_, err := r.SubscribeStream("", Options{})
	assert.True(t, types.IsValidation(err))

	_, err = r.SubscribeWebhook("exec-1", "", Options{})
	assert.True(t, types.IsValidation(err))
}
