package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/workgate/internal/types"
)

type capturedEvent struct {
	path  string
	auth  string
	event types.AuditEvent
}

func newCollector(t *testing.T) (*httptest.Server, func() []capturedEvent) {
	t.Helper()

	var mu sync.Mutex
	var events []capturedEvent

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event types.AuditEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))

		mu.Lock()
		events = append(events, capturedEvent{
			path:  r.URL.Path,
			auth:  r.Header.Get("Authorization"),
			event: event,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	snapshot := func() []capturedEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedEvent(nil), events...)
	}
	return server, snapshot
}

func TestClientDelivery(t *testing.T) {
	server, snapshot := newCollector(t)

	client, err := NewClient(ClientConfig{
		GatewayURL: server.URL,
		APIKey:     "collector-key",
		QueueSize:  16,
		RateLimit:  100,
	})
	require.NoError(t, err)

	client.RecordRequest("user-1", "workplace_search", map[string]interface{}{"query": "okr"})
	client.RecordResponse("user-1", "workplace_search", 42, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Close(ctx))

	events := snapshot()
	require.Len(t, events, 2)

	require.Equal(t, "/api/v1/mcp/requests", events[0].path)
	require.Equal(t, "Bearer collector-key", events[0].auth)
	require.Equal(t, "user-1", events[0].event.UserID)
	require.Equal(t, "workplace_search", events[0].event.ToolName)
	require.Equal(t, "okr", events[0].event.Payload["query"])
	require.NotEmpty(t, events[0].event.ID)
	require.Equal(t, types.ServerName, events[0].event.ServerName)

	require.Equal(t, "/api/v1/mcp/responses", events[1].path)
	require.Equal(t, int64(42), events[1].event.ExecutionTimeMs)
	require.True(t, events[1].event.Success)
	require.NotEqual(t, events[0].event.ID, events[1].event.ID)
}

func TestClientNeverBlocksWhenQueueIsFull(t *testing.T) {
	// A collector that never answers within the test window.
	stall := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-stall
	}))
	t.Cleanup(func() {
		close(stall)
		server.Close()
	})

	client, err := NewClient(ClientConfig{
		GatewayURL:  server.URL,
		QueueSize:   2,
		RateLimit:   1000,
		HTTPTimeout: 30 * time.Second,
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			client.RecordResponse("user-1", "workplace_search", 1, true)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recording blocked on a stalled collector")
	}
	require.Greater(t, client.Dropped(), int64(0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Drain cannot finish while the collector stalls; Close must still
	// return once the context expires.
	_ = client.Close(ctx)
}

func TestClientDeliveryFailureIsAbsorbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{GatewayURL: server.URL, QueueSize: 4, RateLimit: 100})
	require.NoError(t, err)

	client.RecordResponse("user-1", "workplace_search", 10, false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Close(ctx))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
}
