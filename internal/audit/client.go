package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ca-srg/workgate/internal/types"
)

const (
	requestsPath  = "/api/v1/mcp/requests"
	responsesPath = "/api/v1/mcp/responses"
)

// Sink records audit events. Every implementation must be best-effort:
// recording never blocks the caller and never returns an error to it.
type Sink interface {
	RecordRequest(userID, toolName string, payload map[string]interface{})
	RecordResponse(userID, toolName string, executionTimeMs int64, success bool)
}

// NopSink discards all events. Used when no collector is configured.
type NopSink struct{}

func (NopSink) RecordRequest(string, string, map[string]interface{}) {}
func (NopSink) RecordResponse(string, string, int64, bool)           {}

// ClientConfig holds audit collector settings
type ClientConfig struct {
	GatewayURL  string
	APIKey      string
	QueueSize   int
	RateLimit   int
	HTTPTimeout time.Duration
}

type queuedEvent struct {
	path  string
	event *types.AuditEvent
}

// Client ships audit events to an external collector asynchronously. Events
// are queued on a bounded channel and posted by a single background worker
// under a rate limiter; when the queue is full new events are dropped and
// counted, so a slow or dead collector can never stall request handling.
type Client struct {
	gatewayURL string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	queue     chan queuedEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewClient creates an audit client and starts its delivery worker
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("audit gateway URL cannot be empty")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 50
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	c := &Client{
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
		logger:     log.New(log.Writer(), "[Audit] ", log.LstdFlags),
		queue:      make(chan queuedEvent, cfg.QueueSize),
	}

	c.wg.Add(1)
	go c.deliver()

	return c, nil
}

// RecordRequest queues an audit event for an incoming tool call
func (c *Client) RecordRequest(userID, toolName string, payload map[string]interface{}) {
	c.enqueue(requestsPath, &types.AuditEvent{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		UserID:        userID,
		ToolName:      toolName,
		Payload:       payload,
		Success:       true,
		ServerName:    types.ServerName,
		ServerVersion: types.ServerVersion,
	})
}

// RecordResponse queues an audit event for a completed tool call
func (c *Client) RecordResponse(userID, toolName string, executionTimeMs int64, success bool) {
	c.enqueue(responsesPath, &types.AuditEvent{
		ID:              uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		UserID:          userID,
		ToolName:        toolName,
		ExecutionTimeMs: executionTimeMs,
		Success:         success,
		ServerName:      types.ServerName,
		ServerVersion:   types.ServerVersion,
	})
}

// enqueue hands an event to the worker without ever blocking
func (c *Client) enqueue(path string, event *types.AuditEvent) {
	select {
	case c.queue <- queuedEvent{path: path, event: event}:
	default:
		if n := c.dropped.Add(1); n == 1 || n%100 == 0 {
			c.logger.Printf("queue full, dropped %d events so far", n)
		}
	}
}

// Dropped returns the number of events discarded because the queue was full
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for queued ones to drain, up to the
// context deadline.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		close(c.queue)
	})

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit drain interrupted: %w", ctx.Err())
	}
}

func (c *Client) deliver() {
	defer c.wg.Done()

	for item := range c.queue {
		// The limiter paces delivery; a background context is fine because
		// the burst is sized to the rate and Wait never parks for long.
		if err := c.limiter.Wait(context.Background()); err != nil {
			continue
		}
		if err := c.post(item.path, item.event); err != nil {
			c.logger.Printf("event delivery failed: %v", err)
		}
	}
}

func (c *Client) post(path string, event *types.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("collector request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}
