package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sparrow-parcel/internal/core/httpclient"
	"sparrow-parcel/internal/core/logger"

	"go.uber.org/zap"
)

// Delivery channels understood by the notification service.
const (
	ChannelInApp = "in_app"
	ChannelPush  = "push"
	ChannelEmail = "email"
)

// Notification is the payload posted to the notification service.
type Notification struct {
	UserID     string   `json:"userId"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	EntityType string   `json:"entityType"`
	EntityID   string   `json:"entityId"`
	Channels   []string `json:"channels"`
}

// Sender is the port feature services use to emit notifications.
// Implementations must be best-effort and non-blocking: a failed or dropped
// notification never affects the operation that produced it.
type Sender interface {
	Send(n Notification)
}

const (
	queueSize      = 256
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
	requestTimeout = 5 * time.Second
)

// Dispatcher delivers notifications asynchronously through a bounded queue and
// a single worker with a fixed retry budget.
type Dispatcher struct {
	baseURL string
	client  *http.Client
	queue   chan Notification
	wg      sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher creates a Dispatcher and starts its delivery worker.
func NewDispatcher(baseURL string) *Dispatcher {
	d := &Dispatcher{
		baseURL: baseURL,
		client:  httpclient.NewClient(requestTimeout),
		queue:   make(chan Notification, queueSize),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Send enqueues a notification without blocking. When the queue is full the
// notification is dropped and logged.
func (d *Dispatcher) Send(n Notification) {
	select {
	case d.queue <- n:
	default:
		logger.Get().Warn("Notification queue full, dropping",
			zap.String("type", n.Type),
			zap.String("user_id", n.UserID),
		)
	}
}

// Close stops accepting notifications and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := d.post(n)
		if err == nil {
			return
		}

		logger.Get().Warn("Notification delivery failed",
			zap.String("type", n.Type),
			zap.String("user_id", n.UserID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	logger.Get().Error("Notification dropped after retries",
		zap.String("type", n.Type),
		zap.String("user_id", n.UserID),
	)
}

func (d *Dispatcher) post(n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/api/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}
	return nil
}
