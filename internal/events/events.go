// ABOUTME: In-memory fan-out broadcaster for gateway lifecycle events.
// ABOUTME: Publishes to every subscriber without blocking; slow consumers drop.

package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Event types published on the operational stream.
const (
	TypeSessionCreated  = "session.created"
	TypeSessionReady    = "session.ready"
	TypeSessionEvicted  = "session.evicted"
	TypeSessionDeleted  = "session.deleted"
	TypeProviderReady   = "provider.ready"
	TypeProviderFailed  = "provider.failed"
	TypeToolsRegistered = "tools.registered"
)

// Event is one entry on the gateway's operational stream.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Time      time.Time      `json:"time"`
}

// Broadcaster provides in-memory pub/sub for gateway events. There is one
// stream; every subscriber sees every event. Publishing never blocks, so
// a stalled consumer only loses its own events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "events"),
	}
}

// Subscribe registers a subscriber on the stream. Returns the receiving
// channel and a subscription ID for later unsubscription. The subscription
// is automatically cleaned up when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends an event to every subscriber, filling in the id and
// timestamp when unset. Non-blocking: events are dropped for subscribers
// whose channels are full.
func (b *Broadcaster) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}

	// Sends stay under the read lock so Unsubscribe cannot close a channel
	// mid-publish. They never block, so the hold time is bounded.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subID, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"sub_id", subID,
				"event_type", evt.Type,
			)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}
