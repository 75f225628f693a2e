// Package events provides the in-process publish/subscribe bus used to push
// ingestion and application updates to realtime subscribers, with optional
// mirroring to Redis for multi-process deployments.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/jobpilot/internal/types"
)

const subscriberBuffer = 64

// Subscription is one registered listener. Events arrive on C until
// Unsubscribe is called; slow consumers have events dropped rather than
// blocking publishers, and the subscription is marked lapsed.
type Subscription struct {
	C      <-chan types.BusEvent
	ch     chan types.BusEvent
	userID int64
	all    bool
	bus    *Bus
	lapsed atomic.Bool
}

// Unsubscribe removes the listener and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s)
}

// Lapsed reports whether the subscriber fell behind and had events dropped.
// A lapsed consumer cannot assume it saw every event and should resync from
// the store. ClearLapsed resets the flag after the resync.
func (s *Subscription) Lapsed() bool { return s.lapsed.Load() }

// ClearLapsed resets the lapsed flag.
func (s *Subscription) ClearLapsed() { s.lapsed.Store(false) }

// Bus fans published events out to subscribers. Broadcast events (zero
// UserID) reach everyone; user-targeted events reach only that user's
// subscriptions and listeners subscribed to all traffic.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	redis   *redis.Client
	channel string
}

// NewBus creates a bus. rdb may be nil; when set, every event is also
// published to the given Redis channel as JSON.
func NewBus(rdb *redis.Client, channel string) *Bus {
	return &Bus{
		subs:    make(map[*Subscription]struct{}),
		redis:   rdb,
		channel: channel,
	}
}

// Subscribe registers a listener for a single user's events plus broadcasts.
func (b *Bus) Subscribe(userID int64) *Subscription {
	return b.add(userID, false)
}

// SubscribeAll registers a listener that receives every event.
func (b *Bus) SubscribeAll() *Subscription {
	return b.add(0, true)
}

func (b *Bus) add(userID int64, all bool) *Subscription {
	ch := make(chan types.BusEvent, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, userID: userID, all: all, bus: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// Publish delivers the event to matching subscribers and mirrors it to
// Redis when configured. Delivery is best effort: a full subscriber buffer
// drops the event for that subscriber.
func (b *Bus) Publish(ctx context.Context, event types.BusEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	b.mu.RLock()
	for sub := range b.subs {
		if !sub.all && event.UserID != 0 && sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			sub.lapsed.Store(true)
			log.Printf("[events] dropping %s event for slow subscriber (user %d)", event.Type, sub.userID)
		}
	}
	b.mu.RUnlock()

	if b.redis != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("[events] failed to marshal event for redis: %v", err)
			return
		}
		if err := b.redis.Publish(ctx, b.channel, payload).Err(); err != nil {
			log.Printf("[events] failed to publish to redis: %v", err)
		}
	}
}

// SubscriberCount reports the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
