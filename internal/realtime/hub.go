package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances.
const DefaultChannel = "pecommunity:changes"

// Hub delivers events to subscriptions. With a Redis client, Publish goes
// through the shared channel and Run delivers what arrives on it, so every
// instance sees every event. Without one, Publish delivers in-process.
//
// Delivery is at-most-once: a subscriber whose buffer is full misses the event.
type Hub struct {
	redis   *redis.Client
	channel string
	buffer  int

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64

	dropped func(Event)

	// Subscribe retry delays while Redis is unreachable.
	minBackoff time.Duration
	maxBackoff time.Duration
	retried    func(attempt int, err error)
}

// NewHub creates a hub. client may be nil.
func NewHub(client *redis.Client, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		redis:   client,
		channel: DefaultChannel,
		buffer:  buffer,
		subs:    make(map[uint64]*Subscription),

		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
}

// OnDrop registers a callback invoked when an event is dropped for a slow subscriber.
func (h *Hub) OnDrop(fn func(Event)) {
	h.dropped = fn
}

// Subscription is one viewer's feed. Close it when the client goes away.
type Subscription struct {
	id     uint64
	viewer Viewer
	events chan Event
	done   chan struct{}
	once   sync.Once
	hub    *Hub
}

// Events returns the channel of visible events.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done is closed when the subscription ends, either by Close or by the hub.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Viewer returns the subscription's viewer.
func (s *Subscription) Viewer() Viewer {
	return s.viewer
}

// Close removes the subscription from the hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Subscribe registers a new subscription for v.
func (h *Hub) Subscribe(v Viewer) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscription{
		id:     h.nextID,
		viewer: v,
		events: make(chan Event, h.buffer),
		done:   make(chan struct{}),
		hub:    h,
	}
	h.subs[s.id] = s
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s.id)
	h.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

// CloseUser ends every subscription of userID and returns how many were closed.
func (h *Hub) CloseUser(userID uuid.UUID) int {
	h.mu.RLock()
	var matched []*Subscription
	for _, s := range h.subs {
		if s.viewer.UserID == userID {
			matched = append(matched, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range matched {
		s.Close()
	}
	return len(matched)
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish sends e to every instance (with Redis) or to local subscribers.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	if h.redis == nil {
		h.deliver(e)
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, h.channel, payload).Err()
}

// Run relays events from the Redis channel to local subscribers until ctx is
// cancelled. Without Redis it just waits for ctx. While Redis is unreachable
// the subscription is retried with exponential backoff; local subscriptions
// stay open meanwhile.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()

	if h.redis == nil {
		<-ctx.Done()
		return nil
	}

	backoff := h.minBackoff
	for attempt := 1; ; attempt++ {
		err := h.relay(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("realtime: redis subscription failed, retrying", "attempt", attempt, "retry_in", backoff, "error", err)
		if h.retried != nil {
			h.retried(attempt, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		backoff *= 2
		if backoff > h.maxBackoff {
			backoff = h.maxBackoff
		}
	}
}

// relay subscribes to the channel and delivers messages until ctx is done or
// the subscription fails. It returns nil only when ctx is done.
func (h *Hub) relay(ctx context.Context) error {
	pubsub := h.redis.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before relaying.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("realtime: redis subscription closed")
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				slog.Warn("realtime: dropping malformed event", "error", err)
				continue
			}
			h.deliver(e)
		}
	}
}

func (h *Hub) deliver(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if !e.VisibleTo(s.viewer) {
			continue
		}
		select {
		case <-s.done:
		case s.events <- e:
		default:
			if h.dropped != nil {
				h.dropped(e)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.Close()
	}
}
