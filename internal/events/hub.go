package events

import (
	"log/slog"
	"sync"

	"github.com/spawnguard/spawnguard/internal/model"
)

const subscriberBuffer = 64

// Subscriber is a single listener on the gate event stream
type Subscriber struct {
	events chan model.GateEvent
}

// Events returns the channel gate events are delivered on.
// The channel is closed when the subscriber is unregistered or the hub
// shuts down.
func (s *Subscriber) Events() <-chan model.GateEvent {
	return s.events
}

// Hub fans gate events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	subscribers map[*Subscriber]bool
	mu          sync.RWMutex
	logger      *slog.Logger

	register   chan *Subscriber
	unregister chan *Subscriber
	publish    chan model.GateEvent
	done       chan struct{}
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		logger:      logger.With(slog.String("component", "events")),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		publish:     make(chan model.GateEvent, 256),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("event hub started")
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Info("subscriber registered", slog.Int("total_subscribers", count))

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.events)
			}
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Info("subscriber unregistered", slog.Int("total_subscribers", count))

		case event := <-h.publish:
			h.mu.RLock()
			dropped := 0
			for sub := range h.subscribers {
				select {
				case sub.events <- event:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("event dropped - subscriber buffer full",
					slog.String("type", string(event.Type)),
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			count := len(h.subscribers)
			for sub := range h.subscribers {
				close(sub.events)
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			h.logger.Info("event hub stopped", slog.Int("disconnected_subscribers", count))
			return
		}
	}
}

// Subscribe registers a new listener on the event stream
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{events: make(chan model.GateEvent, subscriberBuffer)}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.events)
	}
	return sub
}

// Unsubscribe removes a listener and closes its channel
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish sends an event to all subscribers without blocking
func (h *Hub) Publish(event model.GateEvent) {
	select {
	case h.publish <- event:
	case <-h.done:
	default:
		h.logger.Warn("event dropped - hub buffer full",
			slog.String("type", string(event.Type)))
	}
}

// Close shuts down the hub and disconnects all subscribers
func (h *Hub) Close() {
	close(h.done)
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
