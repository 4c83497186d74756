// Package hub is the subscriber registry and broadcaster: best-effort fan-out
// of pipeline output to every live observer.
package hub

import (
	"sync"

	"solarwatch/internal/logger"
	"solarwatch/internal/metrics"
)

// Subscriber is one live observer. Deliver must be safe for concurrent use;
// a non-nil error marks that one delivery as lost, nothing more.
type Subscriber interface {
	Deliver(msg any) error
}

// Hub maintains the set of active subscribers. Registration follows an
// explicit subscribe; removal only follows an explicit disconnect. Delivery
// failures never evict a subscriber.
type Hub struct {
	mu   sync.RWMutex
	subs map[Subscriber]struct{}
	log  *logger.Logger
}

func New(log *logger.Logger) *Hub {
	return &Hub{
		subs: make(map[Subscriber]struct{}),
		log:  log,
	}
}

func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast attempts at-most-once delivery to each live subscriber. A failed
// delivery is logged and counted; it aborts neither the broadcast nor the
// subscriber's registration.
func (h *Hub) Broadcast(msg any) {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.Deliver(msg); err != nil {
			metrics.BroadcastFailures.Inc()
			if h.log != nil {
				h.log.Debugw("broadcast_delivery_failed", "err", err)
			}
		}
	}
}
