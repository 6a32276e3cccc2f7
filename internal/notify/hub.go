package notify

import (
	"sync"

	"hookd/internal/metrics"
)

// Hub is the in-process Broker. Subscriber channels are buffered; when a
// subscriber falls behind, notifications to it are dropped rather than
// blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Notification]map[Kind]struct{} // nil filter = all kinds
}

func NewHub() *Hub {
	return &Hub{subs: map[chan Notification]map[Kind]struct{}{}}
}

func (h *Hub) Subscribe(kinds ...Kind) chan Notification {
	ch := make(chan Notification, 8)
	var filter map[Kind]struct{}
	if len(kinds) > 0 {
		filter = map[Kind]struct{}{}
		for _, k := range kinds {
			filter[k] = struct{}{}
		}
	}
	h.mu.Lock()
	h.subs[ch] = filter
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Notification) {
	h.mu.Lock()
	_, ok := h.subs[ch]
	delete(h.subs, ch)
	h.mu.Unlock()
	if ok { close(ch) }
}

func (h *Hub) Publish(n Notification) {
	h.mu.Lock()
	for ch, filter := range h.subs {
		if filter != nil {
			if _, ok := filter[n.Kind]; !ok { continue }
		}
		select {
		case ch <- n:
		default:
			metrics.NotificationsDropped.Inc()
		}
	}
	h.mu.Unlock()
}
