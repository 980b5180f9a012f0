package approval

import "sync"

// Event kinds pushed to dashboard subscribers.
const (
	EventRequestApproved   = "admin_request.approved"
	EventRequestRejected   = "admin_request.rejected"
	EventApplicationStatus = "application.status_changed"
)

type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Hub fans review events out to connected dashboards. Subscribers get
// a buffered channel; a subscriber that cannot keep up silently loses
// events rather than stalling the review flow.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[chan Event]struct{}),
	}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}
