package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/spacesedan/pulselens/internal/models"
)

// Observer receives live events. A Send error means the observer is gone
// and it will be dropped from the hub.
type Observer interface {
	Send(event models.Event) error
}

// Hub maintains the set of currently subscribed observers and fans discrete
// events out to all of them. A slow or broken observer never blocks the
// publisher or its siblings.
type Hub struct {
	mu        sync.RWMutex
	observers map[Observer]struct{}
}

func NewHub() *Hub {
	return &Hub{
		observers: make(map[Observer]struct{}),
	}
}

// Subscribe adds an observer and sends it the initial greeting event.
func (h *Hub) Subscribe(o Observer) {
	h.mu.Lock()
	h.observers[o] = struct{}{}
	count := len(h.observers)
	h.mu.Unlock()

	slog.Info("[Hub] Observer subscribed", slog.Int("observer_count", count))

	if err := o.Send(models.ConnectedEvent(time.Now())); err != nil {
		h.Unsubscribe(o)
	}
}

// Unsubscribe removes an observer. Removing an absent observer is a no-op.
func (h *Hub) Unsubscribe(o Observer) {
	h.mu.Lock()
	_, ok := h.observers[o]
	delete(h.observers, o)
	count := len(h.observers)
	h.mu.Unlock()

	if ok {
		slog.Info("[Hub] Observer unsubscribed", slog.Int("observer_count", count))
	}
}

// Publish delivers one event to every subscribed observer. Delivery runs
// over a snapshot of the set, since a failed delivery removes the observer.
// Failures are swallowed; a disconnected observer is not the sender's problem.
func (h *Hub) Publish(event models.Event) {
	h.mu.RLock()
	snapshot := make([]Observer, 0, len(h.observers))
	for o := range h.observers {
		snapshot = append(snapshot, o)
	}
	h.mu.RUnlock()

	for _, o := range snapshot {
		if err := o.Send(event); err != nil {
			slog.Warn("[Hub] Dropping observer after failed delivery",
				slog.String("error", err.Error()))
			h.Unsubscribe(o)
		}
	}
}

// BroadcastNewPost publishes the point event for one processed message.
func (h *Hub) BroadcastNewPost(post models.Post, analysis models.Analysis) {
	h.Publish(models.NewPostEvent(post, analysis, time.Now()))
}

// Count returns the number of currently subscribed observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
