// Package realtime fans out deal events to every connected viewer of a
// deal. Delivery is at-most-once per live subscription: there is no
// backlog, and a subscriber that falls behind is dropped. Clients that
// reconnect reconcile by re-fetching the deal's lists.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const subscriptionBuffer = 64

// Publisher is the side consumed by the write paths. Publish never
// blocks and never fails; a missed delivery is recovered by the client's
// reconnect-and-refetch behavior.
type Publisher interface {
	Publish(dealID uint, ev Event)
}

// Subscription is one viewer's live stream of a deal's events.
type Subscription struct {
	ID     string
	DealID uint

	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Events yields published events in publish order until the
// subscription is closed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close releases the fan-out registration. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.leave(s)
		close(s.ch)
	})
}

// Hub holds the per-deal rooms. One lock suffices: topics are tiny (at
// most two participants per deal) and the lock also gives per-deal
// publish ordering.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Subscription]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[*Subscription]bool)}
}

// Subscribe registers a new stream for the deal. The registration is
// released when ctx is cancelled or Close is called, whichever first.
func (h *Hub) Subscribe(ctx context.Context, dealID uint) *Subscription {
	s := &Subscription{
		ID:     uuid.NewString(),
		DealID: dealID,
		ch:     make(chan Event, subscriptionBuffer),
		hub:    h,
	}
	h.mu.Lock()
	if h.rooms[dealID] == nil {
		h.rooms[dealID] = make(map[*Subscription]bool)
	}
	h.rooms[dealID][s] = true
	h.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			s.Close()
		}()
	}
	return s
}

func (h *Hub) leave(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.rooms[s.DealID]; m != nil {
		delete(m, s)
		if len(m) == 0 {
			delete(h.rooms, s.DealID)
		}
	}
}

// Publish delivers ev to every live subscription of the deal. Holding
// the lock across the sends keeps events in publish order per deal; a
// full subscriber buffer means the ev is dropped for that subscriber.
func (h *Hub) Publish(dealID uint, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[dealID] {
		select {
		case s.ch <- ev:
		default:
			// slow consumer; it will refetch on reconnect
		}
	}
}

// CloseDeal closes every subscription of a deal. Called when the deal
// itself is deleted.
func (h *Hub) CloseDeal(dealID uint) {
	h.mu.Lock()
	subs := h.rooms[dealID]
	delete(h.rooms, dealID)
	h.mu.Unlock()
	for s := range subs {
		s.once.Do(func() { close(s.ch) })
	}
}

// Viewers reports the number of live subscriptions for a deal.
func (h *Hub) Viewers(dealID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[dealID])
}
