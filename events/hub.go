package events

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultBuffer is the subscriber queue length used when Subscribe gets a non-positive size.
const DefaultBuffer = 64

type Subscription struct {
	hub     *Hub
	ch      chan Event
	dropped atomic.Uint64
}

// C delivers events in publish order. It is closed on Unsubscribe or Hub.Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Dropped counts events discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscription) Unsubscribe() { s.hub.remove(s) }

// Hub fans events out to any number of subscribers. Publish never blocks.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub { return &Hub{subs: make(map[*Subscription]struct{})} }

func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{hub: h, ch: make(chan Event, buffer)}
	h.mu.Lock()
	if h.closed {
		close(s.ch)
	} else {
		h.subs[s] = struct{}{}
	}
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case s.ch <- e:
		default:
			n := s.dropped.Add(1)
			logrus.WithFields(logrus.Fields{"kind": e.Kind, "dropped": n}).Debug("subscriber queue full, event dropped")
		}
	}
}

// Close ends every subscription. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
		delete(h.subs, s)
	}
}
