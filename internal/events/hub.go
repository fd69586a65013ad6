package events

import (
	"sync"
	"time"
)

// Table names published on the hub
const (
	TableUsers     = "users"
	TableGifts     = "gifts"
	TableReferrals = "referrals"
)

// Subscription delivers coalesced change signals for the tables it was
// created with. The payload is only the table name; consumers are expected
// to re-fetch, not to interpret a delta.
type Subscription struct {
	C chan string

	hub    *Hub
	tables map[string]bool

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// Hub is an in-process change-notification channel keyed by table name.
// Repeated publishes for the same table within the debounce window collapse
// into a single signal per subscriber.
type Hub struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	debounce time.Duration
	closed   bool
}

// NewHub creates a hub with the given debounce window
func NewHub(debounce time.Duration) *Hub {
	return &Hub{
		subs:     make(map[*Subscription]struct{}),
		debounce: debounce,
	}
}

// Subscribe registers interest in the given tables. With no tables given,
// the subscription receives signals for every table.
func (h *Hub) Subscribe(tables ...string) *Subscription {
	sub := &Subscription{
		C:       make(chan string, 16),
		hub:     h,
		tables:  make(map[string]bool, len(tables)),
		pending: make(map[string]*time.Timer),
	}
	for _, t := range tables {
		sub.tables[t] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		sub.closed = true
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish signals that something changed in the given table
func (h *Hub) Publish(table string) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	debounce := h.debounce
	h.mu.Unlock()

	for _, sub := range subs {
		sub.notify(table, debounce)
	}
}

// Close shuts down the hub and every open subscription
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

func (s *Subscription) notify(table string, debounce time.Duration) {
	if len(s.tables) > 0 && !s.tables[table] {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	// A timer already armed for this table means a signal is on its way;
	// the new change rides along with it.
	if _, ok := s.pending[table]; ok {
		return
	}

	if debounce <= 0 {
		s.deliver(table)
		return
	}

	s.pending[table] = time.AfterFunc(debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.pending, table)
		if s.closed {
			return
		}
		s.deliver(table)
	})
}

// deliver sends without blocking; a full channel already carries enough
// signal for the consumer to re-fetch. Callers hold s.mu.
func (s *Subscription) deliver(table string) {
	select {
	case s.C <- table:
	default:
	}
}

// Close stops delivery and releases the subscription. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()

	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for table, timer := range s.pending {
		timer.Stop()
		delete(s.pending, table)
	}
	close(s.C)
}
