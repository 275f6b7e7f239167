// Package live fans record-change notifications out to every open snapshot
// stream of the affected owner.
package live

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Event kinds.
const (
	KindChanged   = "changed"
	KindSignedOut = "signed_out"
)

// DefaultSubscriberBuffer holds one pending change per subscriber. A change
// that arrives while one is pending is dropped: the pending one already
// forces a full reload.
const DefaultSubscriberBuffer = 1

var (
	ErrHubUnavailable = errors.New("hub_unavailable")
	ErrInvalidOwner   = errors.New("invalid_owner_id")
)

// Event tells subscribers that an owner's records changed or that the
// owner signed out.
type Event struct {
	OwnerID string `json:"owner_id"`
	Kind    string `json:"kind"`
}

// Publisher delivers events to subscribers, locally or across instances.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Hub is an in-process Publisher keyed by owner id.
type Hub struct {
	mu               sync.RWMutex
	owners           map[string]*owner
	subscriberBuffer int
}

type owner struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// Subscription receives the change events of one owner until closed. A
// sign-out is not queued with the changes; it closes Ended instead.
type Subscription struct {
	hub     *Hub
	ownerID string
	id      uint64
	ch      chan Event
	ended   chan struct{}
	endOnce sync.Once
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		owners:           make(map[string]*owner),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

var _ Publisher = (*Hub)(nil)

// Publish never blocks. It only fails when the hub is nil or the event has
// no owner.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if h == nil {
		return ErrHubUnavailable
	}
	id := strings.TrimSpace(event.OwnerID)
	if id == "" {
		return ErrInvalidOwner
	}
	h.mu.RLock()
	o := h.owners[id]
	h.mu.RUnlock()
	if o == nil {
		return nil
	}

	o.mu.Lock()
	subs := make([]*Subscription, 0, len(o.subs))
	for _, sub := range o.subs {
		subs = append(subs, sub)
	}
	o.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(event)
	}
	return nil
}

// deliver drops a change when one is already pending. A sign-out never
// competes for the buffer.
func (s *Subscription) deliver(event Event) {
	if event.Kind == KindSignedOut {
		s.endOnce.Do(func() { close(s.ended) })
		return
	}
	select {
	case s.ch <- event:
	default:
	}
}

func (h *Hub) Subscribe(ownerID string) (*Subscription, error) {
	if h == nil {
		return nil, ErrHubUnavailable
	}
	id := strings.TrimSpace(ownerID)
	if id == "" {
		return nil, ErrInvalidOwner
	}

	h.mu.Lock()
	o := h.owners[id]
	if o == nil {
		o = &owner{subs: make(map[uint64]*Subscription)}
		h.owners[id] = o
	}
	o.mu.Lock()
	subID := o.nextID
	o.nextID++
	sub := &Subscription{
		hub:     h,
		ownerID: id,
		id:      subID,
		ch:      make(chan Event, h.subscriberBuffer),
		ended:   make(chan struct{}),
	}
	o.subs[subID] = sub
	o.mu.Unlock()
	h.mu.Unlock()

	return sub, nil
}

// Subscribers counts open subscriptions across all owners.
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, o := range h.owners {
		o.mu.Lock()
		n += len(o.subs)
		o.mu.Unlock()
	}
	return n
}

func (h *Hub) unsubscribe(ownerID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o := h.owners[ownerID]
	if o == nil {
		return
	}
	o.mu.Lock()
	delete(o.subs, id)
	empty := len(o.subs) == 0
	o.mu.Unlock()
	if empty {
		delete(h.owners, ownerID)
	}
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

// Ended is closed once the owner signs out.
func (s *Subscription) Ended() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ended
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.ownerID, s.id)
	})
}
