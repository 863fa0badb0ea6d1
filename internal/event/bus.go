package event

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Common bus errors.
var (
	ErrNilHandler           = errors.New("event: nil handler")
	ErrInvalidTopic         = errors.New("event: invalid topic")
	ErrSubscriptionNotFound = errors.New("event: subscription not found")
)

// Event is a published bus event.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives delivered events.
type Handler func(Event)

// Subscription is an active registration on a Bus.
type Subscription struct {
	id        string
	pattern   Topic
	handler   Handler
	cancelled atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Pattern returns the subscribed topic pattern.
func (s *Subscription) Pattern() Topic { return s.pattern }

// Cancel permanently stops delivery to this subscription.
func (s *Subscription) Cancel() { s.cancelled.Store(true) }

// IsActive reports whether the subscription can still receive events.
func (s *Subscription) IsActive() bool { return !s.cancelled.Load() }

// Stats reports bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerPanics uint64
	Subscribers   int
}

// Bus is a synchronous topic-based publish/subscribe hub. Subscription
// management is safe for concurrent use; delivery happens on the
// publisher's goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription

	published atomic.Uint64
	delivered atomic.Uint64
	panics    atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for every topic matching pattern.
func (b *Bus) Subscribe(pattern Topic, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if pattern == "" {
		return nil, ErrInvalidTopic
	}
	sub := &Subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: handler,
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

// Unsubscribe cancels and removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.Cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers e synchronously to every matching active subscription,
// in subscription order. A panicking handler is counted and does not stop
// delivery to the remaining handlers.
func (b *Bus) Publish(e Event) {
	if e.Topic == "" {
		return
	}
	b.published.Add(1)

	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.IsActive() || !Match(sub.pattern, e.Topic) {
			continue
		}
		b.deliver(sub, e)
	}
}

func (b *Bus) deliver(sub *Subscription, e Event) {
	defer func() {
		if recover() != nil {
			b.panics.Add(1)
		}
	}()
	sub.handler(e)
	b.delivered.Add(1)
}

// Stats returns current bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerPanics: b.panics.Load(),
		Subscribers:   n,
	}
}
