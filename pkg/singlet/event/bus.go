package event

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer size per subscription.
	// Default: 64
	BufferSize int

	// OnDrop is called when an event is dropped because a subscriber's
	// buffer is full.
	OnDrop func(evt Event, subscriberID string)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize: 64,
}

// Bus is an in-memory fan-out distributor of registry lifecycle events.
//
// Publish is non-blocking: subscribers that do not drain their channel
// fast enough lose events rather than stalling the registry.
type Bus struct {
	config BusConfig

	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	byType        map[Type]map[string]*Subscription
	wildcards     map[string]*Subscription

	nextID  atomic.Int64
	dropped atomic.Int64
	closed  atomic.Bool
}

// Compile-time interface check.
var _ Publisher = (*Bus)(nil)

// NewBus creates a new event bus.
func NewBus(config BusConfig) *Bus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}
	return &Bus{
		config:        config,
		subscriptions: make(map[string]*Subscription),
		byType:        make(map[Type]map[string]*Subscription),
		wildcards:     make(map[string]*Subscription),
	}
}

// Subscription is an active subscription to bus events.
// Receive events from Events(); call Unsubscribe when done.
type Subscription struct {
	id     string
	types  []Type // empty = all types
	events chan Event
	bus    *Bus

	closeOnce sync.Once
}

// Publish delivers an event to all matching subscribers without blocking.
// Events published after Close are discarded.
func (b *Bus) Publish(evt Event) {
	if b.closed.Load() {
		return
	}

	// Deliver under the read lock: Unsubscribe and Close take the write
	// lock before closing channels, so no send can race a close. Sends
	// never block, so the lock is held only briefly.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.matching(evt.Kind) {
		select {
		case sub.events <- evt:
		default:
			b.dropped.Add(1)
			if b.config.OnDrop != nil {
				b.config.OnDrop(evt, sub.id)
			}
		}
	}
}

// Subscribe creates a subscription for the given event types.
// With no types, the subscription receives all events.
// Returns nil if the bus is closed.
func (b *Bus) Subscribe(types ...Type) *Subscription {
	if b.closed.Load() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		id:     fmt.Sprintf("sub-%d", b.nextID.Add(1)),
		types:  types,
		events: make(chan Event, b.config.BufferSize),
		bus:    b,
	}

	b.subscriptions[sub.id] = sub
	if len(types) == 0 {
		b.wildcards[sub.id] = sub
	} else {
		for _, t := range types {
			if b.byType[t] == nil {
				b.byType[t] = make(map[string]*Subscription)
			}
			b.byType[t][sub.id] = sub
		}
	}

	return sub
}

// matching returns subscriptions interested in an event type.
// Caller must hold at least a read lock.
func (b *Bus) matching(kind Type) []*Subscription {
	subs := make([]*Subscription, 0, len(b.wildcards))
	for _, sub := range b.byType[kind] {
		subs = append(subs, sub)
	}
	for _, sub := range b.wildcards {
		subs = append(subs, sub)
	}
	return subs
}

// Dropped returns the total number of events dropped because a
// subscriber's buffer was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close shuts down the bus and all subscriptions.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscriptions {
		sub.closeOnce.Do(func() { close(sub.events) })
		delete(b.subscriptions, id)
	}
	b.byType = make(map[Type]map[string]*Subscription)
	b.wildcards = make(map[string]*Subscription)
}

// Events returns the channel delivering this subscription's events.
// The channel is closed by Unsubscribe or Bus.Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.subscriptions, s.id)
	delete(s.bus.wildcards, s.id)
	for _, t := range s.types {
		if typeSubs, ok := s.bus.byType[t]; ok {
			delete(typeSubs, s.id)
		}
	}

	s.closeOnce.Do(func() { close(s.events) })
}
