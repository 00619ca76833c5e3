// Package eventbus implements the in-process fan-out used to push plan
// alerts to notification subscribers such as the WebSocket hub.
package eventbus

import (
	"sync"
	"time"
)

// AlertEvent carries the alert strings of one planning pass.
type AlertEvent struct {
	TS    time.Time
	Items []string
}

// Bus is a publish/subscribe fan-out for alert events. Delivery is
// non-blocking: slow subscribers drop events instead of stalling the
// planner's callers.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan AlertEvent
	closed bool
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers without blocking.
func (b *Bus) Publish(e AlertEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan AlertEvent {
	ch := make(chan AlertEvent, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan AlertEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
