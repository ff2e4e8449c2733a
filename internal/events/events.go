// Package events fans report changes out to live dashboard clients.
package events

import (
	"context"
	"sync"
	"time"
)

// Type names a report change.
type Type string

const (
	ReportCreated Type = "report.created"
	ReportUpdated Type = "report.updated"
	ReportDeleted Type = "report.deleted"
)

// Event tells subscribers that a report changed; clients refetch on receipt.
type Event struct {
	Type     Type      `json:"type"`
	ReportID int64     `json:"report_id"`
	At       time.Time `json:"at"`
}

// Broker publishes events to every current subscriber.
type Broker interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events and a cancel func that must be called.
	Subscribe(ctx context.Context) (<-chan Event, func())
}

const subscriberBuffer = 16

// Hub is the in-process broker. Sends never block: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	h.broadcast(e)
	return nil
}

func (h *Hub) broadcast(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
