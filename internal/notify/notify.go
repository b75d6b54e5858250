// Package notify delivers task lifecycle events to the people who need to
// hear about them, over email and outbound webhooks.
package notify

import (
	"context"
	"sync"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// Notification is one rendered message, ready for any channel.
type Notification struct {
	Subject string
	Body    string
	Event   domain.TaskEvent
}

// Channel delivers a notification over one transport.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// Registry routes event types to the channels subscribed to them.
type Registry struct {
	mu   sync.RWMutex
	subs map[domain.EventType][]Channel
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[domain.EventType][]Channel)}
}

// Subscribe registers ch for the given event types. Safe to call concurrently.
func (r *Registry) Subscribe(ch Channel, types ...domain.EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.subs[t] = append(r.subs[t], ch)
	}
}

// ChannelsFor returns the channels subscribed to t. An event type nobody
// subscribed to yields an empty slice; the caller just commits and moves on.
func (r *Registry) ChannelsFor(t domain.EventType) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subs[t]
}
