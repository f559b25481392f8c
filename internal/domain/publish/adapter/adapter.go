package adapter

import (
	"context"
	"fmt"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

// Adapter publishes a payload to one channel.
// Publish never returns a Go error: every failure is reported in the outcome.
// Implementations must not mutate the payload.
type Adapter interface {
	Channel() entity.Channel
	Publish(ctx context.Context, payload entity.ContentPayload, target entity.Target) entity.Outcome
}

// Registry is the closed set of channels known to the orchestrator
type Registry struct {
	adapters map[entity.Channel]Adapter
	order    []entity.Channel
}

// NewRegistry builds a registry from adapters.
// It panics when two adapters claim the same channel.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[entity.Channel]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		ch := a.Channel()
		if _, exists := r.adapters[ch]; exists {
			panic(fmt.Sprintf("adapter: channel %q registered twice", ch))
		}
		r.adapters[ch] = a
		r.order = append(r.order, ch)
	}
	return r
}

// Lookup returns the adapter registered for ch
func (r *Registry) Lookup(ch entity.Channel) (Adapter, bool) {
	a, ok := r.adapters[ch]
	return a, ok
}

// Channels returns registered channels in registration order
func (r *Registry) Channels() []entity.Channel {
	out := make([]entity.Channel, len(r.order))
	copy(out, r.order)
	return out
}
