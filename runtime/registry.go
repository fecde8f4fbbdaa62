package runtime

import (
	"agora/contract"
	"agora/domain/agora"
	"sync"
)

type Subscribers map[string]contract.EventSink

type Registry struct {
	mu     sync.RWMutex
	topics map[agora.ID]Subscribers // agora -> subscription -> sink
}

func NewRegistry() *Registry {
	return &Registry{topics: make(map[agora.ID]Subscribers)}
}

// GetSinksForAgora retrieves all active connections listening to an agora.
// Returns nil if nobody listens.
func (r *Registry) GetSinksForAgora(id agora.ID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers, ok := r.topics[id]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(subscribers))
	for _, sink := range subscribers {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Subscribe registers a connection on an agora topic. A subscription id is
// unique per connection, so one user may listen from several devices.
func (r *Registry) Subscribe(subscriptionID string, id agora.ID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[id]; !ok {
		r.topics[id] = make(Subscribers)
	}
	r.topics[id][subscriptionID] = sink
}

// Unsubscribe removes a connection and drops the topic once empty
// to prevent memory leaks over time.
func (r *Registry) Unsubscribe(subscriptionID string, id agora.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subscribers, ok := r.topics[id]; ok {
		delete(subscribers, subscriptionID)
		if len(subscribers) == 0 {
			delete(r.topics, id)
		}
	}
}

// Topics is the number of agoras with at least one subscriber.
func (r *Registry) Topics() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}
