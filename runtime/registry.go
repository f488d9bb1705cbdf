package runtime

import (
	"chat-dm/contract"
	"sort"
	"sync"
)

// Registry maps a connected user to the sink of its live connection.
// A user has at most one tracked connection: a new registration replaces the previous one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // map user -> Sink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

// Register inserts or overwrites the connection of userID.
func (r *Registry) Register(userID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

// Unregister removes the connection of userID. Removing an absent user is a no-op.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Release removes the entry of userID only if it still points at sink.
// A connection closing after its user reconnected elsewhere leaves the newer entry alone.
func (r *Registry) Release(userID string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[userID]
	if !ok || current != sink {
		return false
	}
	delete(r.sessions, userID)
	return true
}

func (r *Registry) Lookup(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Online lists connected users, sorted for stable output.
func (r *Registry) Online() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	r.mu.RUnlock()
	sort.Strings(users)
	return users
}
