package qqcore

import "sync"

// clientRegistry maps logged-in account uins to their live Clients.
// Selectors hold only a uin and resolve through the registry at call
// time, so a selector outliving its client fails at lookup instead of
// dangling. A nil entry marks an account whose login is in flight;
// lookups treat it as absent, but a second login is still rejected.
type clientRegistry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
}

var registry = &clientRegistry{clients: make(map[int64]*Client)}

// reserve claims uin for a login attempt. It fails if a handle for the
// account is already live or another attempt is in flight.
func (r *clientRegistry) reserve(uin int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[uin]; exists {
		return false
	}
	r.clients[uin] = nil
	return true
}

// bind replaces a reservation with the live client.
func (r *clientRegistry) bind(uin int64, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[uin] = c
}

// release frees the account, whether reserved or bound.
func (r *clientRegistry) release(uin int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, uin)
}

// lookup returns the live client for uin, if any.
func (r *clientRegistry) lookup(uin int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[uin]
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}
