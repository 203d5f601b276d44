package flow

import (
	"fmt"
	"sync"
	"time"

	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/pkg/id"
)

// Registry holds live attempts keyed by attempt ID, with automatic expiry of
// abandoned ones. Attempts reaching a terminal state are removed by the
// transport layer; the sweeper is the backstop for clients that navigate away.
type Registry struct {
	mu       sync.Mutex
	attempts map[string]*Controller
	ttl      time.Duration
}

// NewRegistry creates a registry that cancels and drops attempts idle for
// longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		attempts: make(map[string]*Controller),
		ttl:      ttl,
	}
	go r.sweep()
	return r
}

// Add registers a new attempt and returns its ID.
func (r *Registry) Add(c *Controller) string {
	attemptID := id.New()
	r.mu.Lock()
	r.attempts[attemptID] = c
	r.mu.Unlock()
	return attemptID
}

// Get looks up a live attempt.
func (r *Registry) Get(attemptID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.attempts[attemptID]
	if !ok {
		return nil, fmt.Errorf("unknown attempt: %w", domain.ErrNotFound)
	}
	return c, nil
}

// Remove cancels and drops an attempt.
func (r *Registry) Remove(attemptID string) {
	r.mu.Lock()
	c, ok := r.attempts[attemptID]
	delete(r.attempts, attemptID)
	r.mu.Unlock()
	if ok {
		c.Cancel()
	}
}

// sweep drops idle attempts every half TTL.
func (r *Registry) sweep() {
	for {
		time.Sleep(r.ttl / 2)
		r.expireBefore(time.Now().Add(-r.ttl))
	}
}

func (r *Registry) expireBefore(cutoff time.Time) {
	r.mu.Lock()
	var expired []*Controller
	for attemptID, c := range r.attempts {
		if c.idleSince().Before(cutoff) {
			expired = append(expired, c)
			delete(r.attempts, attemptID)
		}
	}
	r.mu.Unlock()
	for _, c := range expired {
		c.Cancel()
	}
}
