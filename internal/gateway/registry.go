package gateway

import (
	"sort"
	"sync"

	"github.com/Plexi09/chatroom/internal/models"
)

// Registry is the source of truth for presence: the mapping from online user
// to live connection handle. All mutation and every read used for fan-out go
// through its one mutex, so membership changes from concurrent connection
// lifecycles cannot interleave with a broadcast's target snapshot.
type Registry struct {
	mu      sync.Mutex
	entries map[int]*Client
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[int]*Client),
	}
}

// Add registers a client under its user id, replacing any previous handle
// for the same user. The superseded connection is not closed; it stays open
// but no longer appears in presence (last-connection-wins).
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[c.userID] = c
}

// Remove deletes the client's entry and reports whether it was present.
// The delete is handle-compared: a superseded connection closing cannot
// evict the newer connection registered under the same user id.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[c.userID]; ok && current == c {
		delete(r.entries, c.userID)
		return true
	}
	return false
}

// Snapshot returns a copy of the presence list ordered by user id. Never a
// live view, so callers can fan it out without racing add/remove.
func (r *Registry) Snapshot() []models.PublicUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]models.PublicUser, 0, len(r.entries))
	for _, c := range r.entries {
		users = append(users, models.PublicUser{ID: c.userID, Username: c.username, Role: c.role})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Clients returns a copy of the registered connection handles. The set of
// broadcast targets is fixed at this read.
func (r *Registry) Clients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*Client, 0, len(r.entries))
	for _, c := range r.entries {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the number of online users
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
