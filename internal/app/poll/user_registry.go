package poll

import (
	"sync"
	"time"
)

// UserRegistry owns all users, keyed by user id. Users live for the lifetime of the registry.
type UserRegistry struct {
	users map[string]*User

	// mu protects the users map only; each User guards its own sessions.
	mu sync.RWMutex

	now func() time.Time
}

// NewUserRegistry creates an empty user registry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{
		users: make(map[string]*User),
		now:   time.Now,
	}
}

// GetOrCreate returns the user with id, creating it with name if absent.
// Concurrent calls for the same id return the same User.
func (r *UserRegistry) GetOrCreate(id, name string) *User {
	r.mu.RLock()
	u, exists := r.users[id]
	r.mu.RUnlock()

	if exists {
		return u
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists = r.users[id]
	if !exists {
		u = newUser(id, name, r.now)
		r.users[id] = u
	}

	return u
}

// Get returns the user with id, or nil.
func (r *UserRegistry) Get(id string) *User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil
	}
	return u
}

// Snapshot returns all users, in no particular order.
func (r *UserRegistry) Snapshot() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	return list
}

// Len returns the number of users.
func (r *UserRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}
