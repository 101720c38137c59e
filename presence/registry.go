package presence

import (
	"sort"
	"sync"

	"github.com/classchat/classchat/types"
)

// Registry is the concurrent mapping of identity id to the set of live
// session handles for that identity. An identity is online iff its set is
// non-empty; multiple concurrent sessions per identity are permitted and
// deduplicated in snapshots. One lock guards everything: registrations,
// deregistrations and snapshot reads all happen from many connection
// goroutines, and the critical sections are short map operations.
type Registry[H comparable] struct {
	mu      sync.RWMutex
	entries map[string]*entry[H]
}

type entry[H comparable] struct {
	user    *types.User
	handles map[H]struct{}
}

func NewRegistry[H comparable]() *Registry[H] {
	return &Registry[H]{entries: make(map[string]*entry[H])}
}

func (r *Registry[H]) Register(user *types.User, handle H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[user.Id]
	if !ok {
		e = &entry[H]{user: user, handles: make(map[H]struct{})}
		r.entries[user.Id] = e
	}
	e.handles[handle] = struct{}{}
}

// Unregister removes a single session handle. The identity itself is dropped
// only when its last handle goes away, so disconnecting one device does not
// mark an identity offline while another device remains connected.
func (r *Registry[H]) Unregister(userId string, handle H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userId]
	if !ok {
		return
	}
	delete(e.handles, handle)
	if len(e.handles) == 0 {
		delete(r.entries, userId)
	}
}

func (r *Registry[H]) Online(userId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[userId]
	return ok
}

// Snapshot returns one sanitized entry per online identity, ordered by
// identity id so repeated snapshots of the same state are identical.
func (r *Registry[H]) Snapshot() []types.PublicUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]types.PublicUser, 0, len(r.entries))
	for _, e := range r.entries {
		users = append(users, e.user.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users
}

// OnlineIds returns the ids of all online identities.
func (r *Registry[H]) OnlineIds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Handles returns every live session handle across all identities.
func (r *Registry[H]) Handles() []H {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := make([]H, 0)
	for _, e := range r.entries {
		for h := range e.handles {
			handles = append(handles, h)
		}
	}
	return handles
}
