package rooms

import (
	"context"
	"sync"

	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

const cacheSize = 1024

// Registry resolves rooms by their deterministic names. Rooms are immutable
// once created, so resolved rooms are cached in front of the store. Creation
// races are settled by the store's uniqueness constraint on the room name.
type Registry struct {
	store store.Store
	cache *lru.Cache[string, *types.Room]

	// serializes cache misses so one process issues at most one create per
	// name; concurrent creators in other processes are handled by the store
	mu sync.Mutex
}

func NewRegistry(st store.Store) (*Registry, error) {
	cache, err := lru.New[string, *types.Room](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{store: st, cache: cache}, nil
}

// GetOrCreateGeneral resolves the single system-wide group room, creating it
// on first need.
func (r *Registry) GetOrCreateGeneral(ctx context.Context) (*types.Room, error) {
	return r.getOrCreate(ctx, types.GeneralRoomName, types.RoomKindGroup)
}

// GetOrCreatePrivate resolves the direct room for an unordered pair of user
// ids. Both argument orders yield the same room.
func (r *Registry) GetOrCreatePrivate(ctx context.Context, userIdA, userIdB string) (*types.Room, error) {
	return r.getOrCreate(ctx, types.PrivateRoomName(userIdA, userIdB), types.RoomKindDirect)
}

func (r *Registry) getOrCreate(ctx context.Context, name, kind string) (*types.Room, error) {
	if room, ok := r.cache.Get(name); ok {
		return room, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.cache.Get(name); ok {
		return room, nil
	}
	room, err := r.store.GetOrCreateRoom(ctx, name, kind)
	if err != nil {
		return nil, err
	}
	r.cache.Add(name, room)
	return room, nil
}
