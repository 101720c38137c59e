package rooms

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := &config.Config{
		PersistenceConfig: config.PersistenceConfig{
			Type: "sqlite",
			DSN:  fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
	}
	st, err := store.NewGormStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	reg, err := NewRegistry(st)
	require.NoError(t, err)
	return reg
}

func TestGetOrCreateGeneral(t *testing.T) {
	reg := newTestRegistry(t)

	first, err := reg.GetOrCreateGeneral(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.GeneralRoomName, first.Name)
	require.Equal(t, types.RoomKindGroup, first.Kind)

	second, err := reg.GetOrCreateGeneral(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.Id, second.Id)
}

func TestGetOrCreateGeneralConcurrentFirstCall(t *testing.T) {
	reg := newTestRegistry(t)

	const callers = 8
	roomIds := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := reg.GetOrCreateGeneral(context.Background())
			require.NoError(t, err)
			roomIds[i] = room.Id
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		require.Equal(t, roomIds[0], roomIds[i])
	}
}

func TestGetOrCreatePrivateOrderIndependent(t *testing.T) {
	reg := newTestRegistry(t)

	ab, err := reg.GetOrCreatePrivate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Equal(t, types.RoomKindDirect, ab.Kind)
	require.Equal(t, "private-alice-bob", ab.Name)

	ba, err := reg.GetOrCreatePrivate(context.Background(), "bob", "alice")
	require.NoError(t, err)
	require.Equal(t, ab.Id, ba.Id)

	other, err := reg.GetOrCreatePrivate(context.Background(), "alice", "carol")
	require.NoError(t, err)
	require.NotEqual(t, ab.Id, other.Id)
}
