package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/classchat/classchat/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(id string) *types.User {
	return &types.User{Id: id, Email: id + "@example.com", Role: types.RoleStudent}
}

func TestRegisterUnregister(t *testing.T) {
	reg := NewRegistry[int]()

	reg.Register(user("x"), 1)
	assert.True(t, reg.Online("x"))
	require.Len(t, reg.Snapshot(), 1)

	reg.Unregister("x", 1)
	assert.False(t, reg.Online("x"))
	assert.Empty(t, reg.Snapshot())
}

func TestSecondSessionKeepsIdentityOnline(t *testing.T) {
	reg := NewRegistry[int]()

	reg.Register(user("y"), 1)
	reg.Register(user("y"), 2)

	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 1, "identity must be deduplicated across sessions")
	assert.Equal(t, "y", snapshot[0].Id)
	assert.Len(t, reg.Handles(), 2)

	reg.Unregister("y", 2)
	assert.True(t, reg.Online("y"))
	require.Len(t, reg.Snapshot(), 1)

	reg.Unregister("y", 1)
	assert.False(t, reg.Online("y"))
}

func TestSnapshotOrderedById(t *testing.T) {
	reg := NewRegistry[int]()
	reg.Register(user("c"), 1)
	reg.Register(user("a"), 2)
	reg.Register(user("b"), 3)

	snapshot := reg.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].Id)
	assert.Equal(t, "b", snapshot[1].Id)
	assert.Equal(t, "c", snapshot[2].Id)
}

func TestUnregisterUnknownHandleIsNoop(t *testing.T) {
	reg := NewRegistry[int]()
	reg.Unregister("ghost", 7)
	assert.Empty(t, reg.OnlineIds())
}

func TestConcurrentChurnNeverLosesRegistrations(t *testing.T) {
	reg := NewRegistry[int]()

	const users, sessions = 8, 16
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for s := 0; s < sessions; s++ {
			wg.Add(1)
			go func(u, s int) {
				defer wg.Done()
				id := fmt.Sprintf("user-%d", u)
				reg.Register(user(id), u*sessions+s)
				if s%2 == 0 {
					reg.Unregister(id, u*sessions+s)
				}
			}(u, s)
		}
	}
	wg.Wait()

	require.Len(t, reg.OnlineIds(), users)
	assert.Len(t, reg.Handles(), users*sessions/2)
}
