package store

import (
	"context"
	"time"

	"github.com/classchat/classchat/types"
)

// Store is the persistence boundary of the hub. The engine behind it is an
// external concern, the query contract is not: creation order, cursor
// semantics and the uniqueness constraint on room names are what the rest of
// the core relies on.
type Store interface {
	// CreateMessage persists a message. It fails with types.ErrValidation if
	// the content is empty after trimming. The author is not checked for
	// existence here, ownership is validated by the authenticated caller.
	CreateMessage(ctx context.Context, userId, roomId, content string) (*types.Message, error)

	// ListMessages returns one page of a room's history, see Page for the
	// exact contract.
	ListMessages(ctx context.Context, roomId string, cursor *int64, limit int) (*Page, error)

	// SearchMessages is ListMessages restricted to messages whose content
	// contains the query as a case-insensitive substring, plus the total
	// number of matches ignoring pagination.
	SearchMessages(ctx context.Context, roomId, query string, cursor *int64, limit int) (*SearchPage, error)

	// CountMatches counts all messages in the room matching the query.
	CountMatches(ctx context.Context, roomId, query string) (int64, error)

	// GetOrCreateRoom resolves a room by its unique name, creating it with
	// the given kind if absent. A losing concurrent creator falls back to
	// re-reading the winning row instead of erroring.
	GetOrCreateRoom(ctx context.Context, name, kind string) (*types.Room, error)
	GetRoom(ctx context.Context, id string) (*types.Room, error)
	ListRooms(ctx context.Context) ([]*types.Room, error)

	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	StoreUser(ctx context.Context, user *types.User) error
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateLastOnline(ctx context.Context, userIds []string, t time.Time) error

	Close() error
}
