package types

import (
	"fmt"
	"sort"
	"time"
)

const (
	RoomKindGroup  = "GROUP"
	RoomKindDirect = "DIRECT"

	// GeneralRoomName is the single system-wide group room, created lazily.
	GeneralRoomName = "General"
)

type Room struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex"`
	Kind      string    `json:"type" gorm:"column:type"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// PrivateRoomName derives the deterministic name of the direct room for an
// unordered pair of user ids. Both orders of the arguments yield the same
// name, so concurrent lookups for the same pair resolve to the same row via
// the uniqueness constraint on the room name.
func PrivateRoomName(userIdA, userIdB string) string {
	pair := []string{userIdA, userIdB}
	sort.Strings(pair)
	return fmt.Sprintf("private-%s-%s", pair[0], pair[1])
}
