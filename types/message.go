package types

import "time"

// Message is immutable once created. The id is storage-assigned and
// monotonically creation-ordered, which makes it usable as a pagination
// cursor.
type Message struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomId    string    `json:"roomId" gorm:"index"`
	UserId    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// WireMessage is a message hydrated with its author's public fields, the
// shape broadcast to sessions and returned by the history endpoints.
type WireMessage struct {
	Id        int64      `json:"id"`
	RoomId    string     `json:"roomId"`
	User      PublicUser `json:"user"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewWireMessage(m *Message, author *User) WireMessage {
	wm := WireMessage{
		Id:        m.Id,
		RoomId:    m.RoomId,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if author != nil {
		wm.User = author.Public()
	} else {
		wm.User = PublicUser{Id: m.UserId}
	}
	return wm
}
