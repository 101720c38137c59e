package types

import "encoding/json"

// Inbound event names.
const (
	EventTyping          = "typing"
	EventMessage         = "message"
	EventJoinPrivateRoom = "joinPrivateRoom"
)

// Outbound event names.
const (
	EventJoinedRoom  = "joinedRoom"
	EventHistory     = "history"
	EventUserTyping  = "userTyping"
	EventOnlineUsers = "onlineUsers"
	EventError       = "error"
)

// WebsocketMessage is the envelope actually sent over the websocket
// connection in both directions.
type WebsocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// The different payloads transferred from the client to the server.

type TypingPayload struct {
	RoomId   string `json:"roomId" mapstructure:"roomId"`
	IsTyping bool   `json:"isTyping" mapstructure:"isTyping"`
}

type ChatPayload struct {
	RoomId  string `json:"roomId" mapstructure:"roomId"`
	Content string `json:"content" mapstructure:"content"`
}

type JoinPrivateRoomPayload struct {
	TargetUserId string `json:"targetUserId" mapstructure:"targetUserId"`
}

// The different payloads transferred from the server to the client.

type JoinedRoomPayload struct {
	Room      Room        `json:"room"`
	OtherUser *PublicUser `json:"otherUser,omitempty"`
}

type UserTypingPayload struct {
	User     PublicUser `json:"user"`
	IsTyping bool       `json:"isTyping"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// MarshalEvent wraps a payload into the wire envelope.
func MarshalEvent(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebsocketMessage{Event: event, Data: data})
}
