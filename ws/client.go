package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/types"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
)

const (
	maxMessageSize  = 4096
	pongWait        = 2 * time.Minute
	pingPeriod      = time.Minute
	writeWait       = 10 * time.Second
	sendChannelSize = 1000

	// a typing indicator that is never explicitly cleared expires on its own
	typingExpiry = 5 * time.Second
)

// Client is one authenticated connection: the middleman between the websocket
// and the hubs of the rooms it has joined. It is created only after the
// handshake credential has been verified; an unauthenticated connection is
// closed before a Client ever exists.
type Client struct {
	gateway *Gateway

	conn *websocket.Conn
	user *types.User

	// Buffered channel of outbound messages. Never closed; the done channel
	// signals the write loop instead, which sidesteps the write-after-close
	// race on teardown.
	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	mu          sync.Mutex
	hubs        map[string]*Hub
	typingTimer *time.Timer
}

func newClient(gateway *Gateway, conn *websocket.Conn, user *types.User) *Client {
	return &Client{
		gateway: gateway,
		conn:    conn,
		user:    user,
		send:    make(chan []byte, sendChannelSize),
		done:    make(chan struct{}),
		hubs:    make(map[string]*Hub),
	}
}

// enqueue hands data to the write loop without ever blocking the caller.
// A full buffer means the receiver is too slow to care about intermediate
// state; dropping is acceptable, stalling the room is not.
func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		globals.AppLogger.Warn("send buffer full, dropping event", "user", c.user.Id)
	}
}

func (c *Client) sendEvent(event string, payload interface{}) {
	data, err := types.MarshalEvent(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal event", "event", event, "error", err)
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(message string) {
	c.sendEvent(types.EventError, types.ErrorPayload{Message: message})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		c.mu.Lock()
		if c.typingTimer != nil {
			c.typingTimer.Stop()
		}
		c.mu.Unlock()
	})
}

// joinHub adds the session to a room's hub and tracks the membership.
func (c *Client) joinHub(h *Hub) {
	c.mu.Lock()
	c.hubs[h.roomId] = h
	c.mu.Unlock()
	h.add(c)
}

// leaveAllHubs removes the session from every room it currently occupies,
// which is what a private-room switch and a disconnect both need.
func (c *Client) leaveAllHubs() {
	c.mu.Lock()
	hubs := c.hubs
	c.hubs = make(map[string]*Hub)
	c.mu.Unlock()
	for _, h := range hubs {
		h.remove(c)
	}
}

func (c *Client) inRoom(roomId string) (*Hub, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hubs[roomId]
	return h, ok
}

// ReadLoop pumps messages from the websocket connection into the session
// state machine. The application runs ReadLoop in a per-connection goroutine
// and ensures that there is at most one reader on a connection by executing
// all reads from this goroutine.
func (c *Client) ReadLoop() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { _ = c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				globals.AppLogger.Debug("ws closed unexpectedly", "user", c.user.Id, "error", err)
			}
			return
		}

		message := types.WebsocketMessage{}
		if err := json.Unmarshal(raw, &message); err != nil {
			c.sendError("malformed event")
			continue
		}

		switch message.Event {
		case types.EventTyping:
			payload := types.TypingPayload{}
			if err := decodePayload(message.Data, &payload); err != nil {
				c.sendError("malformed typing payload")
				continue
			}
			c.handleTyping(payload)

		case types.EventMessage:
			payload := types.ChatPayload{}
			if err := decodePayload(message.Data, &payload); err != nil {
				c.sendError("malformed message payload")
				continue
			}
			c.handleChat(payload)

		case types.EventJoinPrivateRoom:
			payload := types.JoinPrivateRoomPayload{}
			if err := decodePayload(message.Data, &payload); err != nil {
				c.sendError("malformed join payload")
				continue
			}
			c.gateway.joinPrivateRoom(c, payload.TargetUserId)

		default:
			// unknown events are ignored, the session stays open
		}
	}
}

func decodePayload(data json.RawMessage, out interface{}) error {
	payloadMap := make(map[string]interface{})
	if err := json.Unmarshal(data, &payloadMap); err != nil {
		return err
	}
	return mapstructure.WeakDecode(payloadMap, out)
}

// handleTyping relays the indicator verbatim to every other session in the
// room. Nothing is persisted or acknowledged; repeated identical signals are
// all forwarded.
func (c *Client) handleTyping(payload types.TypingPayload) {
	hub, ok := c.gateway.peekHub(payload.RoomId)
	if !ok {
		return
	}
	c.relayTyping(hub, payload.IsTyping)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	if payload.IsTyping {
		c.typingTimer = time.AfterFunc(typingExpiry, func() {
			select {
			case <-c.done:
				return
			default:
				c.relayTyping(hub, false)
			}
		})
	}
}

func (c *Client) relayTyping(hub *Hub, isTyping bool) {
	data, err := types.MarshalEvent(types.EventUserTyping, types.UserTypingPayload{
		User:     c.user.Public(),
		IsTyping: isTyping,
	})
	if err != nil {
		return
	}
	hub.BroadcastExcept(data, c)
}

func (c *Client) handleChat(payload types.ChatPayload) {
	if c.user == nil {
		// no authenticated identity: no-op, no error
		return
	}
	c.gateway.routeMessage(c, payload.RoomId, payload.Content)
}

// WriteLoop pumps messages from the hubs to the websocket connection. A
// goroutine running WriteLoop is started for each connection; all writes
// happen from that goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
