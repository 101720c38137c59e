package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/classchat/classchat/auth"
	"github.com/classchat/classchat/bot"
	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/presence"
	"github.com/classchat/classchat/rooms"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/gorilla/websocket"
)

// persistence calls are the only suspend points besides the responder, both
// are bounded
const storeTimeout = 5 * time.Second

// Gateway owns everything shared between connections: the store, the room
// and presence registries, the per-room hubs and the responder. It is
// constructed once per process and passed explicitly to the HTTP layer, there
// is no ambient singleton.
type Gateway struct {
	cfg      *config.Config
	store    store.Store
	rooms    *rooms.Registry
	verifier auth.Verifier
	chatbot  *bot.Chatbot
	botUser  *types.User
	presence *presence.Registry[*Client]

	upgrader websocket.Upgrader

	mu   sync.RWMutex
	hubs map[string]*Hub
}

func NewGateway(cfg *config.Config, st store.Store, roomRegistry *rooms.Registry, verifier auth.Verifier, chatbot *bot.Chatbot) *Gateway {
	return &Gateway{
		cfg:      cfg,
		store:    st,
		rooms:    roomRegistry,
		verifier: verifier,
		chatbot:  chatbot,
		botUser:  types.BotUser(),
		presence: presence.NewRegistry[*Client](),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hubs: make(map[string]*Hub),
	}
}

// Presence exposes the registry for the periodic last-online sweep.
func (g *Gateway) Presence() *presence.Registry[*Client] {
	return g.presence
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func (g *Gateway) getHub(roomId string) *Hub {
	g.mu.RLock()
	h, ok := g.hubs[roomId]
	g.mu.RUnlock()
	if ok {
		return h
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok = g.hubs[roomId]; ok {
		return h
	}
	h = newHub(roomId)
	g.hubs[roomId] = h
	return h
}

// peekHub looks up a hub without creating one.
func (g *Gateway) peekHub(roomId string) (*Hub, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.hubs[roomId]
	return h, ok
}

// HandleWebsocket is the connection entry point. The credential presented at
// handshake time is exchanged for an identity before anything else happens;
// on failure the connection is terminated without any error payload.
func (g *Gateway) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		globals.AppLogger.Error("websocket upgrade error", "error", err)
		return
	}

	ctx, cancel := opCtx()
	user, err := g.verifier.Verify(ctx, token)
	cancel()
	if err != nil {
		globals.AppLogger.Info("connection rejected", "error", err)
		_ = conn.Close()
		return
	}

	client := newClient(g, conn, user)
	go client.WriteLoop()

	g.presence.Register(user, client)
	globals.AppLogger.Info("client connected", "user", user.Email)

	ctx, cancel = opCtx()
	general, err := g.rooms.GetOrCreateGeneral(ctx)
	cancel()
	if err != nil {
		globals.AppLogger.Error("could not resolve general room", "error", err)
		g.presence.Unregister(user.Id, client)
		client.close()
		return
	}
	client.joinHub(g.getHub(general.Id))
	g.sendRoomWelcome(client, general, nil)
	g.BroadcastPresence()

	client.ReadLoop() // returns on disconnect

	client.leaveAllHubs()
	g.presence.Unregister(user.Id, client)
	g.BroadcastPresence()
	globals.AppLogger.Info("client disconnected", "user", user.Email)
}

// sendRoomWelcome sends the room reference and the most recent history page
// to a session that just joined a room. Live replay and the HTTP query path
// share the store's pagination contract, so both page identically.
func (g *Gateway) sendRoomWelcome(c *Client, room *types.Room, otherUser *types.PublicUser) {
	ctx, cancel := opCtx()
	defer cancel()
	page, err := g.store.ListMessages(ctx, room.Id, nil, g.cfg.HistoryConfig.PageSize)
	if err != nil {
		globals.AppLogger.Error("could not load history", "room", room.Id, "error", err)
		c.sendError("could not load history")
		return
	}
	c.sendEvent(types.EventJoinedRoom, types.JoinedRoomPayload{Room: *room, OtherUser: otherUser})
	c.sendEvent(types.EventHistory, page)
}

// joinPrivateRoom switches the session into the direct room with the target
// identity: leave everything else, resolve (or create) the pair room, join
// it and replay its history. An unknown target is not fatal, the otherUser
// reference just stays empty.
func (g *Gateway) joinPrivateRoom(c *Client, targetUserId string) {
	ctx, cancel := opCtx()
	defer cancel()
	room, err := g.rooms.GetOrCreatePrivate(ctx, c.user.Id, targetUserId)
	if err != nil {
		globals.AppLogger.Error("could not resolve private room", "error", err)
		c.sendError("could not resolve private room")
		return
	}
	var otherUser *types.PublicUser
	target, err := g.store.GetUser(ctx, targetUserId)
	if err == nil {
		pu := target.Public()
		otherUser = &pu
	} else if !errors.Is(err, types.ErrNotFound) {
		globals.AppLogger.Error("could not load target user", "error", err)
	}

	c.leaveAllHubs()
	c.joinHub(g.getHub(room.Id))
	g.sendRoomWelcome(c, room, otherUser)
}

// BroadcastPresence sends the current snapshot to every connected session.
// Delivery is best-effort latest-wins: a slow receiver may miss an
// intermediate snapshot, the registry itself never loses a registration.
func (g *Gateway) BroadcastPresence() {
	data, err := types.MarshalEvent(types.EventOnlineUsers, g.presence.Snapshot())
	if err != nil {
		globals.AppLogger.Error("could not marshal presence snapshot", "error", err)
		return
	}
	for _, client := range g.presence.Handles() {
		client.enqueue(data)
	}
}
