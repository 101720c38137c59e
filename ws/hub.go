package ws

import (
	"sync"
)

const broadcastQueueSize = 1000

type broadcastItem struct {
	data   []byte
	except *Client
}

// Hub is the fan-out point for one room. All broadcasts pass through a single
// queue drained by one goroutine, so every session joined to the room sees
// the room's events in the same order. Delivery to an individual session is
// a non-blocking enqueue on that session's buffered send channel: a slow or
// closing receiver never stalls the room.
type Hub struct {
	roomId string

	mu      sync.RWMutex
	clients map[*Client]struct{}

	queue chan broadcastItem
}

func newHub(roomId string) *Hub {
	h := &Hub{
		roomId:  roomId,
		clients: make(map[*Client]struct{}),
		queue:   make(chan broadcastItem, broadcastQueueSize),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for item := range h.queue {
		h.mu.RLock()
		for client := range h.clients {
			if client == item.except {
				continue
			}
			client.enqueue(item.data)
		}
		h.mu.RUnlock()
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Broadcast delivers data to every session in the room, in queue order.
func (h *Hub) Broadcast(data []byte) {
	h.queue <- broadcastItem{data: data}
}

// BroadcastExcept delivers data to every session in the room except one,
// used for the typing relay which must not echo back to the sender.
func (h *Hub) BroadcastExcept(data []byte, except *Client) {
	h.queue <- broadcastItem{data: data, except: except}
}

// NoClients returns the number of sessions currently joined.
func (h *Hub) NoClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
