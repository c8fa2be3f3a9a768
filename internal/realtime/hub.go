package realtime

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub manages WebSocket clients and routes progress messages by nodeID.
type Hub struct {
	logger zerolog.Logger

	// nodeID -> set of subscribed clients
	subscriptions map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	count      chan countMsg
	done       chan struct{}
}

type broadcastMsg struct {
	nodeID  uint
	payload []byte
}

type countMsg struct {
	nodeID uint
	reply  chan int
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:        logger,
		subscriptions: make(map[uint]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan broadcastMsg, 256),
		count:         make(chan countMsg),
		done:          make(chan struct{}),
	}
}

// Run owns the subscription state until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, subs := range h.subscriptions {
				for client := range subs {
					close(client.send)
				}
			}
			h.subscriptions = make(map[uint]map[*Client]bool)
			return

		case client := <-h.register:
			if _, ok := h.subscriptions[client.nodeID]; !ok {
				h.subscriptions[client.nodeID] = make(map[*Client]bool)
			}
			h.subscriptions[client.nodeID][client] = true
			h.logger.Debug().Uint("nodeId", client.nodeID).Int("subscribers", len(h.subscriptions[client.nodeID])).Msg("progress client registered")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.subscriptions[msg.nodeID] {
				select {
				case client.send <- msg.payload:
				default:
					// Client buffer full, drop it
					h.remove(client)
				}
			}

		case msg := <-h.count:
			msg.reply <- len(h.subscriptions[msg.nodeID])
		}
	}
}

func (h *Hub) remove(client *Client) {
	subs, ok := h.subscriptions[client.nodeID]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	close(client.send)
	if len(subs) == 0 {
		delete(h.subscriptions, client.nodeID)
	}
	h.logger.Debug().Uint("nodeId", client.nodeID).Msg("progress client unregistered")
}

// Broadcast queues payload for every client watching nodeID
func (h *Hub) Broadcast(nodeID uint, payload []byte) {
	select {
	case h.broadcast <- broadcastMsg{nodeID: nodeID, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns how many clients watch nodeID
func (h *Hub) Subscribers(nodeID uint) int {
	reply := make(chan int)
	select {
	case h.count <- countMsg{nodeID: nodeID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}
