// FilePath: internal/realtime/realtime.hub.go
package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	nuts "github.com/vaudience/go-nuts"
)

// Server-pushed events
const (
	EventConnected    = "connected"
	EventJoined       = "joined"
	EventLeft         = "left"
	EventRelayUpdate  = "relay_update"
	EventSensorUpdate = "sensor_update"
)

// Client-sent events
const (
	EventJoinUnit  = "join_unit"
	EventLeaveUnit = "leave_unit"
)

const defaultSendBuffer = 64

// Message is the JSON envelope of every frame on the realtime channel
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one realtime connection. Frames are queued on Send and
// written by the connection's own writer.
type Client struct {
	ID   string
	send chan []byte

	closeOnce sync.Once
}

// Send exposes the outbound queue to the connection writer
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Forwarder receives every locally originated broadcast, e.g. to share it with other instances
type Forwarder interface {
	Forward(room, event string, payload []byte)
}

// HubOptions tunes a Hub
type HubOptions struct {
	SendBuffer int
	// OnDrop is called for every frame dropped because a client's queue was full
	OnDrop func()
}

// Hub fans events out to all clients or to the subscribers of one unit.
// Publishing never blocks: a client that cannot keep up loses frames.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}

	sendBuffer int
	onDrop     func()
	forwarder  Forwarder
	dropped    atomic.Int64
}

// NewHub creates an empty hub
func NewHub(opts HubOptions) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &Hub{
		clients:    map[*Client]map[string]struct{}{},
		rooms:      map[string]map[*Client]struct{}{},
		sendBuffer: opts.SendBuffer,
		onDrop:     opts.OnDrop,
	}
}

// SetForwarder installs f for locally originated broadcasts
func (h *Hub) SetForwarder(f Forwarder) {
	h.mu.Lock()
	h.forwarder = f
	h.mu.Unlock()
}

// Register adds a new connection and queues the "connected" greeting
func (h *Hub) Register() *Client {
	c := &Client{
		ID:   nuts.NID("ws", 12),
		send: make(chan []byte, h.sendBuffer),
	}
	h.mu.Lock()
	h.clients[c] = map[string]struct{}{}
	h.mu.Unlock()

	h.SendTo(c, EventConnected, map[string]string{"data": "Connected to hydroponics system"})
	return c
}

// Unregister removes the connection from every room and closes its queue
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if rooms, ok := h.clients[c]; ok {
		for room := range rooms {
			h.removeFromRoom(c, room)
		}
		delete(h.clients, c)
	}
	h.mu.Unlock()
	c.closeOnce.Do(func() { close(c.send) })
}

// Join subscribes the connection to a unit's room and acks with "joined"
func (h *Hub) Join(c *Client, unitID string) {
	h.mu.Lock()
	rooms, ok := h.clients[c]
	if ok {
		rooms[unitID] = struct{}{}
		if h.rooms[unitID] == nil {
			h.rooms[unitID] = map[*Client]struct{}{}
		}
		h.rooms[unitID][c] = struct{}{}
	}
	h.mu.Unlock()
	if ok {
		h.SendTo(c, EventJoined, map[string]string{"unit_id": unitID})
	}
}

// Leave unsubscribes the connection from a unit's room and acks with "left"
func (h *Hub) Leave(c *Client, unitID string) {
	h.mu.Lock()
	rooms, ok := h.clients[c]
	if ok {
		delete(rooms, unitID)
		h.removeFromRoom(c, unitID)
	}
	h.mu.Unlock()
	if ok {
		h.SendTo(c, EventLeft, map[string]string{"unit_id": unitID})
	}
}

// caller holds h.mu
func (h *Hub) removeFromRoom(c *Client, room string) {
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// BroadcastGlobal sends event to every connection
func (h *Hub) BroadcastGlobal(event string, data interface{}) {
	h.broadcast("", event, data)
}

// BroadcastRoom sends event to the subscribers of unitID only
func (h *Hub) BroadcastRoom(unitID, event string, data interface{}) {
	h.broadcast(unitID, event, data)
}

func (h *Hub) broadcast(room, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		nuts.L.Errorf("[Realtime] Failed to marshal %s payload: %v", event, err)
		return
	}
	h.Deliver(room, event, payload)

	h.mu.RLock()
	f := h.forwarder
	h.mu.RUnlock()
	if f != nil {
		f.Forward(room, event, payload)
	}
}

// Deliver queues an already encoded payload on local connections.
// An empty room means every connection.
func (h *Hub) Deliver(room, event string, payload json.RawMessage) {
	frame, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		nuts.L.Errorf("[Realtime] Failed to encode %s frame: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == "" {
		for c := range h.clients {
			h.enqueue(c, frame)
		}
		return
	}
	for c := range h.rooms[room] {
		h.enqueue(c, frame)
	}
}

// SendTo queues an event for a single connection
func (h *Hub) SendTo(c *Client, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		nuts.L.Errorf("[Realtime] Failed to marshal %s payload: %v", event, err)
		return
	}
	frame, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		h.enqueue(c, frame)
	}
}

// caller holds h.mu (read); registered clients have open queues
func (h *Hub) enqueue(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.dropped.Add(1)
		if h.onDrop != nil {
			h.onDrop()
		}
	}
}

// ConnectionCount returns the number of registered connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of subscribers of a unit
func (h *Hub) RoomSize(unitID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[unitID])
}

// Dropped returns the number of frames dropped so far
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
