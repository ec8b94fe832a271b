// FilePath: internal/realtime/realtime.websocket.go
package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type unitRequest struct {
	UnitID string `json:"unit_id"`
}

// Handler serves the realtime channel over a websocket
type Handler struct {
	hub        *Hub
	pingPeriod time.Duration
	// OnConnect and OnDisconnect observe the connection lifecycle
	OnConnect    func(c *Client)
	OnDisconnect func(c *Client)
}

// NewHandler creates a websocket handler bound to hub
func NewHandler(hub *Hub, pingPeriod time.Duration) *Handler {
	if pingPeriod <= 0 {
		pingPeriod = 25 * time.Second
	}
	return &Handler{hub: hub, pingPeriod: pingPeriod}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Errorf("[Realtime] Problem initiating websocket: %v", err)
		return
	}

	client := h.hub.Register()
	nuts.L.Infof("[Realtime] Client %s connected from %s", client.ID, r.RemoteAddr)
	if h.OnConnect != nil {
		h.OnConnect(client)
	}

	go h.writePump(conn, client)
	h.readPump(conn, client)

	h.hub.Unregister(client)
	if h.OnDisconnect != nil {
		h.OnDisconnect(client)
	}
	nuts.L.Infof("[Realtime] Client %s disconnected", client.ID)
}

func (h *Handler) readPump(conn *websocket.Conn, client *Client) {
	pongWait := h.pingPeriod * 2
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				nuts.L.Warnf("[Realtime] Client %s read error: %v", client.ID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		h.dispatch(client, msg)
	}
}

func (h *Handler) dispatch(client *Client, msg Message) {
	switch msg.Event {
	case EventJoinUnit, EventLeaveUnit:
		var req unitRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				nuts.L.Warnf("[Realtime] Client %s sent malformed %s: %v", client.ID, msg.Event, err)
				return
			}
		}
		unitID := strings.TrimSpace(req.UnitID)
		if unitID == "" {
			return
		}
		if msg.Event == EventJoinUnit {
			h.hub.Join(client, unitID)
		} else {
			h.hub.Leave(client, unitID)
		}
	default:
		nuts.L.Warnf("[Realtime] Client %s sent unknown event %q", client.ID, msg.Event)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
