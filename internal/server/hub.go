package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/explorer"
	"github.com/Faultbox/rfsurface/internal/picking"
	"github.com/Faultbox/rfsurface/internal/surface"
)

const writeWait = 10 * time.Second

// Message types exchanged over /ws.
const (
	TypeSurface = "surface"
	TypeLayers  = "layers"
	TypePick    = "pick"
	TypeReadout = "readout"
	TypeStatus  = "status"
	TypeError   = "error"
)

// Message is the websocket envelope. Only the field matching Type is set.
type Message struct {
	Type    string           `json:"type"`
	Surface *surface.Surface `json:"surface,omitempty"`
	Layers  *surface.Layers  `json:"layers,omitempty"`
	Ray     *RayRequest      `json:"ray,omitempty"`
	Readout *ReadoutResponse `json:"readout,omitempty"`
	Status  *explorer.Status `json:"status,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// RayRequest is a pick ray in world space.
type RayRequest struct {
	Origin    [3]float32 `json:"origin"`
	Direction [3]float32 `json:"direction"`
}

// Ray converts the request into a picking ray.
func (r RayRequest) Ray() picking.Ray {
	return picking.NewRay(r.Origin, r.Direction)
}

// ReadoutResponse is a readout plus its display text.
type ReadoutResponse struct {
	picking.Readout
	Text string `json:"text"`
}

func newReadoutResponse(r picking.Readout) *ReadoutResponse {
	return &ReadoutResponse{Readout: r, Text: r.String()}
}

// Hub tracks websocket clients. Each connection has its own write lock.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*sync.Mutex
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	h.log.Debug("websocket client connected", zap.String("remote", r.RemoteAddr))
	return conn, nil
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Send writes msg to one client.
func (h *Hub) Send(conn *websocket.Conn, msg Message) error {
	h.mu.RLock()
	mu, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}
	return write(conn, mu, msg)
}

func write(conn *websocket.Conn, mu *sync.Mutex, msg Message) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// Broadcast writes msg to every client and drops clients that fail.
func (h *Hub) Broadcast(msg Message) {
	var failed []*websocket.Conn

	h.mu.RLock()
	for conn, mu := range h.clients {
		if err := write(conn, mu, msg); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range failed {
		h.remove(conn)
	}
}

// SurfaceInstalled pushes a newly installed surface to every client.
// It is meant for surface.Hooks.Installed.
func (h *Hub) SurfaceInstalled(s *surface.Surface) {
	h.Broadcast(Message{Type: TypeSurface, Surface: s})
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, mu := range h.clients {
		mu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		mu.Unlock()
		conn.Close()
		delete(h.clients, conn)
	}
}
