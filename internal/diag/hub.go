package diag

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub broadcasts Stats snapshots to every connected operator dashboard.
// Each client write is serialized with its own mutex, mirroring the
// gortsplib websocket tunnel's mutex-guarded WriteMessage.
type Hub struct {
	mutex   sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// ServeHTTP upgrades the connection and registers it for broadcasts until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mutex.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mutex.Unlock()

	defer func() {
		h.mutex.Lock()
		delete(h.clients, conn)
		h.mutex.Unlock()
		conn.Close() //nolint:errcheck
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends stats as JSON to every connected client, dropping
// clients that fail to write.
func (h *Hub) Broadcast(stats Stats) {
	buf, err := json.Marshal(stats)
	if err != nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, writeMu := range h.clients {
		writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, buf)
		writeMu.Unlock()
		if err != nil {
			delete(h.clients, conn)
			conn.Close() //nolint:errcheck
		}
	}
}
