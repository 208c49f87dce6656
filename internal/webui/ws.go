package webui

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/promptbuild"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscriber is one websocket connection receiving prompt updates.
type subscriber struct {
	conn *websocket.Conn
	mode promptbuild.Mode
	mu   sync.Mutex
}

func (c *subscriber) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type hub struct {
	mu      sync.Mutex
	clients map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*subscriber]struct{})}
}

func (h *hub) add(c *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) snapshot() []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*subscriber, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// previewMessage is pushed to subscribers after every mutation.
type previewMessage struct {
	Type   string         `json:"type"`
	Prompt promptResponse `json:"prompt"`
}

// broadcastLocked renders the prompt once per mode in use and sends it.
// Callers hold s.mu.
func (s *Server) broadcastLocked() {
	clients := s.hub.snapshot()
	if len(clients) == 0 {
		return
	}
	rendered := make(map[promptbuild.Mode]previewMessage)
	for _, c := range clients {
		msg, ok := rendered[c.mode]
		if !ok {
			msg = previewMessage{Type: "prompt", Prompt: s.renderLocked(c.mode)}
			rendered[c.mode] = msg
		}
		if err := c.send(msg); err != nil {
			logger.Debug("Dropping websocket subscriber: %v", err)
			s.hub.remove(c)
			c.conn.Close()
		}
	}
}

// handleWebSocket streams the rendered prompt: once on connect, then after
// each mutation. Query parameter mode selects combined or roles.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	mode, err := promptbuild.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &subscriber{conn: conn, mode: mode}

	s.mu.Lock()
	s.hub.add(c)
	err = c.send(previewMessage{Type: "prompt", Prompt: s.renderLocked(mode)})
	s.mu.Unlock()
	defer s.hub.remove(c)
	if err != nil {
		return
	}
	logger.Debug("WebSocket subscriber connected (mode %s)", mode)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
