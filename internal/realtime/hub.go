package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message is the frame pushed to dashboards.
type Message struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ProjectID uint   `json:"project_id,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub keeps the websocket clients watching each project.
type Hub struct {
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
}

func NewHub(log *zap.SugaredLogger, allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &Hub{
		log:     log,
		clients: make(map[uint]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// NotifyProject tells every client of projectID to refresh.
func (h *Hub) NotifyProject(projectID uint) {
	h.broadcast(projectID, Message{Type: "refresh", Message: "Dashboard data updated", ProjectID: projectID})
}

// NotifyAll tells every connected client to refresh.
func (h *Hub) NotifyAll() {
	h.mu.RLock()
	projects := make([]uint, 0, len(h.clients))
	for projectID := range h.clients {
		projects = append(projects, projectID)
	}
	h.mu.RUnlock()

	for _, projectID := range projects {
		h.NotifyProject(projectID)
	}
}

// Clients returns the number of connections watching projectID.
func (h *Hub) Clients(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[projectID])
}

func (h *Hub) broadcast(projectID uint, msg Message) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[projectID]))
	for c := range h.clients[projectID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			h.log.Warnw("dropping websocket client", "project_id", projectID, "error", err)
			h.remove(projectID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) add(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*client]struct{})
	}
	h.clients[projectID][c] = struct{}{}
}

func (h *Hub) remove(projectID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[projectID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}

// Serve upgrades the request and keeps the connection registered under
// projectID until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, projectID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "project_id", projectID, "error", err)
		return
	}

	c := &client{conn: conn}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.add(projectID, c)
	defer func() {
		h.remove(projectID, c)
		conn.Close()
		h.log.Debugw("websocket connection closed", "project_id", projectID)
	}()

	if err := c.write(Message{Type: "connected", Message: "WebSocket connection established", ProjectID: projectID}); err != nil {
		h.log.Warnw("sending welcome message failed", "project_id", projectID, "error", err)
		return
	}

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warnw("websocket read failed", "project_id", projectID, "error", err)
			}
			return
		}
	}
}
