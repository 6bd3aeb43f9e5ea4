package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"notebins/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 8 << 20 // note bodies travel whole on every edit
	sendBuffer     = 256
)

// Client is one websocket connection. A client may be joined to any
// number of note rooms.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	rooms map[string]bool // owned by the hub, guarded by Hub.mu
}

// NewClient returns a client with a fresh id and send queue. conn may be
// nil for clients driven directly through the hub channels.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Hub:   hub,
		Conn:  conn,
		Send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]bool),
	}
}

// Server upgrades HTTP requests to note sockets.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer returns a websocket endpoint for hub. checkOrigin decides
// which browser origins may connect; nil accepts every origin.
func NewServer(hub *Hub, checkOrigin func(origin string) bool) *Server {
	s := &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || checkOrigin == nil {
			return true
		}
		return checkOrigin(origin)
	}
	return s
}

// ServeHTTP upgrades the connection and starts its pumps. An optional
// noteId query parameter joins that room straight away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := NewClient(s.hub, conn)
	select {
	case s.hub.Register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	if noteID := r.URL.Query().Get("noteId"); noteID != "" {
		client.submit(WSMessage{Type: JoinType, NoteID: noteID})
	}

	go client.writePump()
	go client.readPump()
}

// submit hands a message to the hub, giving up if the hub has stopped.
func (c *Client) submit(msg WSMessage) bool {
	select {
	case c.Hub.Inbound <- Inbound{Client: c, Message: msg}:
		return true
	case <-c.Hub.done:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Warnf("Client %s read error: %v", c.ID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Warnf("Client %s sent malformed message: %v", c.ID, err)
			continue
		}

		// Messages are handed over in read order, which is what keeps a
		// single connection's edits ordered.
		if !c.submit(msg) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
