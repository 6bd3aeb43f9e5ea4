package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notebins/pkg/logger"
	"notebins/store"
)

const (
	JoinType   = "note:join"   // Start receiving edits for a note
	LeaveType  = "note:leave"  // Stop receiving edits for a note
	UpdateType = "note:update" // Note content replaced (both directions)
)

// WSMessage is the envelope for every frame on the socket.
type WSMessage struct {
	Type    string `json:"type"`
	NoteID  string `json:"noteId"`
	Content string `json:"content"`
}

// Inbound is a message read from a client, tagged with its origin.
type Inbound struct {
	Client  *Client
	Message WSMessage
}

// Hub owns the rooms. All membership changes and edits are applied by the
// Run goroutine, one event at a time.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Inbound    chan Inbound

	publish chan WSMessage
	done    chan struct{}

	store store.NoteStore
	now   func() time.Time

	mu      sync.Mutex // guards rooms and clients for the read-only accessors
	rooms   map[string]map[*Client]bool
	clients map[*Client]bool
}

func NewHub(notes store.NoteStore) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan Inbound),
		publish:    make(chan WSMessage),
		done:       make(chan struct{}),
		store:      notes,
		now:        func() time.Time { return time.Now().UTC() },
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
	}
}

// Run processes hub events until ctx is cancelled. Remaining clients are
// dropped on exit.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			h.dropLocked(client)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Sugar.Debugf("Client %s connected", client.ID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if h.clients[client] {
				h.dropLocked(client)
				logger.Sugar.Debugf("Client %s disconnected", client.ID)
			}
			h.mu.Unlock()

		case in := <-h.Inbound:
			switch in.Message.Type {
			case JoinType:
				h.join(in.Client, in.Message.NoteID)
			case LeaveType:
				h.leave(in.Client, in.Message.NoteID)
			case UpdateType:
				h.applyEdit(in.Client, in.Message.NoteID, in.Message.Content)
			default:
				logger.Sugar.Warnf("Client %s sent unknown message type %q", in.Client.ID, in.Message.Type)
			}

		case msg := <-h.publish:
			h.relay(nil, msg)
		}
	}
}

// Publish sends a server-originated update to every member of the note's
// room. It returns false once the hub has stopped.
func (h *Hub) Publish(noteID, content string) bool {
	select {
	case h.publish <- WSMessage{Type: UpdateType, NoteID: noteID, Content: content}:
		return true
	case <-h.done:
		return false
	}
}

// RoomSize returns the number of connections joined to noteID.
func (h *Hub) RoomSize(noteID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[noteID])
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) join(client *Client, noteID string) {
	if noteID == "" {
		return
	}

	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	if h.rooms[noteID] == nil {
		h.rooms[noteID] = make(map[*Client]bool)
	}
	h.rooms[noteID][client] = true
	client.rooms[noteID] = true
	h.mu.Unlock()
	logger.Sugar.Debugf("Client %s joined note %s", client.ID, noteID)

	// Late joiners get the current content straight away.
	note, ok := h.store.Get(noteID)
	if !ok {
		return
	}
	payload, err := json.Marshal(WSMessage{Type: UpdateType, NoteID: noteID, Content: note.Content})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling note %s for join: %v", noteID, err)
		return
	}
	h.deliver(client, payload)
}

func (h *Hub) leave(client *Client, noteID string) {
	h.mu.Lock()
	h.removeFromRoomLocked(client, noteID)
	h.mu.Unlock()
	logger.Sugar.Debugf("Client %s left note %s", client.ID, noteID)
}

func (h *Hub) applyEdit(origin *Client, noteID, content string) {
	if noteID == "" {
		return
	}

	// Edits never create notes; unknown ids are only relayed.
	if note, ok := h.store.Get(noteID); ok {
		note.Content = content
		note.UpdatedAt = h.now()
		if err := h.store.Set(noteID, note); err != nil {
			logger.Sugar.Errorf("Failed to persist note %s: %v", noteID, err)
		}
	}

	h.relay(origin, WSMessage{Type: UpdateType, NoteID: noteID, Content: content})
	logger.Sugar.Debugf("Note %s updated by %s", noteID, origin.ID)
}

// relay sends msg to every member of the room except origin (nil means
// everyone).
func (h *Hub) relay(origin *Client, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	recipients := make([]*Client, 0, len(h.rooms[msg.NoteID]))
	for client := range h.rooms[msg.NoteID] {
		if client != origin {
			recipients = append(recipients, client)
		}
	}
	h.mu.Unlock()

	for _, client := range recipients {
		h.deliver(client, payload)
	}
}

// deliver queues payload without blocking the hub. A client whose buffer
// is full is lagging and gets dropped.
func (h *Hub) deliver(client *Client, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.Send <- payload:
	default:
		logger.Sugar.Warnf("Client %s's send buffer is full. Dropping connection.", client.ID)
		h.dropLocked(client)
	}
}

// dropLocked removes client from every room and closes its send queue,
// which makes the write pump close the connection. mu must be held.
func (h *Hub) dropLocked(client *Client) {
	for noteID := range client.rooms {
		h.removeFromRoomLocked(client, noteID)
	}
	delete(h.clients, client)
	close(client.Send)
}

func (h *Hub) removeFromRoomLocked(client *Client, noteID string) {
	delete(client.rooms, noteID)
	room, ok := h.rooms[noteID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, noteID)
	}
}
