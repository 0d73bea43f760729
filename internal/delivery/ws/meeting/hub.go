package ws_meeting

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the wire envelope for both directions.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Client is one connected socket. meetingID and participantID are set by the
// join command; until then the client belongs to no room.
type Client struct {
	conn *websocket.Conn
	send chan Event

	id            string
	meetingID     string
	participantID string
	role          string
}

// Hub tracks the set of clients per meeting room and fans events out to
// them. It satisfies the engine's Broadcaster so phase expiry can reach the
// room without the engine knowing the transport.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	logger *slog.Logger
}

type HubOption func(*Hub)

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		rooms:  make(map[string]map[*Client]bool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.meetingID]; !ok {
		h.rooms[client.meetingID] = make(map[*Client]bool)
	}
	h.rooms[client.meetingID][client] = true

	h.logger.Info("client joined room",
		"meeting_id", client.meetingID,
		"participant_id", client.participantID,
		"role", client.role)
}

func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[client.meetingID]; ok {
		if room[client] {
			delete(room, client)
			close(client.send)
		}
		if len(room) == 0 {
			delete(h.rooms, client.meetingID)
		}
	}

	h.logger.Info("client left room", "meeting_id", client.meetingID)
}

// Detach takes the client out of its room without closing the send channel,
// for a socket that is switching meetings.
func (h *Hub) Detach(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[client.meetingID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.meetingID)
		}
	}
}

// ToMeeting delivers an event to every client in the meeting's room. Clients
// that cannot keep up are dropped rather than blocking the room.
func (h *Hub) ToMeeting(meetingID string, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[meetingID]
	if !ok {
		return
	}
	e := Event{Type: event, Payload: payload}
	for client := range room {
		select {
		case client.send <- e:
		default:
			close(client.send)
			delete(room, client)
		}
	}
}

// Send delivers an event to one client only, for the private replies.
func (h *Hub) Send(client *Client, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// A joined client may have been evicted concurrently, which closes its
	// send channel.
	if client.meetingID != "" && !h.rooms[client.meetingID][client] {
		return
	}
	select {
	case client.send <- event:
	default:
	}
}

func (h *Hub) startWriting(client *Client) {
	defer client.conn.Close()

	for event := range client.send {
		if err := client.conn.WriteJSON(event); err != nil {
			break
		}
	}
}
