// Package socket pushes document change notifications to connected clients.
// It is a read-only feed: the REST API is the only write path, and the hub
// never holds document content of its own.
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"inkpad/internal/document/model"
	"inkpad/pkg/logger"
)

const (
	SavedType               = "SAVED"                // Document content replaced via the API
	CollaboratorAddedType   = "COLLABORATOR_ADDED"   // A user was granted access
	CollaboratorRemovedType = "COLLABORATOR_REMOVED" // A user's access was revoked
	PresenceUpdateType      = "PRESENCE_UPDATE"      // Someone joined or left the room
)

// Event is one feed message. UserID is the acting user; TargetID is set on
// collaborator events and names the user whose grant changed.
type Event struct {
	Type     string          `json:"type"`
	DocID    string          `json:"documentId"`
	UserID   string          `json:"userId,omitempty"`
	TargetID string          `json:"targetId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// UserStatus is one entry of a room's presence roster.
type UserStatus struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// DocumentFinder is the slice of the document store the hub needs: the
// existence-filtered single-document load, used to gate room entry.
type DocumentFinder interface {
	FindAccessible(docID, userID string) (*model.Document, error)
}

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client

	finder   DocumentFinder
	mu       sync.Mutex
	Presence map[string]map[string]UserStatus // docID -> userID -> status
}

func NewHub(finder DocumentFinder) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan Event),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		finder:     finder,
		Presence:   make(map[string]map[string]UserStatus),
	}
}

// Publish hands an event to the feed. Safe to call on a nil hub so the
// service layer can run without a feed in tests.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	h.Broadcast <- e
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.DocID] == nil {
				h.Rooms[client.DocID] = make(map[*Client]bool)
				h.Presence[client.DocID] = make(map[string]UserStatus)
			}
			h.Rooms[client.DocID][client] = true
			h.Presence[client.DocID][client.UserID] = UserStatus{UserID: client.UserID, JoinedAt: time.Now()}
			h.mu.Unlock()

			h.broadcastPresenceUpdate(client.DocID)

		case client := <-h.Unregister:
			h.mu.Lock()
			docID := client.DocID
			if _, ok := h.Rooms[docID][client]; ok {
				delete(h.Rooms[docID], client)
				delete(h.Presence[docID], client.UserID)
				close(client.Send)

				if len(h.Rooms[docID]) == 0 {
					delete(h.Rooms, docID)
					delete(h.Presence, docID)
					logger.Sugar.Infof("Closed empty room: %s", docID)
				}
			}
			roomAlive := h.Rooms[docID] != nil
			h.mu.Unlock()

			if roomAlive {
				h.broadcastPresenceUpdate(docID)
			}

		case event := <-h.Broadcast:
			h.deliver(event)

			// A revoked collaborator must not keep a live feed on the
			// document; drop their connections after the announcement.
			if event.Type == CollaboratorRemovedType && event.TargetID != "" {
				h.disconnectUser(event.DocID, event.TargetID)
			}
		}
	}
}

// deliver fans an event out to everyone in the room except the acting user.
func (h *Hub) deliver(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling feed event: %v", err)
		return
	}

	h.mu.Lock()
	clientsToSend := make([]*Client, 0, len(h.Rooms[event.DocID]))
	for client := range h.Rooms[event.DocID] {
		if client.UserID != event.UserID {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	for _, client := range clientsToSend {
		select {
		case client.Send <- payload:
		default:
			// The client is lagging; drop the event rather than block the
			// hub. The ping cycle will reap a dead connection.
			logger.Sugar.Warnf("Client %s's send buffer is full, dropping event.", client.UserID)
		}
	}
}

func (h *Hub) disconnectUser(docID, userID string) {
	h.mu.Lock()
	var toClose []*Client
	for client := range h.Rooms[docID] {
		if client.UserID == userID {
			toClose = append(toClose, client)
		}
	}
	h.mu.Unlock()

	// Closing the connection makes the readPump exit and unregister safely.
	for _, client := range toClose {
		client.Conn.Close()
	}
}

func (h *Hub) broadcastPresenceUpdate(docID string) {
	var userStatuses []UserStatus
	var clientsToSend []*Client

	h.mu.Lock()
	if _, ok := h.Presence[docID]; ok {
		userStatuses = make([]UserStatus, 0, len(h.Presence[docID]))
		for _, status := range h.Presence[docID] {
			userStatuses = append(userStatuses, status)
		}
		clientsToSend = make([]*Client, 0, len(h.Rooms[docID]))
		for client := range h.Rooms[docID] {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(userStatuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	msg, _ := json.Marshal(Event{Type: PresenceUpdateType, DocID: docID, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- msg:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}
