package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkpad/internal/document/model"
	"inkpad/pkg/apperr"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFinder grants or denies room entry per user id.
type stubFinder struct {
	granted map[string]bool
}

func (f stubFinder) FindAccessible(docID, userID string) (*model.Document, error) {
	if f.granted[userID] {
		return &model.Document{ID: docID, OwnerID: "owner"}, nil
	}
	return nil, apperr.ErrNotFound
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var event Event
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	require.NoError(t, json.Unmarshal(p, &event), "Failed to unmarshal Event JSON")
	return event
}

func newFeedServer(t *testing.T, finder DocumentFinder) (*Hub, string) {
	hub := NewHub(finder)
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The JWT middleware resolves the user in production; tests pass the
		// id directly.
		ServeWs(hub, w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestFeedBroadcastsEvents(t *testing.T) {
	hub, wsURL := newFeedServer(t, stubFinder{granted: map[string]bool{"alice": true, "bob": true}})
	docID := "doc-feed-test"

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?docId="+docID+"&user=alice", nil)
	require.NoError(t, err, "Client 1 failed to connect")
	defer conn1.Close()

	// Joining triggers a presence roster push.
	presence := readEvent(t, conn1)
	assert.Equal(t, PresenceUpdateType, presence.Type)

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?docId="+docID+"&user=bob", nil)
	require.NoError(t, err, "Client 2 failed to connect")
	defer conn2.Close()

	_ = readEvent(t, conn2) // bob's own roster push

	presence = readEvent(t, conn1)
	assert.Equal(t, PresenceUpdateType, presence.Type)
	var statuses []UserStatus
	require.NoError(t, json.Unmarshal(presence.Payload, &statuses))
	assert.Len(t, statuses, 2, "both users should be in the room")

	// A REST save publishes a SAVED event; everyone but the actor gets it.
	hub.Publish(Event{Type: SavedType, DocID: docID, UserID: "owner"})

	saved := readEvent(t, conn1)
	assert.Equal(t, SavedType, saved.Type)
	assert.Equal(t, docID, saved.DocID)
	saved = readEvent(t, conn2)
	assert.Equal(t, SavedType, saved.Type)
}

func TestFeedDisconnectsRevokedCollaborator(t *testing.T) {
	hub, wsURL := newFeedServer(t, stubFinder{granted: map[string]bool{"alice": true, "bob": true}})
	docID := "doc-feed-test"

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?docId="+docID+"&user=alice", nil)
	require.NoError(t, err)
	defer conn1.Close()
	_ = readEvent(t, conn1)

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?docId="+docID+"&user=bob", nil)
	require.NoError(t, err)
	defer conn2.Close()
	_ = readEvent(t, conn2)
	_ = readEvent(t, conn1)

	hub.Publish(Event{Type: CollaboratorRemovedType, DocID: docID, UserID: "owner", TargetID: "bob"})

	event := readEvent(t, conn1)
	assert.Equal(t, CollaboratorRemovedType, event.Type)
	assert.Equal(t, "bob", event.TargetID)

	// Bob's connection is dropped; reads must fail shortly after the
	// revocation announcement.
	conn2.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn2.ReadMessage(); err != nil {
			return
		}
	}
}

func TestFeedRejectsUserWithoutAccess(t *testing.T) {
	_, wsURL := newFeedServer(t, stubFinder{granted: map[string]bool{"alice": true}})
	docID := "doc-feed-test"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws?docId="+docID+"&user=mallory", nil)
	require.Error(t, err, "handshake must fail without a grant")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeedRequiresDocID(t *testing.T) {
	_, wsURL := newFeedServer(t, stubFinder{granted: map[string]bool{"alice": true}})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user=alice", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
