package socket

import (
	"errors"
	"net/http"
	"time"

	"inkpad/pkg/apperr"
	"inkpad/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser dev server runs on a different origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	DocID  string
	UserID string
	Send   chan []byte
}

// ServeWs upgrades the connection and joins the caller to the document's
// room. Entry goes through the same existence-filtered load as the REST
// reads: a user with no grant gets the connection dropped whether or not the
// document exists.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}

	if _, err := hub.finder.FindAccessible(docID, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Sugar.Warnf("Feed rejected: user %s has no access to doc %s", userID, docID)
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logger.Sugar.Errorf("Feed access check failed for doc %s: %v", docID, err)
		http.Error(w, "something went wrong", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:    hub,
		Conn:   conn,
		DocID:  docID,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. The feed is one-way, so inbound frames are
// discarded; the loop exists to notice the peer going away.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("feed read error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
