package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"learnly/internal/models"
)

// Message represents the standard message format exchanged over WebSocket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
	MessageRefresh  = "refresh"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512
	snapshotTimeout = 5 * time.Second
	sendBuffer      = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are enforced by the CORS layer and the token.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Snapshot is the full content of a collection at one point in time.
type Snapshot struct {
	Collection models.Collection `json:"collection"`
	Path       string            `json:"path"`
	Docs       interface{}       `json:"docs"`
}

// Authenticator turns a bearer token into a user id.
type Authenticator interface {
	Authenticate(token string) (uint, error)
}

// SnapshotSource loads the current documents of a user's collection.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID uint, collection models.Collection) (interface{}, error)
}

// Hub fans collection snapshots out to subscribed clients. Clients are
// grouped in rooms keyed by collection path, so every tab of a user shares
// a room.
//
// Every snapshot load takes a sequence number before it reads. A client
// never receives a snapshot older than the last one it was sent, so loads
// that finish out of order cannot leave a tab on stale data.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	mu         sync.RWMutex
	auth       Authenticator
	source     SnapshotSource
	log        *slog.Logger
	seq        atomic.Uint64
}

func NewHub(auth Authenticator, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		auth:       auth,
		log:        log.With("component", "hub"),
	}
}

// SetSource wires the snapshot loader. It must be called before Run.
func (h *Hub) SetSource(source SnapshotSource) {
	h.source = source
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     uint
	collection models.Collection
	path       string
	done       chan struct{}
	// lastSeq is the sequence of the last message queued; guarded by hub.mu.
	lastSeq uint64
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint, collection models.Collection) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		userID:     userID,
		collection: collection,
		path:       collection.Path(userID),
		done:       make(chan struct{}),
	}
}

// Run applies registrations until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.path]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.path] = room
			}
			room[client] = true
			h.mu.Unlock()
			h.log.Debug("client subscribed", "user_id", client.userID, "collection", client.collection, "subscribers", len(room))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case <-ctx.Done():
			close(h.quit)
			h.mu.Lock()
			for _, room := range h.rooms {
				for client := range room {
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	room, ok := h.rooms[client.path]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.path)
	}
	close(client.send)
	close(client.done)
	h.log.Debug("client unsubscribed", "user_id", client.userID, "collection", client.collection)
}

// Subscribers returns the number of clients listening on a collection path.
func (h *Hub) Subscribers(path string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[path])
}

// Notify pushes a fresh snapshot of the collection to its subscribers. It
// returns immediately.
func (h *Hub) Notify(userID uint, collection models.Collection) {
	path := collection.Path(userID)
	if h.Subscribers(path) == 0 {
		return
	}
	go h.broadcastSnapshot(userID, collection, path)
}

func (h *Hub) broadcastSnapshot(userID uint, collection models.Collection, path string) {
	seq := h.seq.Add(1)
	msg, err := h.snapshotMessage(userID, collection)
	if err != nil {
		h.log.Error("load snapshot", "user_id", userID, "collection", collection, "error", err)
		return
	}
	h.broadcast(path, seq, msg)
}

func (h *Hub) snapshotMessage(userID uint, collection models.Collection) ([]byte, error) {
	if h.source == nil {
		return nil, errors.New("no snapshot source")
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	docs, err := h.source.Snapshot(ctx, userID, collection)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{
		Type: MessageSnapshot,
		Data: Snapshot{Collection: collection, Path: collection.Path(userID), Docs: docs},
	})
}

// BroadcastToRoom queues message for every client in the room. A client
// whose buffer is full is dropped.
func (h *Hub) BroadcastToRoom(path string, message []byte) {
	h.broadcast(path, h.seq.Add(1), message)
}

func (h *Hub) broadcast(path string, seq uint64, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[path] {
		h.offerLocked(client, seq, message)
	}
}

// offerLocked queues message unless the client already got a newer one.
func (h *Hub) offerLocked(c *Client, seq uint64, message []byte) {
	if seq <= c.lastSeq {
		h.log.Debug("skipping stale snapshot", "user_id", c.userID, "collection", c.collection)
		return
	}
	select {
	case c.send <- message:
		c.lastSeq = seq
	default:
		h.log.Warn("send buffer full, dropping client", "user_id", c.userID, "collection", c.collection)
		go h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// HandleWebSocket authenticates the token query parameter, upgrades the
// connection and sends the first snapshot.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	collection := models.Collection(mux.Vars(r)["collection"])
	if !collection.Valid() {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	userID, err := h.auth.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "error", err)
		return
	}

	client := NewClient(h, conn, userID, collection)
	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
	client.sendSnapshot()
}

func (c *Client) sendSnapshot() {
	seq := c.hub.seq.Add(1)
	msg, err := c.hub.snapshotMessage(c.userID, c.collection)
	if err != nil {
		c.hub.log.Error("load snapshot", "user_id", c.userID, "collection", c.collection, "error", err)
		msg, _ = json.Marshal(Message{Type: MessageError, Data: "snapshot unavailable"})
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	select {
	case <-c.done:
		return
	default:
	}
	c.hub.offerLocked(c, seq, msg)
}

// readPump keeps the read deadline fresh and serves refresh requests.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == MessageRefresh {
			go c.sendSnapshot()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
