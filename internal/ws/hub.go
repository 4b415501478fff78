package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go-warehouse-ws/internal/permission"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type EventType string

const (
	EventProductCreated      EventType = "product_created"
	EventProductUpdated      EventType = "product_updated"
	EventProductDeleted      EventType = "product_deleted"
	EventTransactionRecorded EventType = "transaction_recorded"
	EventStockReconciled     EventType = "stock_reconciled"
	EventUserPresence        EventType = "user_presence"
)

// Audience is the permission a client's actor needs to receive events of
// type t. Ungated events go to every authenticated client.
func (t EventType) Audience() (permission.Action, bool) {
	switch t {
	case EventTransactionRecorded, EventStockReconciled:
		return permission.ViewReports, true
	case EventUserPresence:
		return permission.ManageUsers, true
	}
	return "", false
}

// Event is the message pushed to connected clients.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Notifier decouples services from the websocket transport.
type Notifier interface {
	Publish(event Event)
}

type discard struct{}

func (discard) Publish(Event) {}

// Discard drops every event. Offline commands have no listeners.
var Discard Notifier = discard{}

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a connection and the actor that opened it.
type Client struct {
	Conn  Conn
	Actor permission.Actor
}

type outbound struct {
	event EventType
	data  []byte
}

type Hub struct {
	clients    map[Conn]permission.Actor
	Register   chan Client
	Unregister chan Conn
	broadcast  chan outbound
	done       chan struct{}
	stopOnce   sync.Once
	log        *zap.Logger
	mutex      sync.Mutex
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[Conn]permission.Actor),
		Register:   make(chan Client),
		Unregister: make(chan Conn),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Publish queues the event for broadcast. It never blocks: when the queue
// is full the event is dropped and logged.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws: encode event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{event: event.Type, data: message}:
	default:
		h.log.Warn("ws: broadcast queue full, dropping event", zap.String("type", string(event.Type)))
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Stop ends Run and closes every connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func canReceive(actor permission.Actor, t EventType) bool {
	action, gated := t.Audience()
	return !gated || permission.Can(actor, action)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client.Conn] = client.Actor
			h.mutex.Unlock()
			h.log.Debug("ws: client connected", zap.String("actor", client.Actor.Email))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn, actor := range h.clients {
				if !canReceive(actor, message.event) {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, message.data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Serve keeps a registered connection open until the client goes away or
// the hub stops.
func (h *Hub) Serve(conn Conn, actor permission.Actor) {
	select {
	case h.Register <- Client{Conn: conn, Actor: actor}:
	case <-h.done:
		conn.Close()
		return
	}
	defer func() {
		select {
		case h.Unregister <- conn:
		case <-h.done:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
