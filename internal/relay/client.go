package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"printdrop/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Origin checking is left to the CORS middleware in front of the mux; the
// deployed clients connect from a separate frontend origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireMessage is the envelope both directions use on the socket.
type wireMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// userConnectedData is the payload of the inbound "userConnected" control
// message. The deployed clients send either this shape or a bare kiosk id
// string, so both are accepted.
type userConnectedData struct {
	KioskID string `json:"kioskId"`
	UserID  string `json:"userId"`
}

// Client is one WebSocket connection. It implements Handle: events are
// queued on a buffered channel drained by the write pump, so delivery
// never blocks a publisher. A full queue drops the event.
type Client struct {
	hub      *Hub
	registry *Registry
	conn     *websocket.Conn
	send     chan outMessage
	done     chan struct{}

	mu      sync.Mutex
	kioskID string // set by joinKiosk; used for owner-guarded unregister
}

// ServeWS returns the HTTP handler that upgrades connections onto the relay.
func ServeWS(hub *Hub, registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Relay.Printf("upgrade failed: %v", err)
			return
		}

		c := &Client{
			hub:      hub,
			registry: registry,
			conn:     conn,
			send:     make(chan outMessage, sendQueueSize),
			done:     make(chan struct{}),
		}

		logging.Relay.Printf("connection from %s", conn.RemoteAddr())
		go c.writePump()
		c.readPump()
	}
}

// Deliver implements Handle.
func (c *Client) Deliver(evt Event) {
	select {
	case c.send <- outMessage{Event: evt.Type.String(), Data: evt.Payload}:
	default:
		logging.Relay.Printf("dropping %s event for %s: send queue full", evt.Type, c.conn.RemoteAddr())
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		if kioskID := c.registeredKiosk(); kioskID != "" {
			c.registry.UnregisterIfOwner(kioskID, c)
		}
		close(c.done)
		c.conn.Close()
		logging.Relay.Printf("connection closed: %s", c.conn.RemoteAddr())
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		var msg wireMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Relay.Printf("read error: %v", err)
			}
			return
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

func (c *Client) handleMessage(msg wireMessage) {
	switch msg.Event {
	case "joinKiosk":
		var kioskID string
		if err := json.Unmarshal(msg.Data, &kioskID); err != nil || kioskID == "" {
			return
		}
		c.hub.Join(c, kioskID)
		c.registry.Register(kioskID, c)
		c.setKiosk(kioskID)
		logging.Relay.Printf("kiosk %s joined from %s", kioskID, c.conn.RemoteAddr())

	case "userConnected":
		var data userConnectedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			// Some client builds send a bare kiosk id string.
			if err := json.Unmarshal(msg.Data, &data.KioskID); err != nil {
				return
			}
		}
		if data.KioskID == "" {
			return
		}
		// Announce before joining so the announcing device does not
		// receive its own message.
		c.hub.Publish(data.KioskID, NewUserJoinedEvent(data.KioskID, data.UserID))
		c.hub.Join(c, data.KioskID)
		logging.Relay.Printf("user %s connected to kiosk %s", data.UserID, data.KioskID)

	default:
		logging.Relay.Printf("ignoring unknown event %q from %s", msg.Event, c.conn.RemoteAddr())
	}
}

func (c *Client) setKiosk(kioskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kioskID = kioskID
}

func (c *Client) registeredKiosk() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kioskID
}
