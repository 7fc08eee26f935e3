// Websocket hub. Every tick the server pushes a status envelope and any
// events that tick produced; admin clients can send command envelopes back.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser viewers connect from arbitrary origins; auth rides on the
	// key query parameter, not the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans simulation updates out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub creates an empty hub. Call Run in a goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run owns the client set. Slow clients are dropped rather than letting
// their send queues stall the broadcast.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast wraps payload in an Envelope and queues it for every client.
func (h *Hub) Broadcast(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("websocket payload marshal failed", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return
	}
	h.broadcast <- data
}

// Client is one websocket connection. admin marks connections opened with
// the admin key; only those may send command envelopes.
type Client struct {
	hub   *Hub
	srv   *Server
	conn  *websocket.Conn
	send  chan []byte
	admin bool
}

// handleWS upgrades the connection and starts the read/write pumps.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:   s.Hub,
		srv:   s,
		conn:  conn,
		send:  make(chan []byte, 64),
		admin: s.AdminKey != "" && r.URL.Query().Get("key") == s.AdminKey,
	}
	s.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump consumes client envelopes until the connection dies.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.reply("error", map[string]string{"error": "malformed envelope"})
			continue
		}
		c.handle(env)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) handle(env Envelope) {
	switch env.Type {
	case "status":
		c.reply("status", c.srv.statusResponse())

	case "command":
		if !c.admin {
			c.reply("error", map[string]string{"error": "command requires admin key"})
			return
		}
		var req commandRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.reply("error", map[string]string{"error": "malformed command"})
			return
		}
		details, err := c.srv.applyCommand(req)
		if err != nil {
			c.reply("command_result", map[string]any{"success": false, "error": err.Error()})
			return
		}
		c.reply("command_result", map[string]any{"success": true, "details": details})

	default:
		// Unknown envelope types are ignored so old clients stay compatible.
	}
}

// reply queues a direct envelope to this client, dropping it if the send
// queue is full.
func (c *Client) reply(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
