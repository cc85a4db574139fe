// Package websocket streams movie detail states and broadcast events to
// connected clients.
package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/BidyutOffice/cinescope/internal/detail"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 256
)

// Message types exchanged with clients.
const (
	MessageDetailRequest    = "detail:request"
	MessageDetailState      = "detail:state"
	MessageDetailDiagnostic = "detail:diagnostic"
	MessageError            = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AggregatorFactory builds the aggregator owned by one connection.
type AggregatorFactory func() *detail.Aggregator

// incomingMessage wraps a message from a client.
type incomingMessage struct {
	client  *Client
	message []byte
}

// Hub manages WebSocket connections and broadcasts.
type Hub struct {
	clients       map[*Client]bool
	broadcast     chan []byte
	register      chan *Client
	unregister    chan *Client
	incoming      chan incomingMessage
	mu            sync.RWMutex
	newAggregator AggregatorFactory
	done          chan struct{}
	logger        zerolog.Logger
}

// Client represents a WebSocket connection. Each client owns one aggregator,
// so a new request from the same page supersedes its previous one.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool

	ctx         context.Context
	cancel      context.CancelFunc
	agg         *detail.Aggregator
	unsubscribe func()
}

// Message represents a WebSocket message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// rawMessage is a client message whose payload is decoded per type.
type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DetailRequestPayload is the payload for detail:request messages. The movie
// id may be sent as a JSON string or number.
type DetailRequestPayload struct {
	MovieID detail.MovieID `json:"movieId"`
}

func (p *DetailRequestPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		MovieID json.RawMessage `json:"movieId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := bytes.TrimSpace(raw.MovieID)
	if len(id) > 0 && id[0] == '"' {
		var s string
		if err := json.Unmarshal(id, &s); err != nil {
			return err
		}
		p.MovieID = detail.MovieID(s)
		return nil
	}
	if bytes.Equal(id, []byte("null")) {
		id = nil
	}
	p.MovieID = detail.MovieID(id)
	return nil
}

// StatePayload is a view model tagged with its status.
type StatePayload struct {
	Status string `json:"status"`
	detail.ViewModel
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan incomingMessage, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// SetAggregatorFactory enables detail:request handling. Connections accepted
// before the call have no aggregator.
func (h *Hub) SetAggregatorFactory(factory AggregatorFactory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.newAggregator = factory
}

// Run starts the hub's main loop and returns when ctx is done. A hub runs
// once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("clientId", client.id).Msg("Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Debug().Str("clientId", client.id).Msg("Client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.queue(message) {
					client.closeSend()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case incoming := <-h.incoming:
			h.handleIncoming(incoming)
		}
	}
}

// handleIncoming processes messages received from clients.
func (h *Hub) handleIncoming(incoming incomingMessage) {
	client := incoming.client

	var msg rawMessage
	if err := json.Unmarshal(incoming.message, &msg); err != nil {
		client.sendMessage(MessageError, map[string]string{"error": "malformed message"})
		return
	}

	switch msg.Type {
	case MessageDetailRequest:
		if client.agg == nil {
			client.sendMessage(MessageError, map[string]string{"error": "detail requests are not enabled"})
			return
		}

		var payload DetailRequestPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			client.sendMessage(MessageError, map[string]string{"error": "malformed detail request"})
			return
		}

		gen := client.agg.Request(client.ctx, payload.MovieID)
		h.logger.Debug().
			Str("clientId", client.id).
			Str("movieId", string(payload.MovieID)).
			Uint64("generation", gen).
			Msg("Detail requested")

	default:
		client.sendMessage(MessageError, map[string]string{"error": "unknown message type: " + msg.Type})
	}
}

// Broadcast sends a message to all connected clients. Messages are dropped
// when the hub is backed up.
func (h *Hub) Broadcast(msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.logger.Debug().Err(err).Str("type", msgType).Msg("Failed to encode broadcast")
		return
	}

	select {
	case h.broadcast <- data:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection upgrade.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.RLock()
	factory := h.newAggregator
	h.mu.RUnlock()
	if factory != nil {
		client.agg = factory()
		states, unsubscribe := client.agg.Subscribe()
		client.unsubscribe = unsubscribe
		go client.forwardStates(states)
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		client.release()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// queue hands data to the write pump. It reports false when the client is
// closed or its buffer is full.
func (c *Client) queue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendMessage(msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		c.hub.logger.Debug().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return
	}
	if !c.queue(data) {
		c.hub.logger.Debug().Str("clientId", c.id).Str("type", msgType).Msg("Dropped message for slow client")
	}
}

// forwardStates relays the aggregator's published states until the
// subscription ends.
func (c *Client) forwardStates(states <-chan detail.ViewModel) {
	for vm := range states {
		c.sendMessage(MessageDetailState, StatePayload{Status: vm.Status(), ViewModel: vm})
	}
}

// release stops the client's aggregator. In-flight results are discarded.
func (c *Client) release() {
	c.cancel()
	if c.agg != nil {
		c.unsubscribe()
		c.agg.Close()
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.release()
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("clientId", c.id).Msg("Unexpected close")
			}
			break
		}

		select {
		case c.hub.incoming <- incomingMessage{client: c, message: message}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				queued, ok := <-c.send
				if !ok {
					return
				}
				if err := c.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
