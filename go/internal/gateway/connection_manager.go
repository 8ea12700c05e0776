package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/parlor/go/internal/events"
)

// InboundHandler receives decoded transport events. The connection
// manager calls it from each connection's read loop.
type InboundHandler interface {
	HandleMessage(ctx context.Context, connID string, message []byte)
	HandleDisconnect(ctx context.Context, connID string)
}

// ConnectionManager owns all WebSocket connections and their room
// associations. It implements events.Notifier: the core publishes to a
// connection ID or a room code and the manager fans frames out to the
// sockets currently associated with that scope.
type ConnectionManager struct {
	conns     map[string]*Connection            // by connection ID
	roomConns map[string]map[string]*Connection // room code -> connection ID -> conn
	mu        sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan outboundMessage

	handler InboundHandler
}

// Connection represents a WebSocket connection to a client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// outboundMessage is a queued frame addressed to a connection or a room.
type outboundMessage struct {
	connID   string
	roomCode string
	frame    []byte
}

// frame is the wire envelope in both directions.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns:     make(map[string]*Connection),
		roomConns: make(map[string]map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan outboundMessage, 1000),
	}
}

// SetHandler wires the inbound handler. Must be called before any
// connection is accepted.
func (cm *ConnectionManager) SetHandler(h InboundHandler) {
	cm.handler = h
}

// Start begins processing outbound messages until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.deliver(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection
// registered under connID.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, connID string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          connID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connID).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.conns[conn.ID] = conn

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.conns)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.conns[conn.ID]; !exists {
		return
	}
	delete(cm.conns, conn.ID)
	close(conn.Send)

	for code, members := range cm.roomConns {
		if _, ok := members[conn.ID]; ok {
			delete(members, conn.ID)
			if len(members) == 0 {
				delete(cm.roomConns, code)
			}
		}
	}

	log.Info().
		Str("connection_id", conn.ID).
		Msg("connection unregistered")
}

// ToConn queues an event for a single connection.
func (cm *ConnectionManager) ToConn(connID string, event events.Event) {
	cm.enqueue(outboundMessage{connID: connID, frame: encodeFrame(event)})
}

// ToRoom queues an event for every connection associated with the room.
func (cm *ConnectionManager) ToRoom(roomCode string, event events.Event) {
	cm.enqueue(outboundMessage{roomCode: roomCode, frame: encodeFrame(event)})
}

// EnterRoom associates a connection with a room code for broadcasts.
func (cm *ConnectionManager) EnterRoom(connID, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.conns[connID]
	if !ok {
		return
	}
	if cm.roomConns[roomCode] == nil {
		cm.roomConns[roomCode] = make(map[string]*Connection)
	}
	cm.roomConns[roomCode][connID] = conn

	log.Debug().
		Str("connection_id", connID).
		Str("room_code", roomCode).
		Msg("connection entered room")
}

// LeaveRoom drops a connection's association with a room code.
func (cm *ConnectionManager) LeaveRoom(connID, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if members, ok := cm.roomConns[roomCode]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(cm.roomConns, roomCode)
		}
	}
}

func (cm *ConnectionManager) enqueue(message outboundMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().
			Str("connection_id", message.connID).
			Str("room_code", message.roomCode).
			Msg("broadcast channel full, dropping message")
	}
}

func encodeFrame(event events.Event) []byte {
	data, err := json.Marshal(frame{Event: string(event.Name), Data: event.Payload})
	if err != nil {
		log.Error().Err(err).Str("event", string(event.Name)).Msg("failed to marshal event frame")
		return nil
	}
	return data
}

func (cm *ConnectionManager) deliver(message outboundMessage) {
	if message.frame == nil {
		return
	}

	cm.mu.RLock()
	var targets []*Connection
	if message.connID != "" {
		if conn, ok := cm.conns[message.connID]; ok {
			targets = append(targets, conn)
		}
	} else if members, ok := cm.roomConns[message.roomCode]; ok {
		for _, conn := range members {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message.frame:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

// Stats describes the active connection pools.
type Stats struct {
	TotalConnections int `json:"total_connections"`
	ActiveRooms      int `json:"active_rooms"`
}

// GetStats returns statistics about active connections.
func (cm *ConnectionManager) GetStats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return Stats{
		TotalConnections: len(cm.conns),
		ActiveRooms:      len(cm.roomConns),
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection. When
// the loop ends for any reason the connection's identity is reported as
// disconnected so the core can remove the player from its room.
func (c *Connection) readPump() {
	defer func() {
		if c.Manager.handler != nil {
			c.Manager.handler.HandleDisconnect(context.Background(), c.ID)
		}
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.handler != nil {
			c.Manager.handler.HandleMessage(context.Background(), c.ID, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
