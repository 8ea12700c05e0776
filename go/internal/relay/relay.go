// Package relay republishes room-scoped outbound events onto a NATS
// subject tree so external consumers (spectator views, analytics) can
// subscribe without holding a game socket.
package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/parlor/go/internal/events"
)

// Config holds NATS relay settings.
type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default relay configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "parlor.rooms",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// envelope is the published message shape.
type envelope struct {
	Event     string    `json:"event"`
	RoomCode  string    `json:"room_code"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Relay decorates a Notifier: room broadcasts are delivered to the
// wrapped transport and additionally published to NATS under
// <prefix>.<room_code>.<event>. Connection-scoped events stay private
// and are never relayed.
type Relay struct {
	next   events.Notifier
	nc     *nats.Conn
	config Config
}

// New connects to NATS and wraps next.
func New(next events.Notifier, config Config) (*Relay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", config.URL).Str("prefix", config.SubjectPrefix).Msg("NATS relay connected")

	return &Relay{
		next:   next,
		nc:     nc,
		config: config,
	}, nil
}

// ToConn implements events.Notifier. Connection-scoped delivery only.
func (r *Relay) ToConn(connID string, event events.Event) {
	r.next.ToConn(connID, event)
}

// ToRoom implements events.Notifier, teeing the event onto NATS.
func (r *Relay) ToRoom(roomCode string, event events.Event) {
	r.next.ToRoom(roomCode, event)

	subject := fmt.Sprintf("%s.%s.%s", r.config.SubjectPrefix, roomCode, event.Name)
	data, err := json.Marshal(envelope{
		Event:     string(event.Name),
		RoomCode:  roomCode,
		Timestamp: time.Now(),
		Payload:   event.Payload,
	})
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to marshal relay envelope")
		return
	}
	if err := r.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish relay event")
	}
}

// EnterRoom implements events.Notifier.
func (r *Relay) EnterRoom(connID, roomCode string) {
	r.next.EnterRoom(connID, roomCode)
}

// LeaveRoom implements events.Notifier.
func (r *Relay) LeaveRoom(connID, roomCode string) {
	r.next.LeaveRoom(connID, roomCode)
}

// Close drains the NATS connection.
func (r *Relay) Close() {
	if r.nc != nil {
		r.nc.Close()
	}
}
