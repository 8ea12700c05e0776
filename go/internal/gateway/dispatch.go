package gateway

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/parlor/go/internal/events"
)

// Coordinator is what the dispatcher needs from the session coordinator.
type Coordinator interface {
	CreateRoom(ctx context.Context, connID, playerName string) error
	JoinRoom(ctx context.Context, connID, roomCode, playerName string) error
	JoinRandom(ctx context.Context, connID, playerName string) error
	SubmitAction(ctx context.Context, connID, roomCode, action string) error
	Disconnect(connID string)
}

// inboundFrame is the decoded client message.
type inboundFrame struct {
	Event string      `json:"event"`
	Data  inboundData `json:"data"`
}

// inboundData carries every field any inbound event may use; absent
// fields decode to the empty string and fail validation downstream.
type inboundData struct {
	PlayerName string `json:"player_name"`
	RoomCode   string `json:"room_code"`
	Action     string `json:"action"`
}

// Dispatcher decodes inbound frames and routes them to the coordinator.
// Coordinator errors are validation failures and go back to the
// originating connection as error events, never to the room.
type Dispatcher struct {
	coordinator Coordinator
	notifier    events.Notifier
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(coordinator Coordinator, notifier events.Notifier) *Dispatcher {
	return &Dispatcher{
		coordinator: coordinator,
		notifier:    notifier,
	}
}

// HandleMessage implements InboundHandler.
func (d *Dispatcher) HandleMessage(ctx context.Context, connID string, message []byte) {
	var in inboundFrame
	if err := json.Unmarshal(message, &in); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", connID).
			Msg("discarding malformed frame")
		d.notifier.ToConn(connID, events.Error("malformed message"))
		return
	}

	var err error
	switch in.Event {
	case "create_room":
		err = d.coordinator.CreateRoom(ctx, connID, in.Data.PlayerName)
	case "join_room":
		err = d.coordinator.JoinRoom(ctx, connID, in.Data.RoomCode, in.Data.PlayerName)
	case "join_random":
		err = d.coordinator.JoinRandom(ctx, connID, in.Data.PlayerName)
	case "action":
		err = d.coordinator.SubmitAction(ctx, connID, in.Data.RoomCode, in.Data.Action)
	default:
		log.Debug().
			Str("connection_id", connID).
			Str("event", in.Event).
			Msg("unknown inbound event")
		d.notifier.ToConn(connID, events.Error("unknown event"))
		return
	}

	if err != nil {
		d.notifier.ToConn(connID, events.Error(err.Error()))
	}
}

// HandleDisconnect implements InboundHandler.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, connID string) {
	d.coordinator.Disconnect(connID)
}
