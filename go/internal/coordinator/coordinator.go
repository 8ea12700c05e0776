// Package coordinator implements the entry points the transport layer
// calls for every inbound event: room creation, joins, matchmaking,
// action submission and disconnect handling. It validates first, then
// mutates the directory and rooms, and emits the resulting
// notifications through the injected Notifier.
package coordinator

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/parlor/go/internal/events"
	"github.com/mcdev12/parlor/go/internal/parlor"
)

// TurnScheduler is what the coordinator needs from the turn scheduler.
type TurnScheduler interface {
	StartTurn(ctx context.Context, roomCode, holderID string, generation uint64)
}

// Coordinator wires the room directory, the turn scheduler and the
// outbound notifier together. Errors returned from its methods are
// validation failures meant for the originating connection only; they
// never mutate shared state.
type Coordinator struct {
	directory *parlor.Directory
	scheduler TurnScheduler
	notifier  events.Notifier
}

// New creates a coordinator.
func New(directory *parlor.Directory, scheduler TurnScheduler, notifier events.Notifier) *Coordinator {
	return &Coordinator{
		directory: directory,
		scheduler: scheduler,
		notifier:  notifier,
	}
}

// CreateRoom creates a fresh room and seats the creator. The session
// does not start here; it starts when the fourth player joins through
// any path.
func (c *Coordinator) CreateRoom(ctx context.Context, connID, playerName string) error {
	if playerName == "" {
		return parlor.ErrInvalidInput
	}

	room := c.directory.CreateRoom()
	c.notifier.ToConn(connID, events.RoomCreated(room.Code()))

	res, err := room.Join(parlor.NewParticipant(connID, playerName))
	if err != nil {
		// A freshly created room cannot be full; fail to the creator anyway.
		return err
	}
	c.notifier.EnterRoom(connID, room.Code())
	c.notifier.ToRoom(room.Code(), events.RoomJoined(room.Code()))

	log.Info().
		Str("room_code", room.Code()).
		Str("player_id", connID).
		Str("player_name", playerName).
		Msg("room created")

	c.maybeStart(ctx, room.Code(), res)
	return nil
}

// JoinRoom seats the player in the room registered under code.
func (c *Coordinator) JoinRoom(ctx context.Context, connID, roomCode, playerName string) error {
	if playerName == "" || roomCode == "" {
		return parlor.ErrInvalidInput
	}

	room, ok := c.directory.Lookup(roomCode)
	if !ok {
		return parlor.ErrRoomNotFound
	}

	res, err := room.Join(parlor.NewParticipant(connID, playerName))
	if err != nil {
		return err
	}
	c.notifier.EnterRoom(connID, roomCode)
	c.notifier.ToConn(connID, events.RoomJoined(roomCode))

	log.Info().
		Str("room_code", roomCode).
		Str("player_id", connID).
		Str("player_name", playerName).
		Msg("player joined room")

	c.maybeStart(ctx, roomCode, res)
	return nil
}

// JoinRandom seats the player in some open room, or creates a new room
// when none is open. At most one existing room is tried; if it fills in
// the window between the scan and the join, the player gets a fresh
// room instead of a second scan.
func (c *Coordinator) JoinRandom(ctx context.Context, connID, playerName string) error {
	if playerName == "" {
		return parlor.ErrInvalidInput
	}

	if room, ok := c.directory.FindOpen(); ok {
		res, err := room.Join(parlor.NewParticipant(connID, playerName))
		if err == nil {
			c.notifier.EnterRoom(connID, room.Code())
			c.notifier.ToConn(connID, events.RoomJoined(room.Code()))

			log.Info().
				Str("room_code", room.Code()).
				Str("player_id", connID).
				Msg("player matched into open room")

			c.maybeStart(ctx, room.Code(), res)
			return nil
		}
	}

	room := c.directory.CreateRoom()
	if _, err := room.Join(parlor.NewParticipant(connID, playerName)); err != nil {
		return err
	}
	c.notifier.EnterRoom(connID, room.Code())
	c.notifier.ToConn(connID, events.RoomCreated(room.Code()))
	c.notifier.ToConn(connID, events.RoomJoined(room.Code()))

	log.Info().
		Str("room_code", room.Code()).
		Str("player_id", connID).
		Msg("no open room, created one for random join")
	return nil
}

// SubmitAction applies an action from the turn-holder, broadcasts the
// new state and hands the turn to the next player. Scheduling the new
// turn supersedes any in-flight timer for the old holder.
func (c *Coordinator) SubmitAction(ctx context.Context, connID, roomCode, action string) error {
	if roomCode == "" || action == "" {
		return parlor.ErrInvalidInput
	}

	room, ok := c.directory.Lookup(roomCode)
	if !ok {
		return parlor.ErrRoomNotFound
	}

	res, err := room.SubmitAction(connID, parlor.Action(action))
	if err != nil {
		return err
	}

	log.Info().
		Str("room_code", roomCode).
		Str("player_id", connID).
		Str("action", action).
		Msg("action processed")

	c.notifier.ToRoom(roomCode, events.GameState(res.State))
	c.notifier.ToRoom(roomCode, events.Turn(res.NextHolderID))
	c.scheduler.StartTurn(ctx, roomCode, res.NextHolderID, res.NextGeneration)
	return nil
}

// Disconnect removes the identity from the room it is seated in, if
// any. A live session that goes short-handed ends, and an emptied room
// is removed from the directory.
func (c *Coordinator) Disconnect(connID string) {
	room, ok := c.directory.FindByParticipant(connID)
	if !ok {
		return
	}

	res := room.Leave(connID)
	if !res.Removed {
		return
	}
	c.notifier.LeaveRoom(connID, room.Code())
	c.notifier.ToRoom(room.Code(), events.PlayerLeft(connID))

	log.Info().
		Str("room_code", room.Code()).
		Str("player_id", connID).
		Msg("player left room")

	if res.Ended {
		c.notifier.ToRoom(room.Code(), events.GameEnded("Not enough players"))
		log.Info().Str("room_code", room.Code()).Msg("session ended, not enough players")
	}
	if res.Empty {
		if c.directory.RemoveIfEmpty(room.Code()) {
			log.Info().Str("room_code", room.Code()).Msg("empty room removed")
		}
	}
}

func (c *Coordinator) maybeStart(ctx context.Context, roomCode string, res parlor.JoinResult) {
	if !res.Started {
		return
	}
	c.notifier.ToRoom(roomCode, events.GameStarted())
	c.notifier.ToRoom(roomCode, events.Turn(res.FirstHolderID))
	c.scheduler.StartTurn(ctx, roomCode, res.FirstHolderID, res.Generation)

	log.Info().
		Str("room_code", roomCode).
		Str("player_id", res.FirstHolderID).
		Msg("table full, session started")
}
