// Package events defines the outbound event vocabulary the core
// produces and the publish primitive the transport layer implements.
package events

// Name identifies an outbound event type on the wire.
type Name string

const (
	NameRoomCreated Name = "room_created"
	NameRoomJoined  Name = "room_joined"
	NameGameStarted Name = "game_started"
	NameTurn        Name = "turn"
	NameGameState   Name = "game_state"
	NamePlayerLeft  Name = "player_left"
	NameGameEnded   Name = "game_ended"
	NameError       Name = "error"
)

// Event is one outbound notification. Payload marshals as the frame's
// data field and is nil for payload-less events.
type Event struct {
	Name    Name
	Payload any
}

// RoomCodePayload carries a room code, for room_created and room_joined.
type RoomCodePayload struct {
	RoomCode string `json:"room_code"`
}

// TurnPayload announces the new turn-holder.
type TurnPayload struct {
	PlayerID string `json:"player_id"`
}

// PlayerLeftPayload announces a departure.
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
}

// MessagePayload carries human-readable text, for game_ended and error.
type MessagePayload struct {
	Message string `json:"message"`
}

// RoomCreated builds a room_created event.
func RoomCreated(code string) Event {
	return Event{Name: NameRoomCreated, Payload: RoomCodePayload{RoomCode: code}}
}

// RoomJoined builds a room_joined event.
func RoomJoined(code string) Event {
	return Event{Name: NameRoomJoined, Payload: RoomCodePayload{RoomCode: code}}
}

// GameStarted builds a game_started event. It has no payload.
func GameStarted() Event {
	return Event{Name: NameGameStarted}
}

// Turn builds a turn event for the given holder.
func Turn(playerID string) Event {
	return Event{Name: NameTurn, Payload: TurnPayload{PlayerID: playerID}}
}

// GameState builds a game_state event around the given snapshot.
func GameState(state any) Event {
	return Event{Name: NameGameState, Payload: state}
}

// PlayerLeft builds a player_left event.
func PlayerLeft(playerID string) Event {
	return Event{Name: NamePlayerLeft, Payload: PlayerLeftPayload{PlayerID: playerID}}
}

// GameEnded builds a game_ended event.
func GameEnded(message string) Event {
	return Event{Name: NameGameEnded, Payload: MessagePayload{Message: message}}
}

// Error builds an error event. Errors only ever go to the originating
// connection, never to a room.
func Error(message string) Event {
	return Event{Name: NameError, Payload: MessagePayload{Message: message}}
}

// Notifier is the outbound publish primitive the transport layer
// provides: deliver to a single connection or broadcast to everyone
// currently associated with a room code. EnterRoom and LeaveRoom
// maintain that association.
type Notifier interface {
	ToConn(connID string, event Event)
	ToRoom(roomCode string, event Event)
	EnterRoom(connID, roomCode string)
	LeaveRoom(connID, roomCode string)
}
