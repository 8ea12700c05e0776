package parlor

import "errors"

// Validation failures reported back to the originating connection only.
// None of these mutate room or session state.
var (
	ErrInvalidInput   = errors.New("player name and room code are required")
	ErrRoomNotFound   = errors.New("invalid room code")
	ErrRoomFull       = errors.New("room is full")
	ErrGameNotStarted = errors.New("game not started or invalid room")
	ErrPlayerNotFound = errors.New("player not found in room")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidAction  = errors.New("invalid action")
)
