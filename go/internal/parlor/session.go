package parlor

// MaxParticipants is the fixed table size; the session starts when the
// fourth player is seated.
const MaxParticipants = 4

// Action is one of the recognized moves a turn-holder may submit.
type Action string

const (
	ActionRon   Action = "ron"
	ActionTsumo Action = "tsumo"
	ActionReach Action = "reach"
	ActionNaki  Action = "naki"
)

// Valid reports whether a is one of the four recognized action kinds.
func (a Action) Valid() bool {
	switch a {
	case ActionRon, ActionTsumo, ActionReach, ActionNaki:
		return true
	}
	return false
}

// PlayerState is the wire representation of one seated player.
type PlayerState struct {
	SID           string `json:"sid"`
	Name          string `json:"name"`
	RemainingTime int    `json:"remaining_time"`
}

// GameState is the snapshot broadcast to a room after every mutation
// and on every timer tick.
type GameState struct {
	Players       []PlayerState `json:"players"`
	CurrentPlayer string        `json:"current_player"`
	Started       bool          `json:"started"`
}

// Session holds the turn-based state for one room instance: participant
// order, the current turn pointer and the started flag. A session is not
// safe for concurrent use on its own; the owning Room serializes access.
//
// The generation counter identifies the current turn window. It advances
// on session start, on every turn change and on session end, so a turn
// timer that captured an older generation becomes a no-op instead of
// mutating a turn it no longer owns.
type Session struct {
	participants     []*Participant
	currentTurnIndex int
	started          bool
	generation       uint64
}

// NewSession creates an empty, not yet started session.
func NewSession() *Session {
	return &Session{}
}

// AddParticipant seats a player. Adds beyond capacity are silently
// ignored; callers that want an explicit full signal check the room.
func (s *Session) AddParticipant(p *Participant) {
	if len(s.participants) < MaxParticipants {
		s.participants = append(s.participants, p)
	}
}

// RemoveParticipant drops the player with the given identity. It keeps
// the current turn pointer valid but does not advance the turn; deciding
// what happens to an orphaned turn is the caller's job.
func (s *Session) RemoveParticipant(identity string) {
	for i, p := range s.participants {
		if p.ID != identity {
			continue
		}
		s.participants = append(s.participants[:i], s.participants[i+1:]...)
		if i < s.currentTurnIndex {
			s.currentTurnIndex--
		}
		if s.currentTurnIndex >= len(s.participants) {
			s.currentTurnIndex = 0
		}
		return
	}
}

// Participants returns the seated players in join order.
func (s *Session) Participants() []*Participant {
	return s.participants
}

// Started reports whether the session is live.
func (s *Session) Started() bool {
	return s.started
}

// Generation returns the identifier of the current turn window.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Start transitions the session to started, hands the first turn to the
// player who joined first and restores every allowance. Callers only
// invoke this when the table is full; started never transitions back.
func (s *Session) Start() {
	s.started = true
	s.currentTurnIndex = 0
	s.generation++
	for _, p := range s.participants {
		p.ResetTime()
	}
}

// End marks the session over. Participants are kept so the final
// standings stay inspectable until the room is cleaned up.
func (s *Session) End() {
	s.started = false
	s.generation++
}

// CurrentParticipant returns the turn-holder, or nil when nobody is seated.
func (s *Session) CurrentParticipant() *Participant {
	if len(s.participants) == 0 {
		return nil
	}
	return s.participants[s.currentTurnIndex]
}

// AdvanceTurn hands the turn to the next player in join order and opens
// a new turn window. The caller must guarantee the session is non-empty.
func (s *Session) AdvanceTurn() *Participant {
	s.currentTurnIndex = (s.currentTurnIndex + 1) % len(s.participants)
	s.generation++
	return s.CurrentParticipant()
}

// ProcessAction applies one of the recognized actions for p. The
// game-rule effects of the individual kinds are out of scope; the
// observable effect for all four is a reset of p's allowance. The turn
// does not advance here.
func (s *Session) ProcessAction(kind Action, p *Participant) error {
	if !kind.Valid() {
		return ErrInvalidAction
	}
	p.ResetTime()
	return nil
}

// DecrementTime burns one second off p's clock. When the result drops
// under 20 the low-time extension adds 5 seconds back, which keeps the
// clock oscillating just under 20 and in practice prevents it from ever
// reaching zero; the rule is reproduced as observed rather than fixed.
// At zero or below the turn auto-resolves with tsumo and true is
// returned so the caller can hand the turn off.
func (s *Session) DecrementTime(p *Participant) bool {
	p.RemainingTime--
	if p.RemainingTime < 20 {
		p.RemainingTime += 5
	}
	if p.RemainingTime <= 0 {
		s.ProcessAction(ActionTsumo, p)
		return true
	}
	return false
}

// State builds the snapshot published to the room.
func (s *Session) State() GameState {
	players := make([]PlayerState, len(s.participants))
	for i, p := range s.participants {
		players[i] = PlayerState{SID: p.ID, Name: p.Name, RemainingTime: p.RemainingTime}
	}
	state := GameState{Players: players, Started: s.started}
	if cur := s.CurrentParticipant(); cur != nil {
		state.CurrentPlayer = cur.ID
	}
	return state
}
