package parlor

import "sync"

// Room is a matchmaking unit holding up to four participants and exactly
// one session. All turn-state mutation for a room goes through its
// mutex, so concurrent joins, actions, ticks and disconnects for the
// same room are serialized while unrelated rooms stay independent.
type Room struct {
	code string

	mu      sync.Mutex
	members []*Participant
	session *Session
}

// NewRoom creates an empty room with the given code.
func NewRoom(code string) *Room {
	return &Room{
		code:    code,
		session: NewSession(),
	}
}

// Code returns the room's 6-character join code.
func (r *Room) Code() string {
	return r.code
}

// JoinResult reports what a successful join changed.
type JoinResult struct {
	Started       bool   // true when this join filled the table and started the session
	FirstHolderID string // turn-holder identity, set when Started
	Generation    uint64 // turn window identifier, set when Started
	State         GameState
}

// Join seats p and, when the table fills, starts the session as part of
// the same critical section so no concurrent join can observe a full but
// unstarted room.
func (r *Room) Join(p *Participant) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) >= MaxParticipants {
		return JoinResult{}, ErrRoomFull
	}
	r.members = append(r.members, p)
	r.session.AddParticipant(p)

	res := JoinResult{}
	if len(r.members) == MaxParticipants {
		r.session.Start()
		res.Started = true
		res.FirstHolderID = r.session.CurrentParticipant().ID
		res.Generation = r.session.Generation()
	}
	res.State = r.session.State()
	return res, nil
}

// ActionResult reports the state after a processed action and the
// turn window handed to the next holder.
type ActionResult struct {
	State          GameState
	NextHolderID   string
	NextGeneration uint64
}

// SubmitAction validates and applies an action from the given identity,
// then advances the turn. Validation failures leave the room untouched.
func (r *Room) SubmitAction(identity string, kind Action) (ActionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.session.Started() {
		return ActionResult{}, ErrGameNotStarted
	}
	p := r.participantLocked(identity)
	if p == nil {
		return ActionResult{}, ErrPlayerNotFound
	}
	if cur := r.session.CurrentParticipant(); cur == nil || cur.ID != identity {
		return ActionResult{}, ErrNotYourTurn
	}
	if !kind.Valid() {
		return ActionResult{}, ErrInvalidAction
	}

	if err := r.session.ProcessAction(kind, p); err != nil {
		return ActionResult{}, err
	}
	next := r.session.AdvanceTurn()
	return ActionResult{
		State:          r.session.State(),
		NextHolderID:   next.ID,
		NextGeneration: r.session.Generation(),
	}, nil
}

// TickResult reports the effect of one countdown tick.
type TickResult struct {
	State GameState // after the decrement

	// Set when the holder's clock ran out: the turn was auto-resolved
	// with tsumo and handed to the next player.
	Expired        bool
	ResolvedState  GameState
	NextHolderID   string
	NextGeneration uint64
}

// Tick burns one second off the clock of the turn-holder identified by
// (identity, generation). It returns ok=false without mutating anything
// when the session has ended, the holder changed or the generation is
// stale, which is how a superseded timer discovers it must exit.
func (r *Room) Tick(identity string, generation uint64) (TickResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.session.Started() || r.session.Generation() != generation {
		return TickResult{}, false
	}
	cur := r.session.CurrentParticipant()
	if cur == nil || cur.ID != identity {
		return TickResult{}, false
	}

	expired := r.session.DecrementTime(cur)
	res := TickResult{State: r.session.State()}

	if expired {
		// Time over: the session already auto-resolved with tsumo; hand
		// off in the same critical section so no tick is lost between
		// timers.
		next := r.session.AdvanceTurn()
		res.Expired = true
		res.ResolvedState = r.session.State()
		res.NextHolderID = next.ID
		res.NextGeneration = r.session.Generation()
	}
	return res, true
}

// LeaveResult reports what a departure changed.
type LeaveResult struct {
	Removed bool
	Ended   bool // session was live and the table went short-handed
	Empty   bool // room has nobody left and should be removed
	State   GameState
}

// Leave removes the participant with the given identity from both the
// member list and the session. Removing an absent identity is a no-op.
func (r *Room) Leave(identity string) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := LeaveResult{}
	for i, p := range r.members {
		if p.ID == identity {
			r.members = append(r.members[:i], r.members[i+1:]...)
			r.session.RemoveParticipant(identity)
			res.Removed = true
			break
		}
	}
	// A table short of four players cannot continue; any mid-session
	// departure ends the session.
	if res.Removed && r.session.Started() && len(r.members) < MaxParticipants {
		r.session.End()
		res.Ended = true
	}
	res.Empty = len(r.members) == 0
	res.State = r.session.State()
	return res
}

// IsFull reports whether the table is at capacity.
func (r *Room) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) >= MaxParticipants
}

// IsEmpty reports whether nobody is seated.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}

// Started reports whether the room's session is live.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Started()
}

// HasParticipant reports whether the identity is seated in this room.
func (r *Room) HasParticipant(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantLocked(identity) != nil
}

// State returns the current snapshot.
func (r *Room) State() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.State()
}

// EndSession marks the session over without clearing participants.
func (r *Room) EndSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.End()
}

func (r *Room) participantLocked(identity string) *Participant {
	for _, p := range r.members {
		if p.ID == identity {
			return p
		}
	}
	return nil
}
