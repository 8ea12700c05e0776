package parlor

// InitialAllowance is the per-turn time budget in seconds: the base 20
// seconds plus the 5 second extension.
const InitialAllowance = 25

// Participant is one seated player in a room. The ID is the opaque
// connection identity assigned by the transport layer; a participant
// belongs to exactly one session at a time.
type Participant struct {
	ID            string
	Name          string
	RemainingTime int // seconds left on the clock for the current turn
}

// NewParticipant seats a player with a fresh time allowance.
func NewParticipant(id, name string) *Participant {
	return &Participant{
		ID:            id,
		Name:          name,
		RemainingTime: InitialAllowance,
	}
}

// ResetTime restores the full allowance. Only the owning session calls
// this, on turn start and action resolution.
func (p *Participant) ResetTime() {
	p.RemainingTime = InitialAllowance
}
