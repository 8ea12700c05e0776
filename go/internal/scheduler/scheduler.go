// Package scheduler drives the per-turn countdown for active rooms:
// tick once per second, decrement the turn-holder's clock, publish the
// updated state and auto-resolve the turn when time runs out.
package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/parlor/go/internal/events"
	"github.com/mcdev12/parlor/go/internal/parlor"
)

// Scheduler runs one countdown goroutine per room while a session is
// live. Exactly one logical timer owns a room at any moment: each timer
// captures the (holder, generation) pair of the turn window it was
// scheduled for, and every tick re-validates that pair under the room
// lock. A timer whose window was superseded exits without mutating
// anything, so duplicate or stale timers are no-ops rather than races.
type Scheduler struct {
	directory *parlor.Directory
	notifier  events.Notifier
	clock     clockwork.Clock
	interval  time.Duration
}

// New creates a scheduler. Use clockwork.NewRealClock() in production
// and a FakeClock in tests.
func New(directory *parlor.Directory, notifier events.Notifier, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		directory: directory,
		notifier:  notifier,
		clock:     clock,
		interval:  time.Second,
	}
}

// StartTurn schedules the countdown for the turn window identified by
// (roomCode, holderID, generation). Scheduling a new turn implicitly
// cancels any in-flight timer for the room: the old timer observes the
// generation mismatch on its next tick and exits.
func (s *Scheduler) StartTurn(ctx context.Context, roomCode, holderID string, generation uint64) {
	log.Debug().
		Str("room_code", roomCode).
		Str("player_id", holderID).
		Uint64("generation", generation).
		Msg("scheduling turn timer")

	go s.runTurn(ctx, roomCode, holderID, generation)
}

func (s *Scheduler) runTurn(ctx context.Context, roomCode, holderID string, generation uint64) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("room_code", roomCode).Msg("turn timer stopped by shutdown")
			return
		case <-ticker.Chan():
		}

		room, ok := s.directory.Lookup(roomCode)
		if !ok {
			// Room was torn down while we slept.
			log.Debug().Str("room_code", roomCode).Msg("turn timer exiting, room gone")
			return
		}

		res, ok := room.Tick(holderID, generation)
		if !ok {
			// Session ended or the turn moved on without us.
			log.Debug().
				Str("room_code", roomCode).
				Str("player_id", holderID).
				Uint64("generation", generation).
				Msg("turn timer superseded")
			return
		}

		s.notifier.ToRoom(roomCode, events.GameState(res.State))

		if res.Expired {
			log.Info().
				Str("room_code", roomCode).
				Str("player_id", holderID).
				Msg("turn timed out, auto-resolving with tsumo")

			s.notifier.ToRoom(roomCode, events.GameState(res.ResolvedState))
			s.notifier.ToRoom(roomCode, events.Turn(res.NextHolderID))
			s.StartTurn(ctx, roomCode, res.NextHolderID, res.NextGeneration)
			return
		}
	}
}
