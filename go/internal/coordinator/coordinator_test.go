package coordinator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/parlor/go/internal/events"
	"github.com/mcdev12/parlor/go/internal/parlor"
)

type notification struct {
	connID   string
	roomCode string
	event    events.Event
}

// fakeNotifier records every publish and room association.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notification
	entered map[string]string // connID -> roomCode
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{entered: make(map[string]string)}
}

func (f *fakeNotifier) ToConn(connID string, e events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{connID: connID, event: e})
}

func (f *fakeNotifier) ToRoom(roomCode string, e events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{roomCode: roomCode, event: e})
}

func (f *fakeNotifier) EnterRoom(connID, roomCode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered[connID] = roomCode
}

func (f *fakeNotifier) LeaveRoom(connID, roomCode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entered, connID)
}

func (f *fakeNotifier) count(name events.Name) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.event.Name == name {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) last(name events.Name) (notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].event.Name == name {
			return f.sent[i], true
		}
	}
	return notification{}, false
}

type scheduledTurn struct {
	roomCode   string
	holderID   string
	generation uint64
}

// fakeScheduler records turn scheduling without running timers.
type fakeScheduler struct {
	mu    sync.Mutex
	turns []scheduledTurn
}

func (f *fakeScheduler) StartTurn(ctx context.Context, roomCode, holderID string, generation uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, scheduledTurn{roomCode: roomCode, holderID: holderID, generation: generation})
}

func setup(t *testing.T) (*Coordinator, *parlor.Directory, *fakeNotifier, *fakeScheduler) {
	t.Helper()
	dir := parlor.NewDirectory()
	n := newFakeNotifier()
	s := &fakeScheduler{}
	return New(dir, s, n), dir, n, s
}

func fillRoom(t *testing.T, c *Coordinator, n *fakeNotifier) string {
	t.Helper()
	require.NoError(t, c.CreateRoom(context.Background(), "p1", "east"))
	created, ok := n.last(events.NameRoomCreated)
	require.True(t, ok)
	code := created.event.Payload.(events.RoomCodePayload).RoomCode

	for _, id := range []string{"p2", "p3", "p4"} {
		require.NoError(t, c.JoinRoom(context.Background(), id, code, "player-"+id))
	}
	return code
}

func TestCoordinator_CreateRoom(t *testing.T) {
	t.Run("empty name rejected without side effects", func(t *testing.T) {
		c, dir, n, _ := setup(t)

		err := c.CreateRoom(context.Background(), "p1", "")

		assert.ErrorIs(t, err, parlor.ErrInvalidInput)
		assert.Equal(t, 0, dir.Len())
		assert.Empty(t, n.sent)
	})

	t.Run("creator is seated and notified", func(t *testing.T) {
		c, dir, n, s := setup(t)

		require.NoError(t, c.CreateRoom(context.Background(), "p1", "east"))

		require.Equal(t, 1, dir.Len())
		created, ok := n.last(events.NameRoomCreated)
		require.True(t, ok)
		assert.Equal(t, "p1", created.connID)

		code := created.event.Payload.(events.RoomCodePayload).RoomCode
		assert.Equal(t, code, n.entered["p1"])
		assert.Equal(t, 1, n.count(events.NameRoomJoined))
		assert.Empty(t, s.turns, "one player does not start a session")
	})
}

func TestCoordinator_JoinRoom(t *testing.T) {
	t.Run("validation and lookup failures", func(t *testing.T) {
		c, _, _, _ := setup(t)
		ctx := context.Background()

		assert.ErrorIs(t, c.JoinRoom(ctx, "p1", "", "east"), parlor.ErrInvalidInput)
		assert.ErrorIs(t, c.JoinRoom(ctx, "p1", "ABC123", ""), parlor.ErrInvalidInput)
		assert.ErrorIs(t, c.JoinRoom(ctx, "p1", "NOPE42", "east"), parlor.ErrRoomNotFound)
	})

	t.Run("full room rejected", func(t *testing.T) {
		c, _, n, _ := setup(t)
		code := fillRoom(t, c, n)

		err := c.JoinRoom(context.Background(), "p5", code, "extra")

		assert.ErrorIs(t, err, parlor.ErrRoomFull)
	})

	t.Run("fourth join starts the session exactly once", func(t *testing.T) {
		c, _, n, s := setup(t)
		code := fillRoom(t, c, n)

		assert.Equal(t, 1, n.count(events.NameGameStarted))

		turn, ok := n.last(events.NameTurn)
		require.True(t, ok)
		assert.Equal(t, "p1", turn.event.Payload.(events.TurnPayload).PlayerID)
		assert.Equal(t, code, turn.roomCode)

		require.Len(t, s.turns, 1)
		assert.Equal(t, code, s.turns[0].roomCode)
		assert.Equal(t, "p1", s.turns[0].holderID)
	})
}

func TestCoordinator_JoinRandom(t *testing.T) {
	t.Run("joins an open room", func(t *testing.T) {
		c, dir, n, _ := setup(t)
		require.NoError(t, c.CreateRoom(context.Background(), "p1", "east"))

		require.NoError(t, c.JoinRandom(context.Background(), "p2", "south"))

		assert.Equal(t, 1, dir.Len(), "no second room created")
		joined, ok := n.last(events.NameRoomJoined)
		require.True(t, ok)
		assert.Equal(t, "p2", joined.connID)
	})

	t.Run("creates a room when none is open", func(t *testing.T) {
		c, dir, n, _ := setup(t)
		code := fillRoom(t, c, n)

		require.NoError(t, c.JoinRandom(context.Background(), "p5", "extra"))

		assert.Equal(t, 2, dir.Len())
		created, ok := n.last(events.NameRoomCreated)
		require.True(t, ok)
		assert.Equal(t, "p5", created.connID)
		assert.NotEqual(t, code, created.event.Payload.(events.RoomCodePayload).RoomCode)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		c, _, _, _ := setup(t)
		assert.ErrorIs(t, c.JoinRandom(context.Background(), "p1", ""), parlor.ErrInvalidInput)
	})
}

func TestCoordinator_SubmitAction(t *testing.T) {
	t.Run("error kinds", func(t *testing.T) {
		c, _, n, _ := setup(t)
		ctx := context.Background()
		code := fillRoom(t, c, n)

		assert.ErrorIs(t, c.SubmitAction(ctx, "p1", "", "ron"), parlor.ErrInvalidInput)
		assert.ErrorIs(t, c.SubmitAction(ctx, "p1", code, ""), parlor.ErrInvalidInput)
		assert.ErrorIs(t, c.SubmitAction(ctx, "p1", "NOPE42", "ron"), parlor.ErrRoomNotFound)
		assert.ErrorIs(t, c.SubmitAction(ctx, "ghost", code, "ron"), parlor.ErrPlayerNotFound)
		assert.ErrorIs(t, c.SubmitAction(ctx, "p2", code, "ron"), parlor.ErrNotYourTurn)
		assert.ErrorIs(t, c.SubmitAction(ctx, "p1", code, "chi"), parlor.ErrInvalidAction)
	})

	t.Run("accepted action hands off the turn", func(t *testing.T) {
		c, _, n, s := setup(t)
		code := fillRoom(t, c, n)

		require.NoError(t, c.SubmitAction(context.Background(), "p1", code, "reach"))

		turn, ok := n.last(events.NameTurn)
		require.True(t, ok)
		assert.Equal(t, "p2", turn.event.Payload.(events.TurnPayload).PlayerID)

		require.Len(t, s.turns, 2, "session start plus the handoff")
		assert.Equal(t, "p2", s.turns[1].holderID)
		assert.Greater(t, s.turns[1].generation, s.turns[0].generation,
			"handoff must open a new turn window to cancel the old timer")
	})

	t.Run("back-to-back submissions from stale holder", func(t *testing.T) {
		c, _, n, _ := setup(t)
		ctx := context.Background()
		code := fillRoom(t, c, n)

		require.NoError(t, c.SubmitAction(ctx, "p1", code, "tsumo"))
		err := c.SubmitAction(ctx, "p1", code, "tsumo")

		assert.ErrorIs(t, err, parlor.ErrNotYourTurn)
	})
}

func TestCoordinator_Disconnect(t *testing.T) {
	t.Run("unknown identity is a no-op", func(t *testing.T) {
		c, _, n, _ := setup(t)
		c.Disconnect("ghost")
		assert.Empty(t, n.sent)
	})

	t.Run("mid-session departure to three players ends the session once", func(t *testing.T) {
		c, dir, n, _ := setup(t)
		code := fillRoom(t, c, n)

		c.Disconnect("p3")

		left, ok := n.last(events.NamePlayerLeft)
		require.True(t, ok)
		assert.Equal(t, "p3", left.event.Payload.(events.PlayerLeftPayload).PlayerID)

		room, ok := dir.Lookup(code)
		require.True(t, ok)
		assert.False(t, room.Started())
		assert.Equal(t, 1, n.count(events.NameGameEnded))
	})

	t.Run("last departure removes the room", func(t *testing.T) {
		c, dir, n, _ := setup(t)
		require.NoError(t, c.CreateRoom(context.Background(), "p1", "east"))
		created, _ := n.last(events.NameRoomCreated)
		code := created.event.Payload.(events.RoomCodePayload).RoomCode

		c.Disconnect("p1")

		_, ok := dir.Lookup(code)
		assert.False(t, ok)
	})

	t.Run("affects at most the one room holding the identity", func(t *testing.T) {
		c, dir, n, _ := setup(t)
		fillRoom(t, c, n)
		require.NoError(t, c.CreateRoom(context.Background(), "q1", "other"))

		c.Disconnect("q1")

		assert.Equal(t, 1, dir.Len())
		assert.Equal(t, 0, n.count(events.NameGameEnded))
	})
}
