package parlor

import (
	"math/rand"
	"sync"
	"time"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Directory is the process-wide registry of active rooms keyed by room
// code. Its lock covers only the mapping and code generation; each room
// serializes its own turn state, so unrelated rooms never contend here
// beyond map access.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	rng   *rand.Rand // guarded by mu
}

// NewDirectory creates an empty registry with its own seeded source.
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom generates a code that is unique among active rooms, inserts
// an empty room under it and returns the room. Generation and insertion
// happen under one lock so concurrent creators can never reserve the
// same code.
func (d *Directory) CreateRoom() *Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	var code string
	for {
		code = d.generateCodeLocked()
		if _, taken := d.rooms[code]; !taken {
			break
		}
	}
	room := NewRoom(code)
	d.rooms[code] = room
	return room
}

func (d *Directory) generateCodeLocked() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[d.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Lookup returns the room registered under code.
func (d *Directory) Lookup(code string) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[code]
	return room, ok
}

// RemoveIfEmpty deletes the room iff its member list is empty. Emptiness
// is re-validated under the directory lock immediately before deletion,
// so a room that just gained a member survives a concurrent cleanup.
func (d *Directory) RemoveIfEmpty(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[code]
	if !ok || !room.IsEmpty() {
		return false
	}
	delete(d.rooms, code)
	return true
}

// FindOpen returns some room that is neither full nor mid-session, for
// random matchmaking. Iteration order is not deterministic; at most one
// room is returned.
func (d *Directory) FindOpen() (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, room := range d.rooms {
		if !room.IsFull() && !room.Started() {
			return room, true
		}
	}
	return nil, false
}

// FindByParticipant locates the room the identity is seated in, if any.
// A participant belongs to at most one room at a time.
func (d *Directory) FindByParticipant(identity string) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, room := range d.rooms {
		if room.HasParticipant(identity) {
			return room, true
		}
	}
	return nil, false
}

// Len returns the number of active rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Codes returns the codes of all active rooms.
func (d *Directory) Codes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	codes := make([]string, 0, len(d.rooms))
	for code := range d.rooms {
		codes = append(codes, code)
	}
	return codes
}
