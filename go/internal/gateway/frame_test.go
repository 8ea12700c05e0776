package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/parlor/go/internal/events"
	"github.com/mcdev12/parlor/go/internal/parlor"
)

// The frame shapes are the contract with the browser client; these pin
// the exact field names.
func TestEncodeFrame(t *testing.T) {
	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{
			name:  "room_created",
			event: events.RoomCreated("ABC123"),
			want:  `{"event":"room_created","data":{"room_code":"ABC123"}}`,
		},
		{
			name:  "game_started has no payload",
			event: events.GameStarted(),
			want:  `{"event":"game_started"}`,
		},
		{
			name:  "turn",
			event: events.Turn("p1"),
			want:  `{"event":"turn","data":{"player_id":"p1"}}`,
		},
		{
			name: "game_state",
			event: events.GameState(parlor.GameState{
				Players: []parlor.PlayerState{
					{SID: "p1", Name: "east", RemainingTime: 25},
				},
				CurrentPlayer: "p1",
				Started:       true,
			}),
			want: `{"event":"game_state","data":{"players":[{"sid":"p1","name":"east","remaining_time":25}],"current_player":"p1","started":true}}`,
		},
		{
			name:  "game_ended",
			event: events.GameEnded("Not enough players"),
			want:  `{"event":"game_ended","data":{"message":"Not enough players"}}`,
		},
		{
			name:  "error",
			event: events.Error("invalid action"),
			want:  `{"event":"error","data":{"message":"invalid action"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(encodeFrame(tt.event)))
		})
	}
}
