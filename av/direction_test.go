package av

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection_Next_Table(t *testing.T) {
	tests := []struct {
		from  Direction
		event Event
		want  Direction
	}{
		{DirectionNone, EventLocalSendStart, DirectionSending},
		{DirectionReceiving, EventLocalSendStart, DirectionSendingAndReceiving},
		{DirectionNone, EventRemoteReceiveStart, DirectionReceiving},
		{DirectionSending, EventRemoteReceiveStart, DirectionSendingAndReceiving},
		{DirectionSendingAndReceiving, EventRemoteReceiveEnd, DirectionSending},
		{DirectionReceiving, EventRemoteReceiveEnd, DirectionNone},
		{DirectionSendingAndReceiving, EventLocalSendEnd, DirectionReceiving},
		{DirectionSending, EventLocalSendEnd, DirectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			got, err := tt.from.Next(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirection_Next_UnlistedPairsAreNoOps(t *testing.T) {
	directions := []Direction{DirectionNone, DirectionSending, DirectionReceiving, DirectionSendingAndReceiving}
	events := []Event{EventLocalSendStart, EventRemoteReceiveStart, EventRemoteReceiveEnd, EventLocalSendEnd}

	invalid := 0
	for _, d := range directions {
		for _, e := range events {
			got, err := d.Next(e)
			if _, listed := transitions[transition{from: d, event: e}]; listed {
				continue
			}
			invalid++
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s on %s", e, d)
			assert.Equal(t, d, got, "%s on %s must not move", e, d)
		}
	}
	assert.Equal(t, 8, invalid)
}

func TestDirection_Sequences(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   Direction
	}{
		{
			name:   "send then receive",
			events: []Event{EventLocalSendStart, EventRemoteReceiveStart},
			want:   DirectionSendingAndReceiving,
		},
		{
			name:   "receive then send then stop receiving",
			events: []Event{EventRemoteReceiveStart, EventLocalSendStart, EventRemoteReceiveEnd},
			want:   DirectionSending,
		},
		{
			name:   "full round trip",
			events: []Event{EventLocalSendStart, EventRemoteReceiveStart, EventLocalSendEnd, EventRemoteReceiveEnd},
			want:   DirectionNone,
		},
		{
			name:   "duplicate start is ignored",
			events: []Event{EventLocalSendStart, EventLocalSendStart, EventLocalSendEnd},
			want:   DirectionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DirectionNone
			for _, e := range tt.events {
				d, _ = d.Next(e)
			}
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestDirection_Helpers(t *testing.T) {
	assert.False(t, DirectionNone.IsSending())
	assert.False(t, DirectionNone.IsReceiving())
	assert.True(t, DirectionSending.IsSending())
	assert.False(t, DirectionSending.IsReceiving())
	assert.True(t, DirectionReceiving.IsReceiving())
	assert.True(t, DirectionSendingAndReceiving.IsSending())
	assert.True(t, DirectionSendingAndReceiving.IsReceiving())

	assert.Equal(t, "sending_and_receiving", DirectionSendingAndReceiving.String())
	assert.Equal(t, "unknown", Direction(42).String())
	assert.Equal(t, "remote_receive_end", EventRemoteReceiveEnd.String())
}
