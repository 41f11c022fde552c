package av

import (
	"fmt"
)

// Direction is the process-wide video direction of a Controller.
type Direction int

const (
	// DirectionNone means no video is flowing
	DirectionNone Direction = iota
	// DirectionSending means local video is being sent
	DirectionSending
	// DirectionReceiving means remote video is being rendered
	DirectionReceiving
	// DirectionSendingAndReceiving means both
	DirectionSendingAndReceiving
)

// String returns a human-readable representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionSending:
		return "sending"
	case DirectionReceiving:
		return "receiving"
	case DirectionSendingAndReceiving:
		return "sending_and_receiving"
	default:
		return "unknown"
	}
}

// IsSending reports whether local video is part of the direction.
func (d Direction) IsSending() bool {
	return d == DirectionSending || d == DirectionSendingAndReceiving
}

// IsReceiving reports whether remote video is part of the direction.
func (d Direction) IsReceiving() bool {
	return d == DirectionReceiving || d == DirectionSendingAndReceiving
}

// Event drives a Direction transition.
type Event int

const (
	// EventLocalSendStart fires when local capture starts
	EventLocalSendStart Event = iota
	// EventRemoteReceiveStart fires when rendering of remote video starts
	EventRemoteReceiveStart
	// EventRemoteReceiveEnd fires when rendering of remote video stops
	EventRemoteReceiveEnd
	// EventLocalSendEnd fires when local capture stops
	EventLocalSendEnd
)

// String returns a human-readable representation of the event.
func (e Event) String() string {
	switch e {
	case EventLocalSendStart:
		return "local_send_start"
	case EventRemoteReceiveStart:
		return "remote_receive_start"
	case EventRemoteReceiveEnd:
		return "remote_receive_end"
	case EventLocalSendEnd:
		return "local_send_end"
	default:
		return "unknown"
	}
}

type transition struct {
	from  Direction
	event Event
}

var transitions = map[transition]Direction{
	{DirectionNone, EventLocalSendStart}:                  DirectionSending,
	{DirectionReceiving, EventLocalSendStart}:             DirectionSendingAndReceiving,
	{DirectionNone, EventRemoteReceiveStart}:              DirectionReceiving,
	{DirectionSending, EventRemoteReceiveStart}:           DirectionSendingAndReceiving,
	{DirectionSendingAndReceiving, EventRemoteReceiveEnd}: DirectionSending,
	{DirectionReceiving, EventRemoteReceiveEnd}:           DirectionNone,
	{DirectionSendingAndReceiving, EventLocalSendEnd}:     DirectionReceiving,
	{DirectionSending, EventLocalSendEnd}:                 DirectionNone,
}

// Next returns the direction that follows d on event. Pairs without a table
// entry return d unchanged together with ErrInvalidTransition.
func (d Direction) Next(event Event) (Direction, error) {
	next, ok := transitions[transition{from: d, event: event}]
	if !ok {
		return d, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, d)
	}
	return next, nil
}
