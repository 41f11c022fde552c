package av

import (
	"github.com/opd-ai/toxvideo/interfaces"
)

// MaxCalls is the default capacity of the call registry. Peer ids index the
// registry directly, so valid ids are [0, MaxCalls).
const MaxCalls = 32

// SlotBinding is an optional device slot: either bound to an open device
// or unbound.
type SlotBinding struct {
	slot  interfaces.Slot
	bound bool
}

// Bind returns a binding to slot.
func Bind(slot interfaces.Slot) SlotBinding {
	return SlotBinding{slot: slot, bound: true}
}

// Get returns the bound slot and whether the binding is set.
func (b SlotBinding) Get() (interfaces.Slot, bool) {
	return b.slot, b.bound
}

// IsBound reports whether the binding holds an open slot.
func (b SlotBinding) IsBound() bool {
	return b.bound
}

// Call is the per-peer record of device bindings and transmission activity.
//
// Calls live in a Registry and are reused: ending a call resets its record
// rather than removing it.
type Call struct {
	PeerID uint32

	// Input is the capture device bound to this call
	Input SlotBinding
	// Output is the render device bound to this call
	Output SlotBinding

	// TransmissionActive is true while this call captures and sends video
	TransmissionActive bool
}

// reset unbinds both slots and clears activity, keeping the peer id.
func (c *Call) reset() {
	*c = Call{PeerID: c.PeerID}
}
