package av

import (
	"fmt"
)

// Registry is the fixed-capacity table of Call records indexed by peer id.
//
// Registry does no locking of its own; the Controller serializes every access
// under its mutex.
type Registry struct {
	calls []Call
}

// NewRegistry creates a registry with room for capacity peers.
func NewRegistry(capacity int) *Registry {
	calls := make([]Call, capacity)
	for i := range calls {
		calls[i].PeerID = uint32(i)
	}
	return &Registry{calls: calls}
}

// Capacity returns the number of peer slots.
func (r *Registry) Capacity() int {
	return len(r.calls)
}

// Get returns the call record for peerID.
func (r *Registry) Get(peerID uint32) (*Call, error) {
	if uint64(peerID) >= uint64(len(r.calls)) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, peerID, len(r.calls))
	}
	return &r.calls[peerID], nil
}

// Reset unbinds both device slots of peerID's call and clears its active flag.
func (r *Registry) Reset(peerID uint32) error {
	call, err := r.Get(peerID)
	if err != nil {
		return err
	}
	call.reset()
	return nil
}

// Active returns the peer ids whose calls are transmitting, in ascending order.
func (r *Registry) Active() []uint32 {
	var peers []uint32
	for i := range r.calls {
		if r.calls[i].TransmissionActive {
			peers = append(peers, r.calls[i].PeerID)
		}
	}
	return peers
}

// InUse returns the peer ids whose calls hold a device slot or are
// transmitting, in ascending order.
func (r *Registry) InUse() []uint32 {
	var peers []uint32
	for i := range r.calls {
		c := &r.calls[i]
		if c.TransmissionActive || c.Input.IsBound() || c.Output.IsBound() {
			peers = append(peers, r.calls[i].PeerID)
		}
	}
	return peers
}
