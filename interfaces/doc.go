// Package interfaces defines the two collaborators a video session runs on.
//
// [TransportPeer] is the call engine: it negotiates the outbound bit rate,
// transmits frames, sends call control actions, and reports inbound frames,
// bit rate stability and the remote call state through callbacks.
//
// [DeviceGateway] is the device subsystem: it enumerates capture and render
// devices, opens and closes them as [Slot] handles, delivers captured frames
// to a [CaptureFunc] and renders frames on output slots.
//
// Both are implemented twice in this module: by the simulations in the
// testing package, driven by the test, and by the synthetic devices in the
// device package together with the loopback transport in the transport
// package. The factory package chooses between them:
//
//	session, err := factory.NewSessionFactory(cfg).CreateSession(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
// # Errors
//
// Collaborator failures are reported with the sentinel errors of this
// package, for use with errors.Is:
//
//   - [ErrNullFrame] and [ErrInvalidFrame] from SendFrame
//   - [ErrUnknownPeer] for a peer without a call
//   - [ErrDeviceNotActive] from WriteFrame on a slot that is not an open output
//   - [ErrNoSuchDevice], [ErrSlotNotOpen] and [ErrGatewayNotInitialized]
//     from the device lifecycle
//
// [ClassifyFrame] maps frame validation onto the send errors so every
// TransportPeer reports them the same way.
package interfaces
