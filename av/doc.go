// Package av coordinates the video side of peer-to-peer calls.
//
// A Controller owns the per-peer call registry and the session-wide video
// direction. It opens and closes capture and render devices through an
// interfaces.DeviceGateway and drives outbound bit rate, frames and call
// control through an interfaces.TransportPeer. Transport events (inbound
// frames, bit rate reports, remote call state) are delivered to the
// Controller's On* methods, which Initialize registers automatically.
//
// # Direction
//
// The session direction is one of None, Sending, Receiving or
// SendingAndReceiving and moves only on four events:
//
//	None                + local-send-start     -> Sending
//	Receiving           + local-send-start     -> SendingAndReceiving
//	None                + remote-receive-start -> Receiving
//	Sending             + remote-receive-start -> SendingAndReceiving
//	SendingAndReceiving + remote-receive-end   -> Sending
//	Receiving           + remote-receive-end   -> None
//	SendingAndReceiving + local-send-end       -> Receiving
//	Sending             + local-send-end       -> None
//
// Any other pair leaves the direction unchanged and is logged.
//
// # Usage
//
//	ctrl, err := av.Initialize(transport, devices,
//	    av.WithMetrics(av.NewMetrics("toxvideo")),
//	    av.WithNotifier(av.NotifierFunc(func(peerID uint32, msg string) {
//	        fmt.Println(msg)
//	    })),
//	)
//	if err != nil {
//	    return err
//	}
//	defer ctrl.Shutdown()
//
//	if err := ctrl.StartVideo(peerID); err != nil {
//	    log.Printf("video: %v", err)
//	}
//
// # Sub-Packages
//
//   - av/video: frame model, scaling and synthetic test patterns
package av
