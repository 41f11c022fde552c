// Package transport provides a TransportPeer that needs no network.
//
// Loopback keeps a table of peers in a call. Frames sent to a peer are
// validated the way an encoder would, then echoed back as inbound frames from
// that peer, so a single process exercises both the send and the render path.
// A report goroutine announces each sending peer's bit rate as stable.
//
//	lb := transport.NewLoopback(transport.DefaultLoopbackConfig())
//	lb.AddPeer(0)
//	if err := lb.Start(ctx); err != nil {
//	    return err
//	}
//	defer lb.Close()
package transport
