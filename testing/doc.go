// Package testing provides simulated collaborators for deterministic tests of
// video sessions.
//
// # Overview
//
// [SimulatedTransportPeer] implements interfaces.TransportPeer and
// [SimulatedDeviceGateway] implements interfaces.DeviceGateway entirely in
// memory. Nothing runs on a goroutine of its own: the test injects every
// inbound event and every captured frame, and each callback runs on the
// calling goroutine before the call returns.
//
// # Simulation vs Synthetic Implementation
//
//   - Simulation (this package): requests are recorded for verification,
//     and failures are injected with the Set*Error methods.
//
//   - Synthetic (device and transport packages): capture goroutines
//     generate test patterns and a loopback transport echoes frames back.
//     Used by the example program.
//
// The factory package switches between the two.
//
// # Usage
//
//	peer := testing.NewSimulatedTransportPeer()
//	devices := testing.NewSimulatedDeviceGateway(
//	    []string{"cam0", "cam1"},
//	    []string{"window0"},
//	)
//	ctrl, err := av.Initialize(peer, devices)
//
//	// Drive the controller
//	ctrl.StartLocalCapture(1)
//	slot, _ := ...                 // the input slot the controller opened
//	devices.Capture(slot, video.NewFrame(320, 240))
//	peer.ReportBitRate(1, true, 800)
//
//	// Verify requests
//	for _, rec := range peer.SendLog() {
//	    fmt.Printf("frame %dx%d to peer %d\n", rec.Width, rec.Height, rec.PeerID)
//	}
//
// Every constructor logs a "SIMULATION FUNCTION - NOT A REAL OPERATION"
// warning so simulated collaborators are never mistaken for real ones in
// production logs.
package testing
