// Package factory builds video sessions and the collaborators they run on.
//
// The factory switches between two sets of collaborators without changing
// consuming code:
//   - simulation: the in-memory transport peer and device gateway from the
//     testing package, driven entirely by the caller
//   - real: the synthetic device gateway from the device package and the
//     loopback transport from the transport package
//
// # Configuration
//
// The factory starts from a config.Config. NewSessionFactory(nil) uses
// config.Default() with the TOXVIDEO_* environment overrides applied:
//   - TOXVIDEO_USE_SIMULATION: "true" or "false" to enable simulation mode
//   - TOXVIDEO_BIT_RATE: target video bit rate in kbit/s
//   - TOXVIDEO_FRAME_DURATION: capture interval, e.g. "10ms"
//   - TOXVIDEO_LOG_LEVEL: logrus level name
//   - TOXVIDEO_METRICS_ADDRESS: enables metrics on the given address
//
// # Usage
//
//	factory := NewSessionFactory(cfg)
//
//	session, err := factory.CreateSession(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	err = session.Controller.StartVideo(0)
//
// # Testing Support
//
// CreateSimulationForTesting builds a session on simulated collaborators with
// unthrottled notices:
//
//	func TestMyFeature(t *testing.T) {
//	    session, err := NewSessionFactory(nil).CreateSimulationForTesting(nil, WithBitRate(800))
//	    // Drive session.Transport and session.Devices...
//	}
//
// # Mode Switching
//
//	factory.SwitchToSimulation()  // Switch to simulation mode
//	factory.SwitchToReal()        // Switch back to synthetic devices and loopback
package factory
