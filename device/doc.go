// Package device provides a DeviceGateway backed by synthetic devices.
//
// Input devices generate the av/video test patterns at a fixed frame rate,
// scaled to the configured geometry. Output devices validate and count the
// frames written to them. The gateway stands in for a real camera and window
// stack in the example program and in integration tests.
package device
