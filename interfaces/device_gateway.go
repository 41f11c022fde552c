package interfaces

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/toxvideo/av/video"
)

// Device errors reported by a DeviceGateway.
var (
	// ErrDeviceNotActive indicates the render target is not open.
	ErrDeviceNotActive = errors.New("device not active")

	// ErrNoSuchDevice indicates a device index outside the enumerated range.
	ErrNoSuchDevice = errors.New("no such device")

	// ErrSlotNotOpen indicates an operation on a slot that is not open.
	ErrSlotNotOpen = errors.New("device slot not open")

	// ErrGatewayNotInitialized indicates Init has not been called.
	ErrGatewayNotInitialized = errors.New("device gateway not initialized")
)

// DeviceKind selects capture or render devices.
type DeviceKind int

const (
	// DeviceInput is a capture device (camera)
	DeviceInput DeviceKind = iota
	// DeviceOutput is a render device (window)
	DeviceOutput
)

// String returns "in" or "out", the spelling used on the command line.
func (k DeviceKind) String() string {
	switch k {
	case DeviceInput:
		return "in"
	case DeviceOutput:
		return "out"
	default:
		return "unknown"
	}
}

// ParseDeviceKind parses "in" or "out" case-insensitively.
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch strings.ToLower(s) {
	case "in":
		return DeviceInput, nil
	case "out":
		return DeviceOutput, nil
	default:
		return 0, fmt.Errorf("invalid device kind %q", s)
	}
}

// Slot is an opaque handle identifying an open device instance.
type Slot uint32

// CaptureFunc receives each frame a capture device produces.
type CaptureFunc func(peerID uint32, frame *video.Frame)

// DeviceGateway opens, closes and moves frames through physical capture and
// render devices. Capture callbacks run on the device's own goroutine.
type DeviceGateway interface {
	// Init prepares the device subsystem
	Init() error

	// Terminate closes every open device and releases the subsystem
	Terminate() error

	// OpenPrimary opens the primary device of a kind
	OpenPrimary(kind DeviceKind) (Slot, error)

	// Open opens the device at index of a kind
	Open(kind DeviceKind, index int) (Slot, error)

	// Close closes an open slot
	Close(kind DeviceKind, slot Slot) error

	// RegisterFrameCallback routes frames captured on slot to cb, tagged with peerID
	RegisterFrameCallback(peerID uint32, slot Slot, cb CaptureFunc) error

	// WriteFrame renders a frame on an output slot. It fails with
	// ErrDeviceNotActive when the slot is not an open output device.
	WriteFrame(slot Slot, frame *video.Frame) error

	// Count returns how many devices of a kind are enumerated
	Count(kind DeviceKind) int

	// Names returns the enumerated device names of a kind, index ordered
	Names(kind DeviceKind) []string

	// SetPrimary makes the device at index the primary of its kind
	SetPrimary(kind DeviceKind, index int) error

	// Primary returns the index of the primary device of a kind
	Primary(kind DeviceKind) int
}
