package av

import (
	"errors"
)

// Sentinel errors for av package operations.
// These errors enable reliable error classification using errors.Is().

// Setup errors.
var (
	// ErrConfiguration indicates the transport or device subsystem is absent
	// or failed to initialize. Video is unavailable for the whole session.
	ErrConfiguration = errors.New("video subsystem not configured")

	// ErrControllerClosed indicates the controller has been shut down.
	ErrControllerClosed = errors.New("video controller is shut down")
)

// Device errors.
var (
	// ErrDeviceOpenFailed indicates a capture or render device could not be opened.
	ErrDeviceOpenFailed = errors.New("failed to open video device")

	// ErrDeviceCloseFailed indicates a capture or render device did not close cleanly.
	ErrDeviceCloseFailed = errors.New("failed to close video device")

	// ErrFrameRejected indicates a single frame was dropped on the send or render path.
	ErrFrameRejected = errors.New("video frame rejected")
)

// Transport errors.
var (
	// ErrBitRateRejected indicates the transport refused a bit rate change.
	ErrBitRateRejected = errors.New("video bit rate rejected")

	// ErrCallControlFailed indicates the transport refused a call control action.
	ErrCallControlFailed = errors.New("call control failed")
)

// Validation errors.
var (
	// ErrInvalidSelection indicates a device index outside the enumerated range.
	ErrInvalidSelection = errors.New("invalid device selection")

	// ErrInvalidArgument indicates a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange indicates a peer id outside the call registry.
	ErrOutOfRange = errors.New("peer id out of range")

	// ErrInvalidTransition indicates an event with no entry in the direction table.
	ErrInvalidTransition = errors.New("invalid direction transition")
)

// ErrorCode is the last-error indicator kept in VideoConfig.
type ErrorCode int

const (
	// ErrorCodeNone means no video operation has failed
	ErrorCodeNone ErrorCode = iota
	// ErrorCodeDeviceOpen means a device failed to open
	ErrorCodeDeviceOpen
	// ErrorCodeDeviceClose means a device failed to close
	ErrorCodeDeviceClose
	// ErrorCodeBitRate means the transport rejected a bit rate
	ErrorCodeBitRate
	// ErrorCodeCallControl means the transport rejected a call control
	ErrorCodeCallControl
	// ErrorCodeFrame means a frame was dropped
	ErrorCodeFrame
	// ErrorCodeInternal covers every other failure
	ErrorCodeInternal
)

// String returns a short name for the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeNone:
		return "none"
	case ErrorCodeDeviceOpen:
		return "device_open"
	case ErrorCodeDeviceClose:
		return "device_close"
	case ErrorCodeBitRate:
		return "bit_rate"
	case ErrorCodeCallControl:
		return "call_control"
	case ErrorCodeFrame:
		return "frame"
	default:
		return "internal"
	}
}

// errorCodeFor maps an error onto the code recorded in VideoConfig.
func errorCodeFor(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrorCodeNone
	case errors.Is(err, ErrDeviceOpenFailed):
		return ErrorCodeDeviceOpen
	case errors.Is(err, ErrDeviceCloseFailed):
		return ErrorCodeDeviceClose
	case errors.Is(err, ErrBitRateRejected):
		return ErrorCodeBitRate
	case errors.Is(err, ErrCallControlFailed):
		return ErrorCodeCallControl
	case errors.Is(err, ErrFrameRejected):
		return ErrorCodeFrame
	default:
		return ErrorCodeInternal
	}
}
