// Package limits provides centralized video size and rate limits.
// This ensures consistent validation across configuration, devices and transport.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxFrameWidth is the widest frame any component accepts
	MaxFrameWidth = 4096

	// MaxFrameHeight is the tallest frame any component accepts
	MaxFrameHeight = 4096

	// MinFrameDimension is the smallest width or height a scaled frame may have
	MinFrameDimension = 16

	// MaxVideoBitRate is the highest outbound bit rate in kbit/s (1 Gbit/s)
	MaxVideoBitRate = 1_000_000

	// MaxCalls is the largest call registry a session may be configured with
	MaxCalls = 1024
)

var (
	// ErrFrameTooSmall indicates a frame dimension below MinFrameDimension
	ErrFrameTooSmall = errors.New("frame too small")

	// ErrFrameTooLarge indicates a frame dimension above the maximum
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrBitRateTooHigh indicates a bit rate above MaxVideoBitRate
	ErrBitRateTooHigh = errors.New("bit rate too high")
)

// ValidateFrameSize validates frame geometry against the frame limits.
// Returns an error with context including the actual and allowed sizes.
func ValidateFrameSize(width, height int) error {
	if width < MinFrameDimension || height < MinFrameDimension {
		return fmt.Errorf("%w: %dx%d below %d", ErrFrameTooSmall, width, height, MinFrameDimension)
	}
	if width > MaxFrameWidth || height > MaxFrameHeight {
		return fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrFrameTooLarge, width, height, MaxFrameWidth, MaxFrameHeight)
	}
	return nil
}

// ValidateBitRate validates a video bit rate in kbit/s. Zero is valid and
// means video sending is off.
func ValidateBitRate(kbps uint32) error {
	if kbps > MaxVideoBitRate {
		return fmt.Errorf("%w: %d kbit/s exceeds limit %d", ErrBitRateTooHigh, kbps, MaxVideoBitRate)
	}
	return nil
}
