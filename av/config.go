package av

import (
	"fmt"
	"time"
)

// Default video settings.
const (
	// DefaultBitRate is the outbound video bit rate target in kbit/s
	DefaultBitRate uint32 = 5000
	// DefaultFrameDuration is the nominal interval between captured frames
	DefaultFrameDuration = 10 * time.Millisecond
)

// VideoConfig holds the session-wide video settings owned by a Controller.
type VideoConfig struct {
	// Enabled reports whether video is available for this session
	Enabled bool
	// BitRate is the current outbound bit rate target in kbit/s
	BitRate uint32
	// FrameDuration is the nominal capture interval
	FrameDuration time.Duration
	// LastError records the code of the last failed video operation
	LastError ErrorCode
}

// DefaultVideoConfig returns the built-in video settings.
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{
		Enabled:       true,
		BitRate:       DefaultBitRate,
		FrameDuration: DefaultFrameDuration,
		LastError:     ErrorCodeNone,
	}
}

// Validate checks that the settings can drive a session.
func (c VideoConfig) Validate() error {
	if c.BitRate == 0 {
		return fmt.Errorf("%w: bit rate must be positive", ErrInvalidArgument)
	}
	if c.FrameDuration <= 0 {
		return fmt.Errorf("%w: frame duration must be positive", ErrInvalidArgument)
	}
	return nil
}
