// Package limits provides centralized video size and rate constants and
// validation functions, so configuration, the synthetic devices and the
// loopback transport reject the same inputs.
//
// # Frame Limits
//
//   - MinFrameDimension (16): the smallest width or height the scaler accepts.
//   - MaxFrameWidth, MaxFrameHeight (4096): the largest frame any component
//     allocates.
//
// # Rate Limits
//
//   - MaxVideoBitRate (1,000,000 kbit/s): the ceiling for outbound video.
//     A zero bit rate is valid and turns sending off.
//
// # Validation Functions
//
//	if err := limits.ValidateFrameSize(w, h); err != nil {
//	    // ErrFrameTooSmall or ErrFrameTooLarge
//	}
//	if err := limits.ValidateBitRate(kbps); err != nil {
//	    // ErrBitRateTooHigh
//	}
package limits
