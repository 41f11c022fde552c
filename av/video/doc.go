// Package video holds the raw picture model shared by the capture, render and
// transport sides of a video call.
//
// Frames are YUV420 with explicit strides:
//
//	frame := video.NewFrame(640, 480)
//	if err := frame.Validate(); err != nil {
//	    return err
//	}
//
// Validate distinguishes an empty frame (ErrEmptyFrame, the camera produced
// nothing) from a malformed one (ErrMalformedFrame, geometry and planes
// disagree); transports use that split to report NullFrame versus
// InvalidFrame.
//
// The Scaler resizes frames with bilinear interpolation so a render device
// can fit whatever size the remote peer sends:
//
//	scaled, err := video.NewScaler().Scale(frame, 320, 240)
//
// Pattern generates synthetic test pictures for capture devices that have no
// camera behind them.
package video
