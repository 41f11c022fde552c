package video

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame indicates a frame with no plane data, the "capture
	// yielded nothing" case.
	ErrEmptyFrame = errors.New("video frame is empty")

	// ErrMalformedFrame indicates a frame whose geometry and planes disagree.
	ErrMalformedFrame = errors.New("video frame is malformed")
)

// Frame represents a video frame in YUV420 format.
//
// Planes are stored row by row; each stride is the number of bytes between
// the start of consecutive rows and may be larger than the visible width.
type Frame struct {
	Width   uint16
	Height  uint16
	Y       []byte // Luminance plane
	U       []byte // Chrominance U plane
	V       []byte // Chrominance V plane
	YStride int
	UStride int
	VStride int
}

// ChromaSize returns the dimensions of the U and V planes of a YUV420 frame.
// Odd luma dimensions round up so the last column and row keep a sample.
func ChromaSize(width, height uint16) (int, int) {
	return (int(width) + 1) / 2, (int(height) + 1) / 2
}

// NewFrame allocates a tightly packed YUV420 frame of the given size.
func NewFrame(width, height uint16) *Frame {
	uvWidth, uvHeight := ChromaSize(width, height)

	return &Frame{
		Width:   width,
		Height:  height,
		Y:       make([]byte, int(width)*int(height)),
		U:       make([]byte, uvWidth*uvHeight),
		V:       make([]byte, uvWidth*uvHeight),
		YStride: int(width),
		UStride: uvWidth,
		VStride: uvWidth,
	}
}

// IsEmpty reports whether the frame carries no picture at all.
func (f *Frame) IsEmpty() bool {
	return f == nil || (len(f.Y) == 0 && len(f.U) == 0 && len(f.V) == 0)
}

// Validate checks that the frame geometry is consistent with its planes.
//
// An absent or empty frame yields ErrEmptyFrame; any other inconsistency
// yields an error wrapping ErrMalformedFrame.
func (f *Frame) Validate() error {
	if f.IsEmpty() {
		return ErrEmptyFrame
	}

	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedFrame, f.Width, f.Height)
	}

	uvWidth, uvHeight := ChromaSize(f.Width, f.Height)

	if err := validatePlane("Y", f.Y, int(f.Width), int(f.Height), f.YStride); err != nil {
		return err
	}
	if err := validatePlane("U", f.U, uvWidth, uvHeight, f.UStride); err != nil {
		return err
	}
	return validatePlane("V", f.V, uvWidth, uvHeight, f.VStride)
}

func validatePlane(name string, plane []byte, width, height, stride int) error {
	if stride < width {
		return fmt.Errorf("%w: %s stride %d smaller than width %d", ErrMalformedFrame, name, stride, width)
	}
	if height == 0 {
		return nil
	}
	need := (height-1)*stride + width
	if len(plane) < need {
		return fmt.Errorf("%w: %s plane too small: got %d, expected %d", ErrMalformedFrame, name, len(plane), need)
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	return &Frame{
		Width:   f.Width,
		Height:  f.Height,
		Y:       append([]byte(nil), f.Y...),
		U:       append([]byte(nil), f.U...),
		V:       append([]byte(nil), f.V...),
		YStride: f.YStride,
		UStride: f.UStride,
		VStride: f.VStride,
	}
}
