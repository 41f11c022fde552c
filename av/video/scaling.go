package video

import (
	"fmt"
)

// MinScaleDimension is the smallest width or height the scaler produces.
const MinScaleDimension = 16

// Scaler resizes YUV420 frames with bilinear interpolation.
//
// Render devices use it to fit incoming frames to their window size.
type Scaler struct{}

// NewScaler creates a new video frame scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight uint16) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}

// Scale resizes a YUV420 frame to the specified dimensions.
//
// Both target dimensions must be even and at least MinScaleDimension so the
// chroma planes stay exactly half size. When no scaling is needed a copy of
// the source is returned.
func (s *Scaler) Scale(frame *Frame, targetWidth, targetHeight uint16) (*Frame, error) {
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("source frame: %w", err)
	}

	if targetWidth%2 != 0 || targetHeight%2 != 0 {
		return nil, fmt.Errorf("target dimensions must be even for YUV420: %dx%d", targetWidth, targetHeight)
	}
	if targetWidth < MinScaleDimension || targetHeight < MinScaleDimension {
		return nil, fmt.Errorf("target dimensions too small: %dx%d (minimum %dx%d)",
			targetWidth, targetHeight, MinScaleDimension, MinScaleDimension)
	}

	if !s.IsScalingRequired(frame.Width, frame.Height, targetWidth, targetHeight) {
		return frame.Clone(), nil
	}

	result := NewFrame(targetWidth, targetHeight)

	scalePlane(frame.Y, int(frame.Width), int(frame.Height), frame.YStride,
		result.Y, int(targetWidth), int(targetHeight), result.YStride)

	srcUVWidth, srcUVHeight := ChromaSize(frame.Width, frame.Height)
	dstUVWidth, dstUVHeight := ChromaSize(targetWidth, targetHeight)

	scalePlane(frame.U, srcUVWidth, srcUVHeight, frame.UStride,
		result.U, dstUVWidth, dstUVHeight, result.UStride)
	scalePlane(frame.V, srcUVWidth, srcUVHeight, frame.VStride,
		result.V, dstUVWidth, dstUVHeight, result.VStride)

	return result, nil
}

// scalePlane resamples one plane; sizes were checked by Validate and NewFrame.
func scalePlane(src []byte, srcWidth, srcHeight, srcStride int,
	dst []byte, dstWidth, dstHeight, dstStride int,
) {
	if srcWidth == 0 || srcHeight == 0 {
		return
	}

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		srcY := float64(y) * yRatio
		y1 := int(srcY)
		y2 := min(y1+1, srcHeight-1)
		fy := srcY - float64(y1)

		for x := 0; x < dstWidth; x++ {
			srcX := float64(x) * xRatio
			x1 := int(srcX)
			x2 := min(x1+1, srcWidth-1)
			fx := srcX - float64(x1)

			p11 := float64(src[y1*srcStride+x1])
			p12 := float64(src[y1*srcStride+x2])
			p21 := float64(src[y2*srcStride+x1])
			p22 := float64(src[y2*srcStride+x2])

			top := p11*(1-fx) + p12*fx
			bottom := p21*(1-fx) + p22*fx

			dst[y*dstStride+x] = byte(top*(1-fy) + bottom*fy + 0.5)
		}
	}
}
