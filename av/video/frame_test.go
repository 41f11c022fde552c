package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame_Layout(t *testing.T) {
	frame := NewFrame(64, 48)

	assert.Equal(t, uint16(64), frame.Width)
	assert.Equal(t, uint16(48), frame.Height)
	assert.Equal(t, 64, frame.YStride)
	assert.Equal(t, 32, frame.UStride)
	assert.Equal(t, 32, frame.VStride)
	assert.Len(t, frame.Y, 64*48)
	assert.Len(t, frame.U, 32*24)
	assert.Len(t, frame.V, 32*24)
	require.NoError(t, frame.Validate())
}

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   func() *Frame
		wantErr error
	}{
		{
			name:    "nil frame",
			frame:   func() *Frame { return nil },
			wantErr: ErrEmptyFrame,
		},
		{
			name:    "no planes",
			frame:   func() *Frame { return &Frame{Width: 16, Height: 16} },
			wantErr: ErrEmptyFrame,
		},
		{
			name: "zero width",
			frame: func() *Frame {
				f := NewFrame(16, 16)
				f.Width = 0
				return f
			},
			wantErr: ErrMalformedFrame,
		},
		{
			name: "short luma plane",
			frame: func() *Frame {
				f := NewFrame(16, 16)
				f.Y = f.Y[:100]
				return f
			},
			wantErr: ErrMalformedFrame,
		},
		{
			name: "stride narrower than width",
			frame: func() *Frame {
				f := NewFrame(16, 16)
				f.UStride = 4
				return f
			},
			wantErr: ErrMalformedFrame,
		},
		{
			name: "odd width needs rounded-up chroma",
			frame: func() *Frame {
				f := &Frame{Width: 17, Height: 16, YStride: 17, UStride: 8, VStride: 8}
				f.Y = make([]byte, 17*16)
				f.U = make([]byte, 8*8)
				f.V = make([]byte, 8*8)
				return f
			},
			wantErr: ErrMalformedFrame,
		},
		{
			name:  "odd dimensions",
			frame: func() *Frame { return NewFrame(17, 15) },
		},
		{
			name: "padded strides",
			frame: func() *Frame {
				f := &Frame{Width: 16, Height: 16, YStride: 32, UStride: 16, VStride: 16}
				f.Y = make([]byte, 32*16)
				f.U = make([]byte, 16*8)
				f.V = make([]byte, 16*8)
				return f
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame().Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestChromaSize(t *testing.T) {
	tests := []struct {
		width, height uint16
		wantW, wantH  int
	}{
		{64, 48, 32, 24},
		{17, 16, 9, 8},
		{16, 17, 8, 9},
		{1, 1, 1, 1},
	}

	for _, tt := range tests {
		w, h := ChromaSize(tt.width, tt.height)
		assert.Equal(t, tt.wantW, w, "width of %dx%d", tt.width, tt.height)
		assert.Equal(t, tt.wantH, h, "height of %dx%d", tt.width, tt.height)
	}

	frame := NewFrame(17, 15)
	assert.Equal(t, 9, frame.UStride)
	assert.Len(t, frame.U, 9*8)
	assert.Len(t, frame.V, 9*8)
}

func TestFrame_Clone(t *testing.T) {
	frame := NewFrame(16, 16)
	frame.Y[0] = 42

	clone := frame.Clone()
	clone.Y[0] = 7

	assert.Equal(t, byte(42), frame.Y[0])
	assert.Equal(t, frame.Width, clone.Width)
	assert.Nil(t, (*Frame)(nil).Clone())
}
