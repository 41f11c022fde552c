package interfaces

import (
	"errors"
	"testing"

	"github.com/opd-ai/toxvideo/av/video"
)

func TestParseDeviceKind(t *testing.T) {
	tests := []struct {
		input   string
		want    DeviceKind
		wantErr bool
	}{
		{"in", DeviceInput, false},
		{"IN", DeviceInput, false},
		{"out", DeviceOutput, false},
		{"Out", DeviceOutput, false},
		{"", 0, true},
		{"input", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDeviceKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDeviceKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDeviceKind(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeviceKindString(t *testing.T) {
	if DeviceInput.String() != "in" || DeviceOutput.String() != "out" || DeviceKind(9).String() != "unknown" {
		t.Error("unexpected DeviceKind names")
	}
}

func TestCallControlValues(t *testing.T) {
	// Values match the ToxAV API.
	if CallControlResume != 0 || CallControlCancel != 2 || CallControlShowVideo != 6 {
		t.Error("CallControl values do not match ToxAV")
	}
	if CallControlShowVideo.String() != "show_video" || CallControl(42).String() != "unknown" {
		t.Error("unexpected CallControl names")
	}
}

func TestCallState(t *testing.T) {
	if CallStateError != 1 || CallStateFinished != 2 || CallStateAcceptingVideo != 32 {
		t.Error("CallState bits do not match ToxAV")
	}

	state := CallStateSendingAudio | CallStateSendingVideo
	if !state.Has(CallStateSendingVideo) || state.Has(CallStateAcceptingVideo) {
		t.Error("Has reported the wrong flags")
	}
	if state.IsTerminal() {
		t.Error("sending state is not terminal")
	}
	if !CallStateFinished.IsTerminal() || !(CallStateError | CallStateSendingVideo).IsTerminal() {
		t.Error("finished and error states are terminal")
	}
}

func TestClassifyFrame(t *testing.T) {
	if err := ClassifyFrame(video.NewFrame(16, 16)); err != nil {
		t.Errorf("valid frame classified as %v", err)
	}
	if err := ClassifyFrame(nil); !errors.Is(err, ErrNullFrame) {
		t.Errorf("nil frame: got %v, want ErrNullFrame", err)
	}
	if err := ClassifyFrame(&video.Frame{}); !errors.Is(err, ErrNullFrame) {
		t.Errorf("empty frame: got %v, want ErrNullFrame", err)
	}

	bad := &video.Frame{Width: 16, Height: 16, Y: make([]byte, 8), YStride: 16}
	err := ClassifyFrame(bad)
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("malformed frame: got %v, want ErrInvalidFrame", err)
	}
	if errors.Is(err, ErrNullFrame) {
		t.Error("malformed frame must not be reported as null")
	}
}
