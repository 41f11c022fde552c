package interfaces

import (
	"errors"
	"fmt"

	"github.com/opd-ai/toxvideo/av/video"
)

// Send frame errors reported by a TransportPeer.
var (
	// ErrNullFrame indicates the capture side handed over no picture data.
	ErrNullFrame = errors.New("video frame is null")

	// ErrInvalidFrame indicates the frame was rejected as malformed.
	ErrInvalidFrame = errors.New("video frame is invalid")
)

// ErrUnknownPeer indicates the transport has no call with the given peer.
var ErrUnknownPeer = errors.New("no call with this peer")

// CallControl represents call control actions.
// These values match the libtoxcore ToxAV API for compatibility.
type CallControl uint32

const (
	// CallControlResume resumes a paused call
	CallControlResume CallControl = iota
	// CallControlPause pauses an active call
	CallControlPause
	// CallControlCancel cancels/ends the call
	CallControlCancel
	// CallControlMuteAudio mutes outgoing audio
	CallControlMuteAudio
	// CallControlUnmuteAudio unmutes outgoing audio
	CallControlUnmuteAudio
	// CallControlHideVideo hides outgoing video
	CallControlHideVideo
	// CallControlShowVideo shows outgoing video
	CallControlShowVideo
)

// String returns the control name.
func (c CallControl) String() string {
	switch c {
	case CallControlResume:
		return "resume"
	case CallControlPause:
		return "pause"
	case CallControlCancel:
		return "cancel"
	case CallControlMuteAudio:
		return "mute_audio"
	case CallControlUnmuteAudio:
		return "unmute_audio"
	case CallControlHideVideo:
		return "hide_video"
	case CallControlShowVideo:
		return "show_video"
	default:
		return "unknown"
	}
}

// CallState is the bit set a transport reports for the remote side of a call.
// The bit values match libtoxcore's TOXAV_FRIEND_CALL_STATE flags.
type CallState uint32

const (
	// CallStateError indicates the call failed and is over
	CallStateError CallState = 1 << iota
	// CallStateFinished indicates the call ended normally
	CallStateFinished
	// CallStateSendingAudio indicates the peer is sending audio
	CallStateSendingAudio
	// CallStateSendingVideo indicates the peer is sending video
	CallStateSendingVideo
	// CallStateAcceptingAudio indicates the peer accepts audio
	CallStateAcceptingAudio
	// CallStateAcceptingVideo indicates the peer accepts video
	CallStateAcceptingVideo
)

// Has reports whether every bit of flag is set.
func (s CallState) Has(flag CallState) bool {
	return s&flag == flag
}

// IsTerminal reports whether the call is over.
func (s CallState) IsTerminal() bool {
	return s&(CallStateError|CallStateFinished) != 0
}

// VideoReceiveFunc receives a decoded inbound frame for a peer.
type VideoReceiveFunc func(peerID uint32, frame *video.Frame)

// BitRateStatusFunc receives a bit rate stability report for a peer.
type BitRateStatusFunc func(peerID uint32, stable bool, bitRate uint32)

// CallStateFunc receives the remote call state for a peer.
type CallStateFunc func(peerID uint32, state CallState)

// TransportPeer is the call-control and frame transmission engine the video
// session runs on. Implementations deliver callbacks on their own goroutines
// and must be safe for concurrent use.
type TransportPeer interface {
	// CallbackVideoReceiveFrame registers the inbound frame callback
	CallbackVideoReceiveFrame(cb VideoReceiveFunc)

	// CallbackVideoBitRateStatus registers the bit rate stability callback
	CallbackVideoBitRateStatus(cb BitRateStatusFunc)

	// CallbackCallState registers the remote call state callback
	CallbackCallState(cb CallStateFunc)

	// SetVideoBitRate sets the outbound video bit rate for a peer.
	// force requests the new rate be applied immediately rather than
	// negotiated over the next stability window.
	SetVideoBitRate(peerID, bitRate uint32, force bool) error

	// SendFrame transmits one frame to a peer. It fails with ErrNullFrame or
	// ErrInvalidFrame when the frame cannot be sent.
	SendFrame(peerID uint32, frame *video.Frame) error

	// CallControl sends a call control action to a peer
	CallControl(peerID uint32, control CallControl) error
}

// ClassifyFrame validates an outbound frame and maps the failure onto the
// send frame errors: an empty frame is ErrNullFrame, anything else that fails
// validation wraps ErrInvalidFrame.
func ClassifyFrame(frame *video.Frame) error {
	err := frame.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, video.ErrEmptyFrame):
		return ErrNullFrame
	default:
		return fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
}
