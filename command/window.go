package command

import "github.com/opd-ai/toxvideo/interfaces"

// Window is the chat window a command is typed into. It carries the state the
// commands are validated against and the user's device preferences.
type Window struct {
	// PeerID is the call slot of the friend this window talks to.
	PeerID uint32

	// Connected reports whether the friend is online.
	Connected bool

	// IsCall reports whether an audio/video call is up in this window.
	IsCall bool

	selection [2]int
	selected  [2]bool
}

// NewWindow creates a window for peerID with no device preferences.
func NewWindow(peerID uint32) *Window {
	return &Window{PeerID: peerID}
}

// Preference returns the device index last selected in this window for kind.
func (w *Window) Preference(kind interfaces.DeviceKind) (int, bool) {
	if kind != interfaces.DeviceInput && kind != interfaces.DeviceOutput {
		return 0, false
	}
	return w.selection[kind], w.selected[kind]
}

func (w *Window) setPreference(kind interfaces.DeviceKind, index int) {
	w.selection[kind] = index
	w.selected[kind] = true
}
