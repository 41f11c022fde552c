package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/opd-ai/toxvideo/av"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/sirupsen/logrus"
)

// Command names.
const (
	VideoStart  = "video-start"
	VideoEnd    = "video-end"
	VideoList   = "video-list"
	VideoSelect = "video-select"
	VideoQuery  = "video-query"
)

// Rejection messages.
const (
	MsgUnknownArguments   = "Unknown arguments."
	MsgNotSupported       = "ToxAV not supported!"
	MsgFriendOffline      = "Friend is offline."
	MsgNotInCall          = "Not in call!"
	MsgAlreadySending     = "Video is already sending in this call."
	MsgNotRunning         = "Video is not running in this call."
	MsgTypeRequired       = "Type must be specified!"
	MsgOneArgument        = "Only one argument allowed!"
	MsgIDRequired         = "Must have id!"
	MsgTwoArguments       = "Only two arguments allowed!"
	MsgInvalidInput       = "Invalid input"
	MsgInvalidSelection   = "Invalid selection!"
	MsgInvalidCommand     = "Invalid command."
	MsgDeviceChangeFailed = "Failed to change video device!"
)

// Session is the part of av.Controller the commands drive.
type Session interface {
	StartVideo(peerID uint32) error
	EndVideo(peerID uint32) error
	Direction() av.Direction
	ListDevices(kind interfaces.DeviceKind) ([]string, error)
	ValidateSelection(kind interfaces.DeviceKind, index int) error
	SetPrimaryDevice(kind interfaces.DeviceKind, index int) error
	SelectDevice(peerID uint32, kind interfaces.DeviceKind, index int) error
}

// Dispatcher parses command lines and runs them against a Session.
type Dispatcher struct {
	session Session
}

// NewDispatcher creates a dispatcher for session. A nil session means the
// audio/video subsystem is unavailable; the video commands then reject with
// MsgNotSupported.
func NewDispatcher(session Session) *Dispatcher {
	return &Dispatcher{session: session}
}

// Execute runs one command line typed into w and returns the lines to show
// in the window. A rejected command yields exactly one line and changes
// nothing.
func (d *Dispatcher) Execute(w *Window, line string) []string {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	var out []string
	switch name {
	case VideoStart:
		out = d.videoStart(w, args)
	case VideoEnd:
		out = d.videoEnd(w, args)
	case VideoList:
		out = d.videoList(args)
	case VideoSelect:
		out = d.videoSelect(w, args)
	case VideoQuery:
		out = d.videoQuery(w, args)
	default:
		out = []string{MsgInvalidCommand}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Execute",
		"command":  name,
		"peer_id":  w.PeerID,
		"lines":    len(out),
	}).Debug("Command executed")
	return out
}

func (d *Dispatcher) videoStart(w *Window, args []string) []string {
	switch {
	case len(args) != 0:
		return reject(MsgUnknownArguments)
	case d.session == nil:
		return reject(MsgNotSupported)
	case !w.Connected:
		return reject(MsgFriendOffline)
	case !w.IsCall:
		return reject(MsgNotInCall)
	case d.session.Direction().IsSending():
		return reject(MsgAlreadySending)
	}

	// The controller reports the outcome through its notifier.
	if err := d.session.StartVideo(w.PeerID); err != nil {
		logFailure("videoStart", w.PeerID, err)
	}
	return nil
}

func (d *Dispatcher) videoEnd(w *Window, args []string) []string {
	switch {
	case len(args) != 0:
		return reject(MsgUnknownArguments)
	case d.session == nil:
		return reject(MsgNotSupported)
	case d.session.Direction() == av.DirectionNone:
		return reject(MsgNotRunning)
	}

	if err := d.session.EndVideo(w.PeerID); err != nil {
		logFailure("videoEnd", w.PeerID, err)
	}
	return nil
}

func (d *Dispatcher) videoList(args []string) []string {
	if len(args) != 1 {
		if len(args) < 1 {
			return reject(MsgTypeRequired)
		}
		return reject(MsgOneArgument)
	}
	kind, err := interfaces.ParseDeviceKind(args[0])
	if err != nil {
		return reject("Invalid type: " + args[0])
	}
	if d.session == nil {
		return reject(MsgNotSupported)
	}

	names, err := d.session.ListDevices(kind)
	if err != nil {
		return reject(err.Error())
	}
	out := make([]string, 0, len(names))
	for i, name := range names {
		out = append(out, fmt.Sprintf("%d: %s", i, name))
	}
	return out
}

// parseSelection validates "{in|out} <index>" and returns the kind and index,
// or the rejection line.
func (d *Dispatcher) parseSelection(args []string) (interfaces.DeviceKind, int, string) {
	if len(args) != 2 {
		switch {
		case len(args) < 1:
			return 0, 0, MsgTypeRequired
		case len(args) < 2:
			return 0, 0, MsgIDRequired
		default:
			return 0, 0, MsgTwoArguments
		}
	}
	kind, err := interfaces.ParseDeviceKind(args[0])
	if err != nil {
		return 0, 0, "Invalid type: " + args[0]
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, MsgInvalidInput
	}
	if d.session == nil {
		return 0, 0, MsgNotSupported
	}
	if err := d.session.ValidateSelection(kind, index); err != nil {
		return 0, 0, MsgInvalidSelection
	}
	return kind, index, ""
}

// videoSelect makes the device the primary for new calls, records it as the
// window's preference, and moves an active call's capture onto it.
//
// One command covers two actions: changing the primary device, which only
// affects calls started later, and switching the device of the window's
// current call. The primary is set first, so a failed switch still leaves
// the new primary and preference in place.
func (d *Dispatcher) videoSelect(w *Window, args []string) []string {
	kind, index, msg := d.parseSelection(args)
	if msg != "" {
		return reject(msg)
	}

	if err := d.session.SetPrimaryDevice(kind, index); err != nil {
		logFailure("videoSelect", w.PeerID, err)
		if errors.Is(err, av.ErrInvalidSelection) {
			return reject(MsgInvalidSelection)
		}
		return reject(MsgDeviceChangeFailed)
	}
	w.setPreference(kind, index)

	if w.IsCall {
		if err := d.session.SelectDevice(w.PeerID, kind, index); err != nil {
			logFailure("videoSelect", w.PeerID, err)
			return []string{MsgDeviceChangeFailed}
		}
	}
	return nil
}

// videoQuery reports the name of a device and whether it is the window's
// current preference. It changes nothing.
func (d *Dispatcher) videoQuery(w *Window, args []string) []string {
	kind, index, msg := d.parseSelection(args)
	if msg != "" {
		return reject(msg)
	}

	names, err := d.session.ListDevices(kind)
	if err != nil || index >= len(names) {
		return reject(MsgInvalidSelection)
	}

	line := fmt.Sprintf("%d: %s", index, names[index])
	if pref, ok := w.Preference(kind); ok && pref == index {
		line += " (selected)"
	}
	return []string{line}
}

func reject(msg string) []string {
	return []string{msg}
}

func logFailure(function string, peerID uint32, err error) {
	logrus.WithFields(logrus.Fields{
		"function": function,
		"peer_id":  peerID,
		"error":    err.Error(),
	}).Warn("Video command failed")
}
