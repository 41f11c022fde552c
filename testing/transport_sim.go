package testing

import (
	"sync"

	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/sirupsen/logrus"
)

// BitRateRecord is one SetVideoBitRate request seen by the simulation.
type BitRateRecord struct {
	PeerID  uint32
	BitRate uint32
	Force   bool
}

// SendRecord is one SendFrame request seen by the simulation.
type SendRecord struct {
	PeerID uint32
	Width  uint16
	Height uint16
	Err    error
}

// ControlRecord is one CallControl request seen by the simulation.
type ControlRecord struct {
	PeerID  uint32
	Control interfaces.CallControl
}

// SimulatedTransportPeer implements interfaces.TransportPeer without a network.
// Every request is recorded for test verification, and inbound events are
// injected with DeliverFrame, ReportBitRate and ReportCallState.
type SimulatedTransportPeer struct {
	mu sync.RWMutex

	receiveCb   interfaces.VideoReceiveFunc
	bitRateCb   interfaces.BitRateStatusFunc
	callStateCb interfaces.CallStateFunc

	bitRateLog []BitRateRecord
	sendLog    []SendRecord
	controlLog []ControlRecord

	bitRateErr error
	controlErr error
}

// NewSimulatedTransportPeer creates an empty simulated transport.
func NewSimulatedTransportPeer() *SimulatedTransportPeer {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedTransportPeer",
	}).Info("Creating simulated transport peer for testing")

	return &SimulatedTransportPeer{}
}

// CallbackVideoReceiveFrame implements interfaces.TransportPeer.
func (s *SimulatedTransportPeer) CallbackVideoReceiveFrame(cb interfaces.VideoReceiveFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiveCb = cb
}

// CallbackVideoBitRateStatus implements interfaces.TransportPeer.
func (s *SimulatedTransportPeer) CallbackVideoBitRateStatus(cb interfaces.BitRateStatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitRateCb = cb
}

// CallbackCallState implements interfaces.TransportPeer.
func (s *SimulatedTransportPeer) CallbackCallState(cb interfaces.CallStateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callStateCb = cb
}

// SetVideoBitRate implements interfaces.TransportPeer, recording the request.
func (s *SimulatedTransportPeer) SetVideoBitRate(peerID, bitRate uint32, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bitRateLog = append(s.bitRateLog, BitRateRecord{PeerID: peerID, BitRate: bitRate, Force: force})

	logrus.WithFields(logrus.Fields{
		"function": "SimulatedTransportPeer.SetVideoBitRate",
		"peer_id":  peerID,
		"bit_rate": bitRate,
		"force":    force,
		"rejected": s.bitRateErr != nil,
	}).Debug("Simulating video bit rate change")

	return s.bitRateErr
}

// SendFrame implements interfaces.TransportPeer. Frames are validated the way
// a real encoder would reject them, then recorded.
func (s *SimulatedTransportPeer) SendFrame(peerID uint32, frame *video.Frame) error {
	err := interfaces.ClassifyFrame(frame)

	record := SendRecord{PeerID: peerID, Err: err}
	if frame != nil {
		record.Width = frame.Width
		record.Height = frame.Height
	}

	s.mu.Lock()
	s.sendLog = append(s.sendLog, record)
	s.mu.Unlock()

	return err
}

// CallControl implements interfaces.TransportPeer, recording the request.
func (s *SimulatedTransportPeer) CallControl(peerID uint32, control interfaces.CallControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.controlLog = append(s.controlLog, ControlRecord{PeerID: peerID, Control: control})
	return s.controlErr
}

// SetBitRateError makes every later SetVideoBitRate fail with err (nil restores success).
func (s *SimulatedTransportPeer) SetBitRateError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitRateErr = err
}

// SetCallControlError makes every later CallControl fail with err (nil restores success).
func (s *SimulatedTransportPeer) SetCallControlError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controlErr = err
}

// DeliverFrame invokes the registered inbound frame callback.
func (s *SimulatedTransportPeer) DeliverFrame(peerID uint32, frame *video.Frame) {
	s.mu.RLock()
	cb := s.receiveCb
	s.mu.RUnlock()

	if cb != nil {
		cb(peerID, frame)
	}
}

// ReportBitRate invokes the registered bit rate status callback.
func (s *SimulatedTransportPeer) ReportBitRate(peerID uint32, stable bool, bitRate uint32) {
	s.mu.RLock()
	cb := s.bitRateCb
	s.mu.RUnlock()

	if cb != nil {
		cb(peerID, stable, bitRate)
	}
}

// ReportCallState invokes the registered call state callback.
func (s *SimulatedTransportPeer) ReportCallState(peerID uint32, state interfaces.CallState) {
	s.mu.RLock()
	cb := s.callStateCb
	s.mu.RUnlock()

	if cb != nil {
		cb(peerID, state)
	}
}

// HasCallbacks reports whether all three transport callbacks are registered.
func (s *SimulatedTransportPeer) HasCallbacks() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receiveCb != nil && s.bitRateCb != nil && s.callStateCb != nil
}

// BitRateLog returns a copy of all bit rate requests.
func (s *SimulatedTransportPeer) BitRateLog() []BitRateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]BitRateRecord(nil), s.bitRateLog...)
}

// SendLog returns a copy of all send requests.
func (s *SimulatedTransportPeer) SendLog() []SendRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SendRecord(nil), s.sendLog...)
}

// ControlLog returns a copy of all call control requests.
func (s *SimulatedTransportPeer) ControlLog() []ControlRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ControlRecord(nil), s.controlLog...)
}

// Reset clears all logs and injected errors but keeps the callbacks.
func (s *SimulatedTransportPeer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitRateLog = nil
	s.sendLog = nil
	s.controlLog = nil
	s.bitRateErr = nil
	s.controlErr = nil
}
