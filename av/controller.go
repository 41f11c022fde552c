package av

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// User-facing notices.
const (
	NoticeCaptureStarting = "Video capture starting."
	NoticeCaptureEnding   = "Video capture ending."
	NoticeStartFailed     = "Error starting transmission!"
	NoticeRegisterFailed  = "Failed to register input video handler!"
	NoticeSendFailed      = "Failed to send video frame"
	NoticeCaptureFailed   = "Failed to capture video frame"
	NoticePrepareFailed   = "Failed to prepare video frame"
)

// Option configures a Controller.
type Option func(*options)

type options struct {
	videoConfig VideoConfig
	metrics     *Metrics
	notifier    Notifier
	noticeEvery time.Duration
	noticeBurst int
	maxCalls    int
}

// WithVideoConfig replaces the default video settings.
func WithVideoConfig(cfg VideoConfig) Option {
	return func(o *options) {
		o.videoConfig = cfg
	}
}

// WithMetrics records session metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithNotifier routes user-facing notices to n. Notify may be called with the
// Controller lock held and must not call back into the Controller.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithNoticeRate allows burst capture-path notices, refilled one per every.
// A zero interval disables throttling.
func WithNoticeRate(every time.Duration, burst int) Option {
	return func(o *options) {
		o.noticeEvery = every
		o.noticeBurst = burst
	}
}

// WithMaxCalls sets the call registry capacity.
func WithMaxCalls(n int) Option {
	return func(o *options) {
		o.maxCalls = n
	}
}

// Controller coordinates the video session: it owns the call registry and the
// session direction, drives the device gateway and reacts to transport events.
//
// A single mutex guards the registry, direction and video settings for the
// whole of each operation, device action included. The capture callback runs
// on the device goroutine and never takes that mutex.
type Controller struct {
	mu sync.Mutex

	transport interfaces.TransportPeer
	devices   interfaces.DeviceGateway

	registry  *Registry
	direction Direction
	config    VideoConfig
	closed    bool

	// Written from the capture path without the mutex.
	geometry  []atomic.Uint32
	lastError atomic.Int32

	metrics   *Metrics
	notifier  Notifier
	notices   *noticeLimiter
	sessionID string
}

// Initialize creates a Controller on transport and devices. It fails with
// ErrConfiguration when either collaborator is missing or the device
// subsystem cannot be initialized.
func Initialize(transport interfaces.TransportPeer, devices interfaces.DeviceGateway, opts ...Option) (*Controller, error) {
	o := options{
		videoConfig: DefaultVideoConfig(),
		notifier:    logNotifier{},
		noticeEvery: DefaultNoticeInterval,
		noticeBurst: DefaultNoticeBurst,
		maxCalls:    MaxCalls,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if transport == nil {
		return nil, fmt.Errorf("%w: no transport", ErrConfiguration)
	}
	if devices == nil {
		return nil, fmt.Errorf("%w: no device gateway", ErrConfiguration)
	}
	if o.maxCalls <= 0 {
		return nil, fmt.Errorf("%w: max calls must be positive, got %d", ErrConfiguration, o.maxCalls)
	}
	if err := o.videoConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if o.notifier == nil {
		o.notifier = logNotifier{}
	}

	if err := devices.Init(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Initialize",
			"error":    err.Error(),
		}).Error("Failed to initialize video devices")
		return nil, fmt.Errorf("%w: device init: %v", ErrConfiguration, err)
	}

	c := &Controller{
		transport: transport,
		devices:   devices,
		registry:  NewRegistry(o.maxCalls),
		direction: DirectionNone,
		config:    o.videoConfig,
		geometry:  make([]atomic.Uint32, o.maxCalls),
		metrics:   o.metrics,
		notifier:  o.notifier,
		notices:   newNoticeLimiter(o.noticeEvery, o.noticeBurst),
		sessionID: uuid.NewString(),
	}
	c.config.LastError = ErrorCodeNone

	transport.CallbackVideoReceiveFrame(c.OnRemoteFrameReceived)
	transport.CallbackVideoBitRateStatus(c.OnBitrateStability)
	transport.CallbackCallState(c.OnCallState)

	c.metrics.setBitRate(c.config.BitRate)
	c.metrics.setDirection(c.direction)

	logrus.WithFields(logrus.Fields{
		"function":   "Initialize",
		"session_id": c.sessionID,
		"bit_rate":   c.config.BitRate,
		"max_calls":  o.maxCalls,
	}).Info("Video session initialized")

	return c, nil
}

// StartLocalCapture starts capturing and sending video to peerID.
//
// The outbound bit rate is forced to the configured target first; a rejection
// aborts with ErrBitRateRejected. A capture device still bound to the call is
// closed before the primary input is opened. An open failure aborts with
// ErrDeviceOpenFailed and leaves the direction unchanged. A failure to attach
// the capture callback is reported but does not abort.
func (c *Controller) StartLocalCapture(peerID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	return c.startLocalCaptureLocked(peerID)
}

func (c *Controller) startLocalCaptureLocked(peerID uint32) error {
	call, err := c.registry.Get(peerID)
	if err != nil {
		return err
	}

	if err := c.transport.SetVideoBitRate(peerID, c.config.BitRate, true); err != nil {
		err = fmt.Errorf("%w: set %d: %v", ErrBitRateRejected, c.config.BitRate, err)
		c.logFailure("StartLocalCapture", peerID, err).Error("Failed to set video bit rate")
		return err
	}

	if slot, ok := call.Input.Get(); ok {
		if err := c.devices.Close(interfaces.DeviceInput, slot); err != nil {
			c.metrics.deviceFailed(interfaces.DeviceInput, "close")
			c.logFailure("StartLocalCapture", peerID, fmt.Errorf("%w: %v", ErrDeviceCloseFailed, err)).
				Warn("Failed to close previous capture device")
		}
		call.Input = SlotBinding{}
	}

	slot, err := c.devices.OpenPrimary(interfaces.DeviceInput)
	if err != nil {
		err = fmt.Errorf("%w: input: %v", ErrDeviceOpenFailed, err)
		c.metrics.deviceFailed(interfaces.DeviceInput, "open")
		c.logFailure("StartLocalCapture", peerID, err).Error("Failed to open capture device")
		return err
	}
	call.Input = Bind(slot)

	if err := c.devices.RegisterFrameCallback(peerID, slot, c.onCapture); err != nil {
		c.metrics.deviceFailed(interfaces.DeviceInput, "register")
		c.logFailure("StartLocalCapture", peerID, err).Error("Failed to register capture callback")
		c.notifier.Notify(peerID, NoticeRegisterFailed)
	}

	c.applyLocked(peerID, EventLocalSendStart)
	call.TransmissionActive = true

	logrus.WithFields(logrus.Fields{
		"function": "StartLocalCapture",
		"peer_id":  peerID,
		"slot":     slot,
		"bit_rate": c.config.BitRate,
	}).Info("Local video capture started")

	return nil
}

// onCapture forwards one captured frame to the transport. It runs on the
// device goroutine and must not take c.mu.
func (c *Controller) onCapture(peerID uint32, frame *video.Frame) {
	if frame != nil && int(peerID) < len(c.geometry) {
		c.geometry[peerID].Store(uint32(frame.Width)<<16 | uint32(frame.Height))
	}

	err := c.transport.SendFrame(peerID, frame)
	if err == nil {
		c.metrics.frameSent()
		logrus.WithFields(logrus.Fields{
			"function": "onCapture",
			"peer_id":  peerID,
		}).Trace("Frame sent")
		return
	}

	c.metrics.sendDropped(err)
	c.lastError.Store(int32(ErrorCodeFrame))
	logrus.WithFields(logrus.Fields{
		"function": "onCapture",
		"peer_id":  peerID,
		"error":    err.Error(),
	}).Warn(NoticeSendFailed)

	if !c.notices.allow() {
		return
	}
	c.notifier.Notify(peerID, NoticeSendFailed)
	switch {
	case errors.Is(err, interfaces.ErrNullFrame):
		c.notifier.Notify(peerID, NoticeCaptureFailed)
	case errors.Is(err, interfaces.ErrInvalidFrame):
		c.notifier.Notify(peerID, NoticePrepareFailed)
	}
}

// StopLocalCapture stops sending video to peerID: the bit rate is forced to
// zero, every bound device slot of the call is closed and the call record is
// reset. Cleanup always runs to completion; the returned error combines every
// failure. The direction is not changed.
func (c *Controller) StopLocalCapture(peerID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	return c.stopLocalCaptureLocked(peerID)
}

func (c *Controller) stopLocalCaptureLocked(peerID uint32) error {
	call, err := c.registry.Get(peerID)
	if err != nil {
		return err
	}

	var errs error
	if err := c.transport.SetVideoBitRate(peerID, 0, true); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: set 0: %v", ErrBitRateRejected, err))
	}
	if slot, ok := call.Input.Get(); ok {
		if err := c.devices.Close(interfaces.DeviceInput, slot); err != nil {
			c.metrics.deviceFailed(interfaces.DeviceInput, "close")
			errs = multierr.Append(errs, fmt.Errorf("%w: input: %v", ErrDeviceCloseFailed, err))
		}
	}
	if slot, ok := call.Output.Get(); ok {
		if err := c.devices.Close(interfaces.DeviceOutput, slot); err != nil {
			c.metrics.deviceFailed(interfaces.DeviceOutput, "close")
			errs = multierr.Append(errs, fmt.Errorf("%w: output: %v", ErrDeviceCloseFailed, err))
		}
	}

	call.reset()
	c.geometry[peerID].Store(0)

	if errs != nil {
		c.logFailure("StopLocalCapture", peerID, errs).Warn("Video transmission stopped with errors")
		return errs
	}

	logrus.WithFields(logrus.Fields{
		"function": "StopLocalCapture",
		"peer_id":  peerID,
	}).Info("Local video capture stopped")
	return nil
}

// StartVideo asks the peer to show our video and starts local capture.
// A refused ShowVideo aborts with ErrCallControlFailed before anything else
// is touched. The capture outcome is also reported through the notifier.
func (c *Controller) StartVideo(peerID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if _, err := c.registry.Get(peerID); err != nil {
		return err
	}

	if err := c.transport.CallControl(peerID, interfaces.CallControlShowVideo); err != nil {
		err = fmt.Errorf("%w: %v", ErrCallControlFailed, err)
		c.logFailure("StartVideo", peerID, err).Warn("Failed to send show video control")
		return err
	}

	if err := c.startLocalCaptureLocked(peerID); err != nil {
		c.notifier.Notify(peerID, NoticeStartFailed)
		return err
	}
	c.notifier.Notify(peerID, NoticeCaptureStarting)
	return nil
}

// EndVideo ends the local video session. Nothing happens when no video is
// flowing. Otherwise the bit rate for peerID is forced to zero, transmission
// stops on every call in use, and the local-send-end event is applied.
func (c *Controller) EndVideo(peerID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if _, err := c.registry.Get(peerID); err != nil {
		return err
	}
	if c.direction == DirectionNone {
		logrus.WithFields(logrus.Fields{
			"function": "EndVideo",
			"peer_id":  peerID,
		}).Debug("No video session to end")
		return nil
	}

	c.notifier.Notify(peerID, NoticeCaptureEnding)

	var errs error
	if err := c.transport.SetVideoBitRate(peerID, 0, true); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: set 0: %v", ErrBitRateRejected, err))
	}
	for _, id := range c.registry.InUse() {
		errs = multierr.Append(errs, c.stopLocalCaptureLocked(id))
	}

	c.applyLocked(peerID, EventLocalSendEnd)

	if errs != nil {
		c.logFailure("EndVideo", peerID, errs).Warn("Video session ended with errors")
	}
	return errs
}

// OnRemoteFrameReceived renders an inbound frame from peerID. When the call has
// no usable output device, receiving is started first. Render failures are
// logged and the frame is dropped.
func (c *Controller) OnRemoteFrameReceived(peerID uint32, frame *video.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	call, err := c.registry.Get(peerID)
	if err != nil {
		c.logFailure("OnRemoteFrameReceived", peerID, err).Warn("Dropping frame from unknown peer")
		return
	}

	if slot, ok := call.Output.Get(); ok {
		err := c.devices.WriteFrame(slot, frame)
		if err == nil {
			c.metrics.frameRendered()
			return
		}
		if !errors.Is(err, interfaces.ErrDeviceNotActive) {
			c.dropRendered(peerID, err)
			return
		}
		// The gateway no longer knows the slot.
		call.Output = SlotBinding{}
	}

	if err := c.remoteReceiveStartLocked(peerID); err != nil {
		c.dropRendered(peerID, err)
		return
	}
	slot, _ := call.Output.Get()
	if err := c.devices.WriteFrame(slot, frame); err != nil {
		c.dropRendered(peerID, err)
		return
	}
	c.metrics.frameRendered()
}

func (c *Controller) dropRendered(peerID uint32, err error) {
	c.metrics.renderDropped()
	c.logFailure("OnRemoteFrameReceived", peerID, fmt.Errorf("%w: %v", ErrFrameRejected, err)).
		Warn("Dropping remote video frame")
}

// OnRemoteReceiveStart opens the primary output device for peerID and applies
// the remote-receive-start event. It does nothing when an output device is
// already bound.
func (c *Controller) OnRemoteReceiveStart(peerID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	return c.remoteReceiveStartLocked(peerID)
}

func (c *Controller) remoteReceiveStartLocked(peerID uint32) error {
	call, err := c.registry.Get(peerID)
	if err != nil {
		return err
	}
	if call.Output.IsBound() {
		return nil
	}

	slot, err := c.devices.OpenPrimary(interfaces.DeviceOutput)
	if err != nil {
		err = fmt.Errorf("%w: output: %v", ErrDeviceOpenFailed, err)
		c.metrics.deviceFailed(interfaces.DeviceOutput, "open")
		c.logFailure("OnRemoteReceiveStart", peerID, err).Error("Failed to open render device")
		return err
	}
	call.Output = Bind(slot)
	c.applyLocked(peerID, EventRemoteReceiveStart)

	logrus.WithFields(logrus.Fields{
		"function": "OnRemoteReceiveStart",
		"peer_id":  peerID,
		"slot":     slot,
	}).Info("Remote video receive started")
	return nil
}

// OnRemoteReceiveEnd closes the output device of peerID and applies the
// remote-receive-end event. It does nothing when no output device is bound.
// A close failure is returned, but the binding is cleared regardless.
func (c *Controller) OnRemoteReceiveEnd(peerID uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	return c.remoteReceiveEndLocked(peerID)
}

func (c *Controller) remoteReceiveEndLocked(peerID uint32) error {
	call, err := c.registry.Get(peerID)
	if err != nil {
		return err
	}
	slot, ok := call.Output.Get()
	if !ok {
		return nil
	}

	var closeErr error
	if err := c.devices.Close(interfaces.DeviceOutput, slot); err != nil {
		closeErr = fmt.Errorf("%w: output: %v", ErrDeviceCloseFailed, err)
		c.metrics.deviceFailed(interfaces.DeviceOutput, "close")
		c.logFailure("OnRemoteReceiveEnd", peerID, closeErr).Error("Failed to close render device")
	}
	call.Output = SlotBinding{}
	c.applyLocked(peerID, EventRemoteReceiveEnd)

	return closeErr
}

// OnBitrateStability adopts a bit rate the transport reports as stable.
// Unstable reports are ignored. A transport rejection is logged, not retried.
func (c *Controller) OnBitrateStability(peerID uint32, stable bool, bitRate uint32) {
	if !stable {
		logrus.WithFields(logrus.Fields{
			"function": "OnBitrateStability",
			"peer_id":  peerID,
			"bit_rate": bitRate,
		}).Debug("Ignoring unstable bit rate")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.config.BitRate = bitRate
	c.metrics.setBitRate(bitRate)

	if err := c.transport.SetVideoBitRate(peerID, bitRate, false); err != nil {
		c.logFailure("OnBitrateStability", peerID, fmt.Errorf("%w: set %d: %v", ErrBitRateRejected, bitRate, err)).
			Warn("Failed to apply stable bit rate")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "OnBitrateStability",
		"peer_id":  peerID,
		"bit_rate": bitRate,
	}).Debug("Video bit rate updated")
}

// OnCallState reacts to the remote call state of peerID. A finished or failed
// call is torn down; a peer that stops sending video has its render device
// closed.
func (c *Controller) OnCallState(peerID uint32, state interfaces.CallState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	call, err := c.registry.Get(peerID)
	if err != nil {
		c.logFailure("OnCallState", peerID, err).Warn("Ignoring call state for unknown peer")
		return
	}

	if state.IsTerminal() {
		c.endCallLocked(peerID, call)
		return
	}
	if !state.Has(interfaces.CallStateSendingVideo) && call.Output.IsBound() {
		_ = c.remoteReceiveEndLocked(peerID)
	}
}

func (c *Controller) endCallLocked(peerID uint32, call *Call) {
	wasSending := call.TransmissionActive

	errs := c.remoteReceiveEndLocked(peerID)
	errs = multierr.Append(errs, c.stopLocalCaptureLocked(peerID))
	if wasSending {
		c.applyLocked(peerID, EventLocalSendEnd)
	}

	entry := logrus.WithFields(logrus.Fields{
		"function": "OnCallState",
		"peer_id":  peerID,
	})
	if errs != nil {
		entry.WithField("error", errs.Error()).Warn("Call ended with errors")
		return
	}
	entry.Info("Call ended")
}

// Shutdown stops transmission on every call and terminates the device
// gateway. The transport belongs to the caller and is left alone. Every
// later operation fails with ErrControllerClosed.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}

	var errs error
	for _, id := range c.registry.InUse() {
		errs = multierr.Append(errs, c.stopLocalCaptureLocked(id))
	}
	if err := c.devices.Terminate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("terminate devices: %w", err))
	}

	c.direction = DirectionNone
	c.metrics.setDirection(c.direction)
	c.closed = true

	entry := logrus.WithFields(logrus.Fields{
		"function":   "Shutdown",
		"session_id": c.sessionID,
	})
	if errs != nil {
		entry.WithField("error", errs.Error()).Warn("Video session shut down with errors")
		return errs
	}
	entry.Info("Video session shut down")
	return nil
}

// Direction returns the current session direction.
func (c *Controller) Direction() Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction
}

// VideoConfig returns a copy of the current video settings.
func (c *Controller) VideoConfig() VideoConfig {
	c.mu.Lock()
	cfg := c.config
	c.mu.Unlock()

	cfg.LastError = ErrorCode(c.lastError.Load())
	return cfg
}

// Call returns a copy of the call record for peerID.
func (c *Controller) Call(peerID uint32) (Call, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, err := c.registry.Get(peerID)
	if err != nil {
		return Call{}, err
	}
	return *call, nil
}

// FrameGeometry returns the size of the last frame captured for peerID, or
// zeros when nothing was captured since transmission last stopped. It reads
// the value the capture path stores and does not take the Controller lock.
func (c *Controller) FrameGeometry(peerID uint32) (width, height uint16, err error) {
	if uint64(peerID) >= uint64(len(c.geometry)) {
		return 0, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, peerID, len(c.geometry))
	}
	g := c.geometry[peerID].Load()
	return uint16(g >> 16), uint16(g), nil
}

// SessionID returns the identifier attached to this session's log entries.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// SuppressedNotices returns how many capture-path notices were throttled.
func (c *Controller) SuppressedNotices() uint64 {
	return c.notices.suppressedCount()
}

// applyLocked moves the direction on event. Events with no transition are
// logged and ignored.
func (c *Controller) applyLocked(peerID uint32, event Event) {
	next, err := c.direction.Next(event)
	if err != nil {
		c.metrics.transitionRejected()
		logrus.WithFields(logrus.Fields{
			"function":  "applyLocked",
			"peer_id":   peerID,
			"direction": c.direction.String(),
			"event":     event.String(),
		}).Warn("Ignoring direction event with no transition")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "applyLocked",
		"peer_id":  peerID,
		"from":     c.direction.String(),
		"to":       next.String(),
	}).Debug("Direction changed")

	c.direction = next
	c.metrics.setDirection(next)
}

// logFailure records err as the last error and returns a log entry for it.
func (c *Controller) logFailure(function string, peerID uint32, err error) *logrus.Entry {
	c.lastError.Store(int32(errorCodeFor(err)))
	return logrus.WithFields(logrus.Fields{
		"function":   function,
		"peer_id":    peerID,
		"session_id": c.sessionID,
		"error":      err.Error(),
	})
}
