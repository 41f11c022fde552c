package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/opd-ai/toxvideo/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrLoopbackClosed indicates the loopback peer has been stopped.
var ErrLoopbackClosed = errors.New("loopback transport closed")

// LoopbackConfig configures a Loopback transport.
type LoopbackConfig struct {
	// Echo delivers every sent frame back as an inbound frame from the same peer
	Echo bool

	// QueueSize bounds the inbound event queue. Frames beyond it are dropped.
	QueueSize int

	// ReportInterval is the period of stable bit rate reports. Zero disables them.
	ReportInterval time.Duration
}

// DefaultLoopbackConfig returns an echoing loopback with one report per second.
func DefaultLoopbackConfig() LoopbackConfig {
	return LoopbackConfig{
		Echo:           true,
		QueueSize:      64,
		ReportInterval: time.Second,
	}
}

type peerState struct {
	bitRate     uint32
	videoHidden bool
	paused      bool
}

type inbound struct {
	peerID uint32
	frame  *video.Frame
	state  interfaces.CallState
}

// Loopback implements interfaces.TransportPeer without a network. Peers are
// added with AddPeer; frames sent to a peer are echoed back as inbound
// frames, and the current bit rate of every sending peer is reported as
// stable on a timer.
//
// Callbacks run on the loopback's own goroutines. SendFrame never blocks, so
// it is safe to call from a capture goroutine that a device close waits on.
type Loopback struct {
	mu sync.RWMutex

	cfg   LoopbackConfig
	peers map[uint32]*peerState

	receiveCb   interfaces.VideoReceiveFunc
	bitRateCb   interfaces.BitRateStatusFunc
	callStateCb interfaces.CallStateFunc

	queue  chan inbound
	cancel context.CancelFunc
	group  *errgroup.Group
	closed bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewLoopback creates a stopped loopback transport.
func NewLoopback(cfg LoopbackConfig) *Loopback {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultLoopbackConfig().QueueSize
	}

	logrus.WithFields(logrus.Fields{
		"function":        "NewLoopback",
		"echo":            cfg.Echo,
		"queue_size":      cfg.QueueSize,
		"report_interval": cfg.ReportInterval,
	}).Info("Creating loopback transport")

	return &Loopback{
		cfg:   cfg,
		peers: make(map[uint32]*peerState),
		queue: make(chan inbound, cfg.QueueSize),
	}
}

// Start launches the delivery and report goroutines. They stop when ctx is
// done or Close is called.
func (l *Loopback) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLoopbackClosed
	}
	if l.group != nil {
		return nil
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.group, ctx = errgroup.WithContext(ctx)
	l.group.Go(func() error { return l.deliver(ctx) })
	if l.cfg.ReportInterval > 0 {
		l.group.Go(func() error { return l.report(ctx) })
	}
	return nil
}

// Close stops the loopback and waits for its goroutines.
func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	group, cancel := l.group, l.cancel
	l.mu.Unlock()

	if group == nil {
		return nil
	}
	cancel()
	err := group.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"sent":     l.sent.Load(),
		"dropped":  l.dropped.Load(),
	}).Info("Loopback transport closed")
	return err
}

// AddPeer starts a call with peerID.
func (l *Loopback) AddPeer(peerID uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.peers[peerID]; !ok {
		l.peers[peerID] = &peerState{}
	}
}

// RemovePeer ends the call with peerID and reports it finished.
func (l *Loopback) RemovePeer(peerID uint32) {
	l.mu.Lock()
	_, ok := l.peers[peerID]
	delete(l.peers, peerID)
	l.mu.Unlock()

	if ok {
		l.enqueue(inbound{peerID: peerID, state: interfaces.CallStateFinished})
	}
}

// HasPeer reports whether a call with peerID exists.
func (l *Loopback) HasPeer(peerID uint32) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.peers[peerID]
	return ok
}

// BitRate returns the last bit rate set for peerID.
func (l *Loopback) BitRate(peerID uint32) (uint32, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.peers[peerID]
	if !ok {
		return 0, false
	}
	return p.bitRate, true
}

// Stats returns how many frames were accepted and how many echoes were dropped.
func (l *Loopback) Stats() (sent, dropped uint64) {
	return l.sent.Load(), l.dropped.Load()
}

// CallbackVideoReceiveFrame implements interfaces.TransportPeer.
func (l *Loopback) CallbackVideoReceiveFrame(cb interfaces.VideoReceiveFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receiveCb = cb
}

// CallbackVideoBitRateStatus implements interfaces.TransportPeer.
func (l *Loopback) CallbackVideoBitRateStatus(cb interfaces.BitRateStatusFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bitRateCb = cb
}

// CallbackCallState implements interfaces.TransportPeer.
func (l *Loopback) CallbackCallState(cb interfaces.CallStateFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callStateCb = cb
}

// SetVideoBitRate implements interfaces.TransportPeer.
func (l *Loopback) SetVideoBitRate(peerID, bitRate uint32, force bool) error {
	if err := limits.ValidateBitRate(bitRate); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.peers[peerID]
	if !ok {
		return fmt.Errorf("%w: %d", interfaces.ErrUnknownPeer, peerID)
	}
	p.bitRate = bitRate

	logrus.WithFields(logrus.Fields{
		"function": "SetVideoBitRate",
		"peer_id":  peerID,
		"bit_rate": bitRate,
		"force":    force,
	}).Debug("Video bit rate set")
	return nil
}

// SendFrame implements interfaces.TransportPeer. Frames sent while the peer
// has video hidden, the call is paused, or the bit rate is zero are accepted
// and discarded.
func (l *Loopback) SendFrame(peerID uint32, frame *video.Frame) error {
	if err := interfaces.ClassifyFrame(frame); err != nil {
		return err
	}
	if err := limits.ValidateFrameSize(int(frame.Width), int(frame.Height)); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidFrame, err)
	}

	l.mu.RLock()
	p, ok := l.peers[peerID]
	var deliver bool
	if ok {
		deliver = l.cfg.Echo && !p.videoHidden && !p.paused && p.bitRate > 0
	}
	l.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %d", interfaces.ErrUnknownPeer, peerID)
	}

	l.sent.Add(1)
	if deliver {
		l.enqueue(inbound{peerID: peerID, frame: frame.Clone()})
	}
	return nil
}

// CallControl implements interfaces.TransportPeer.
func (l *Loopback) CallControl(peerID uint32, control interfaces.CallControl) error {
	l.mu.Lock()
	p, ok := l.peers[peerID]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", interfaces.ErrUnknownPeer, peerID)
	}

	switch control {
	case interfaces.CallControlShowVideo:
		p.videoHidden = false
	case interfaces.CallControlHideVideo:
		p.videoHidden = true
	case interfaces.CallControlPause:
		p.paused = true
	case interfaces.CallControlResume:
		p.paused = false
	case interfaces.CallControlCancel:
		delete(l.peers, peerID)
	}
	l.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "CallControl",
		"peer_id":  peerID,
		"control":  control.String(),
	}).Debug("Call control applied")

	if control == interfaces.CallControlCancel {
		l.enqueue(inbound{peerID: peerID, state: interfaces.CallStateFinished})
	}
	return nil
}

// enqueue hands an event to the delivery goroutine without blocking.
func (l *Loopback) enqueue(ev inbound) {
	select {
	case l.queue <- ev:
	default:
		l.dropped.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "enqueue",
			"peer_id":  ev.peerID,
		}).Warn("Loopback queue full, dropping event")
	}
}

func (l *Loopback) deliver(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-l.queue:
			l.mu.RLock()
			receiveCb, callStateCb := l.receiveCb, l.callStateCb
			l.mu.RUnlock()

			switch {
			case ev.frame != nil && receiveCb != nil:
				receiveCb(ev.peerID, ev.frame)
			case ev.frame == nil && callStateCb != nil:
				callStateCb(ev.peerID, ev.state)
			}
		}
	}
}

func (l *Loopback) report(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		type sample struct {
			peerID  uint32
			bitRate uint32
		}

		l.mu.RLock()
		cb := l.bitRateCb
		samples := make([]sample, 0, len(l.peers))
		for id, p := range l.peers {
			if p.bitRate > 0 {
				samples = append(samples, sample{peerID: id, bitRate: p.bitRate})
			}
		}
		l.mu.RUnlock()

		if cb == nil {
			continue
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].peerID < samples[j].peerID })
		for _, s := range samples {
			cb(s.peerID, true, s.bitRate)
		}
	}
}
