package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/opd-ai/toxvideo/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Native geometry of generated pictures before scaling to the configured size.
const (
	NativeWidth  = 320
	NativeHeight = 240
)

// Config describes the devices a SyntheticGateway enumerates.
type Config struct {
	// Inputs and Outputs are the device names, index ordered
	Inputs  []string
	Outputs []string

	// Width and Height are the geometry of captured frames
	Width  uint16
	Height uint16

	// FrameInterval is the delay between captured frames
	FrameInterval time.Duration
}

// DefaultConfig returns two cameras and one window at 320x240, 10ms per frame.
func DefaultConfig() Config {
	return Config{
		Inputs:        []string{"Synthetic Camera 0", "Synthetic Camera 1"},
		Outputs:       []string{"Synthetic Window 0"},
		Width:         NativeWidth,
		Height:        NativeHeight,
		FrameInterval: 10 * time.Millisecond,
	}
}

type binding struct {
	peerID uint32
	cb     interfaces.CaptureFunc
}

type openDevice struct {
	kind  interfaces.DeviceKind
	index int

	// input devices
	cancel  context.CancelFunc
	done    chan struct{}
	binding atomic.Pointer[binding]

	// output devices
	rendered atomic.Uint64
}

// SyntheticGateway implements interfaces.DeviceGateway with generated test
// patterns in place of cameras and a frame counter in place of windows.
//
// Every open input device runs its own capture goroutine in an errgroup.
// Close stops and waits for that goroutine; Terminate stops all of them.
type SyntheticGateway struct {
	mu sync.Mutex

	cfg     Config
	scaler  *video.Scaler
	primary [2]int

	initialized bool
	ctx         context.Context
	cancel      context.CancelFunc
	group       *errgroup.Group

	open     map[interfaces.Slot]*openDevice
	nextSlot interfaces.Slot
}

// NewSyntheticGateway creates a gateway for cfg. Init must be called before
// any device is opened.
func NewSyntheticGateway(cfg Config) (*SyntheticGateway, error) {
	if len(cfg.Inputs) == 0 && len(cfg.Outputs) == 0 {
		return nil, fmt.Errorf("synthetic gateway: no devices configured")
	}
	if err := limits.ValidateFrameSize(int(cfg.Width), int(cfg.Height)); err != nil {
		return nil, fmt.Errorf("synthetic gateway: %w", err)
	}
	if cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return nil, fmt.Errorf("synthetic gateway: frame size %dx%d must be even", cfg.Width, cfg.Height)
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("synthetic gateway: frame interval must be positive")
	}

	cfg.Inputs = append([]string(nil), cfg.Inputs...)
	cfg.Outputs = append([]string(nil), cfg.Outputs...)

	return &SyntheticGateway{
		cfg:      cfg,
		scaler:   video.NewScaler(),
		open:     make(map[interfaces.Slot]*openDevice),
		nextSlot: 1,
	}, nil
}

// Init implements interfaces.DeviceGateway.
func (g *SyntheticGateway) Init() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.group, g.ctx = errgroup.WithContext(ctx)
	g.cancel = cancel
	g.initialized = true

	logrus.WithFields(logrus.Fields{
		"function": "Init",
		"inputs":   len(g.cfg.Inputs),
		"outputs":  len(g.cfg.Outputs),
		"width":    g.cfg.Width,
		"height":   g.cfg.Height,
	}).Info("Synthetic video devices initialized")
	return nil
}

// Terminate implements interfaces.DeviceGateway. It stops every capture
// goroutine and waits for all of them.
func (g *SyntheticGateway) Terminate() error {
	g.mu.Lock()
	if !g.initialized {
		g.mu.Unlock()
		return nil
	}

	closed := len(g.open)
	clear(g.open)

	group := g.group
	g.cancel()
	g.initialized = false
	g.group, g.ctx, g.cancel = nil, nil, nil
	g.mu.Unlock()

	err := group.Wait()

	logrus.WithFields(logrus.Fields{
		"function": "Terminate",
		"closed":   closed,
	}).Info("Synthetic video devices terminated")
	return err
}

// OpenPrimary implements interfaces.DeviceGateway.
func (g *SyntheticGateway) OpenPrimary(kind interfaces.DeviceKind) (interfaces.Slot, error) {
	g.mu.Lock()
	index := g.primary[kind]
	g.mu.Unlock()

	return g.Open(kind, index)
}

// Open implements interfaces.DeviceGateway.
func (g *SyntheticGateway) Open(kind interfaces.DeviceKind, index int) (interfaces.Slot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return 0, interfaces.ErrGatewayNotInitialized
	}
	names := g.names(kind)
	if index < 0 || index >= len(names) {
		return 0, fmt.Errorf("%w: %s device %d", interfaces.ErrNoSuchDevice, kind, index)
	}

	slot := g.nextSlot
	g.nextSlot++
	dev := &openDevice{kind: kind, index: index}

	if kind == interfaces.DeviceInput {
		ctx, cancel := context.WithCancel(g.ctx)
		dev.cancel = cancel
		dev.done = make(chan struct{})
		g.group.Go(func() error {
			defer close(dev.done)
			return g.capture(ctx, dev)
		})
	}
	g.open[slot] = dev

	logrus.WithFields(logrus.Fields{
		"function": "Open",
		"kind":     kind.String(),
		"index":    index,
		"name":     names[index],
		"slot":     slot,
	}).Debug("Synthetic device opened")
	return slot, nil
}

// Close implements interfaces.DeviceGateway. Closing an input waits until its
// capture goroutine has delivered its last frame.
func (g *SyntheticGateway) Close(kind interfaces.DeviceKind, slot interfaces.Slot) error {
	g.mu.Lock()
	dev, ok := g.open[slot]
	if !ok || dev.kind != kind {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s slot %d", interfaces.ErrSlotNotOpen, kind, slot)
	}
	delete(g.open, slot)
	g.mu.Unlock()

	if dev.cancel != nil {
		dev.cancel()
		<-dev.done
	}

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"kind":     kind.String(),
		"slot":     slot,
	}).Debug("Synthetic device closed")
	return nil
}

// RegisterFrameCallback implements interfaces.DeviceGateway.
func (g *SyntheticGateway) RegisterFrameCallback(peerID uint32, slot interfaces.Slot, cb interfaces.CaptureFunc) error {
	if cb == nil {
		return fmt.Errorf("synthetic gateway: nil capture callback")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dev, ok := g.open[slot]
	if !ok || dev.kind != interfaces.DeviceInput {
		return fmt.Errorf("%w: input slot %d", interfaces.ErrSlotNotOpen, slot)
	}
	dev.binding.Store(&binding{peerID: peerID, cb: cb})
	return nil
}

// WriteFrame implements interfaces.DeviceGateway.
func (g *SyntheticGateway) WriteFrame(slot interfaces.Slot, frame *video.Frame) error {
	g.mu.Lock()
	dev, ok := g.open[slot]
	g.mu.Unlock()

	if !ok || dev.kind != interfaces.DeviceOutput {
		return interfaces.ErrDeviceNotActive
	}
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("render on slot %d: %w", slot, err)
	}

	dev.rendered.Add(1)
	logrus.WithFields(logrus.Fields{
		"function": "WriteFrame",
		"slot":     slot,
		"width":    frame.Width,
		"height":   frame.Height,
	}).Trace("Frame rendered")
	return nil
}

// Count implements interfaces.DeviceGateway.
func (g *SyntheticGateway) Count(kind interfaces.DeviceKind) int {
	return len(g.names(kind))
}

// Names implements interfaces.DeviceGateway.
func (g *SyntheticGateway) Names(kind interfaces.DeviceKind) []string {
	return append([]string(nil), g.names(kind)...)
}

// SetPrimary implements interfaces.DeviceGateway.
func (g *SyntheticGateway) SetPrimary(kind interfaces.DeviceKind, index int) error {
	if index < 0 || index >= g.Count(kind) {
		return fmt.Errorf("%w: %s device %d", interfaces.ErrNoSuchDevice, kind, index)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.primary[kind] = index
	return nil
}

// Primary implements interfaces.DeviceGateway.
func (g *SyntheticGateway) Primary(kind interfaces.DeviceKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.primary[kind]
}

// RenderedFrames returns how many frames an open output slot has rendered.
func (g *SyntheticGateway) RenderedFrames(slot interfaces.Slot) uint64 {
	g.mu.Lock()
	dev, ok := g.open[slot]
	g.mu.Unlock()

	if !ok || dev.kind != interfaces.DeviceOutput {
		return 0
	}
	return dev.rendered.Load()
}

// names is safe without the mutex: the device lists never change after
// construction.
func (g *SyntheticGateway) names(kind interfaces.DeviceKind) []string {
	switch kind {
	case interfaces.DeviceInput:
		return g.cfg.Inputs
	case interfaces.DeviceOutput:
		return g.cfg.Outputs
	default:
		return nil
	}
}

// capture generates frames on dev until ctx is done. Input device index i
// shows pattern i modulo the number of patterns.
func (g *SyntheticGateway) capture(ctx context.Context, dev *openDevice) error {
	ticker := time.NewTicker(g.cfg.FrameInterval)
	defer ticker.Stop()

	pattern := video.Pattern(dev.index % patternCount)
	var n uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		b := dev.binding.Load()
		if b == nil {
			continue
		}

		frame, err := g.render(pattern, n)
		if err != nil {
			return fmt.Errorf("capture %s: %w", pattern, err)
		}
		n++
		b.cb(b.peerID, frame)
	}
}

const patternCount = 3

func (g *SyntheticGateway) render(pattern video.Pattern, n uint64) (*video.Frame, error) {
	frame := pattern.Generate(NativeWidth, NativeHeight, n)
	if !g.scaler.IsScalingRequired(NativeWidth, NativeHeight, g.cfg.Width, g.cfg.Height) {
		return frame, nil
	}
	return g.scaler.Scale(frame, g.cfg.Width, g.cfg.Height)
}
