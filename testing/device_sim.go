package testing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/sirupsen/logrus"
)

// DeviceEvent is one open or close seen by the simulation.
type DeviceEvent struct {
	Op    string // "open" or "close"
	Kind  interfaces.DeviceKind
	Index int
	Slot  interfaces.Slot
}

// RenderRecord is one frame written to an output slot.
type RenderRecord struct {
	Slot   interfaces.Slot
	Width  uint16
	Height uint16
}

type simSlot struct {
	kind   interfaces.DeviceKind
	index  int
	peerID uint32
	cb     interfaces.CaptureFunc
}

// SimulatedDeviceGateway implements interfaces.DeviceGateway with a fixed,
// in-memory device list. Capture is driven by the test through Capture, so
// every frame arrives synchronously on the calling goroutine.
type SimulatedDeviceGateway struct {
	mu sync.Mutex

	names    [2][]string
	primary  [2]int
	open     map[interfaces.Slot]*simSlot
	nextSlot interfaces.Slot

	initialized bool
	initErr     error
	openErr     [2]error
	closeErr    error
	registerErr error

	events   []DeviceEvent
	rendered []RenderRecord
}

// NewSimulatedDeviceGateway creates a gateway enumerating the given device names.
func NewSimulatedDeviceGateway(inputs, outputs []string) *SimulatedDeviceGateway {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function":     "NewSimulatedDeviceGateway",
		"input_count":  len(inputs),
		"output_count": len(outputs),
	}).Info("Creating simulated device gateway for testing")

	return &SimulatedDeviceGateway{
		names: [2][]string{
			append([]string(nil), inputs...),
			append([]string(nil), outputs...),
		},
		open:     make(map[interfaces.Slot]*simSlot),
		nextSlot: 1,
	}
}

// Init implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) Init() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initErr != nil {
		return g.initErr
	}
	g.initialized = true
	return nil
}

// Terminate implements interfaces.DeviceGateway, closing every open slot.
func (g *SimulatedDeviceGateway) Terminate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	slots := make([]interfaces.Slot, 0, len(g.open))
	for slot := range g.open {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	for _, slot := range slots {
		s := g.open[slot]
		g.events = append(g.events, DeviceEvent{Op: "close", Kind: s.kind, Index: s.index, Slot: slot})
		delete(g.open, slot)
	}
	g.initialized = false
	return nil
}

// OpenPrimary implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) OpenPrimary(kind interfaces.DeviceKind) (interfaces.Slot, error) {
	g.mu.Lock()
	index := g.primary[kind]
	g.mu.Unlock()

	return g.Open(kind, index)
}

// Open implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) Open(kind interfaces.DeviceKind, index int) (interfaces.Slot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return 0, interfaces.ErrGatewayNotInitialized
	}
	if g.openErr[kind] != nil {
		return 0, g.openErr[kind]
	}
	if index < 0 || index >= len(g.names[kind]) {
		return 0, fmt.Errorf("%w: %s device %d", interfaces.ErrNoSuchDevice, kind, index)
	}

	slot := g.nextSlot
	g.nextSlot++
	g.open[slot] = &simSlot{kind: kind, index: index}
	g.events = append(g.events, DeviceEvent{Op: "open", Kind: kind, Index: index, Slot: slot})

	return slot, nil
}

// Close implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) Close(kind interfaces.DeviceKind, slot interfaces.Slot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.open[slot]
	if !ok || s.kind != kind {
		return fmt.Errorf("%w: %s slot %d", interfaces.ErrSlotNotOpen, kind, slot)
	}

	// The device is released even when the close reports failure.
	delete(g.open, slot)
	g.events = append(g.events, DeviceEvent{Op: "close", Kind: kind, Index: s.index, Slot: slot})

	return g.closeErr
}

// RegisterFrameCallback implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) RegisterFrameCallback(peerID uint32, slot interfaces.Slot, cb interfaces.CaptureFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.registerErr != nil {
		return g.registerErr
	}
	s, ok := g.open[slot]
	if !ok || s.kind != interfaces.DeviceInput {
		return fmt.Errorf("%w: input slot %d", interfaces.ErrSlotNotOpen, slot)
	}
	s.peerID = peerID
	s.cb = cb
	return nil
}

// WriteFrame implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) WriteFrame(slot interfaces.Slot, frame *video.Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.open[slot]
	if !ok || s.kind != interfaces.DeviceOutput {
		return interfaces.ErrDeviceNotActive
	}

	record := RenderRecord{Slot: slot}
	if frame != nil {
		record.Width = frame.Width
		record.Height = frame.Height
	}
	g.rendered = append(g.rendered, record)
	return nil
}

// Count implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) Count(kind interfaces.DeviceKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.names[kind])
}

// Names implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) Names(kind interfaces.DeviceKind) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.names[kind]...)
}

// SetPrimary implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) SetPrimary(kind interfaces.DeviceKind, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if index < 0 || index >= len(g.names[kind]) {
		return fmt.Errorf("%w: %s device %d", interfaces.ErrNoSuchDevice, kind, index)
	}
	g.primary[kind] = index
	return nil
}

// Primary implements interfaces.DeviceGateway.
func (g *SimulatedDeviceGateway) Primary(kind interfaces.DeviceKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.primary[kind]
}

// Capture pushes a frame out of an open input slot to its registered callback.
// It returns false when the slot has no callback.
func (g *SimulatedDeviceGateway) Capture(slot interfaces.Slot, frame *video.Frame) bool {
	g.mu.Lock()
	s, ok := g.open[slot]
	var (
		cb     interfaces.CaptureFunc
		peerID uint32
	)
	if ok {
		cb, peerID = s.cb, s.peerID
	}
	g.mu.Unlock()

	if cb == nil {
		return false
	}
	cb(peerID, frame)
	return true
}

// SetInitError makes Init fail with err.
func (g *SimulatedDeviceGateway) SetInitError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initErr = err
}

// SetOpenError makes every later open of kind fail with err (nil restores success).
func (g *SimulatedDeviceGateway) SetOpenError(kind interfaces.DeviceKind, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openErr[kind] = err
}

// SetCloseError makes every later Close report err after releasing the slot.
func (g *SimulatedDeviceGateway) SetCloseError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeErr = err
}

// SetRegisterError makes every later RegisterFrameCallback fail with err.
func (g *SimulatedDeviceGateway) SetRegisterError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registerErr = err
}

// OpenCount returns how many slots of kind are currently open.
func (g *SimulatedDeviceGateway) OpenCount(kind interfaces.DeviceKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, s := range g.open {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// IsOpen reports whether slot is open.
func (g *SimulatedDeviceGateway) IsOpen(slot interfaces.Slot) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.open[slot]
	return ok
}

// OpenIndex returns the device index behind an open slot.
func (g *SimulatedDeviceGateway) OpenIndex(slot interfaces.Slot) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.open[slot]
	if !ok {
		return 0, false
	}
	return s.index, true
}

// Events returns a copy of all open and close events.
func (g *SimulatedDeviceGateway) Events() []DeviceEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]DeviceEvent(nil), g.events...)
}

// Rendered returns a copy of all frames written to output slots.
func (g *SimulatedDeviceGateway) Rendered() []RenderRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RenderRecord(nil), g.rendered...)
}
