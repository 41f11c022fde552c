package testing

import (
	"errors"
	"sync"
	"testing"

	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
)

func TestSimulatedTransportPeer_ImplementsInterface(t *testing.T) {
	var _ interfaces.TransportPeer = NewSimulatedTransportPeer()
}

func TestSimulatedTransportPeer_Callbacks(t *testing.T) {
	sim := NewSimulatedTransportPeer()

	if sim.HasCallbacks() {
		t.Fatal("new simulation should have no callbacks")
	}

	var frames, reports, states int
	sim.CallbackVideoReceiveFrame(func(peerID uint32, f *video.Frame) { frames++ })
	sim.CallbackVideoBitRateStatus(func(peerID uint32, stable bool, bitRate uint32) { reports++ })
	sim.CallbackCallState(func(peerID uint32, state interfaces.CallState) { states++ })

	if !sim.HasCallbacks() {
		t.Fatal("expected all callbacks registered")
	}

	sim.DeliverFrame(1, video.NewFrame(64, 64))
	sim.ReportBitRate(1, true, 800)
	sim.ReportCallState(1, interfaces.CallStateFinished)

	if frames != 1 || reports != 1 || states != 1 {
		t.Errorf("expected one of each callback, got frames=%d reports=%d states=%d", frames, reports, states)
	}
}

func TestSimulatedTransportPeer_InjectWithoutCallbacks(t *testing.T) {
	sim := NewSimulatedTransportPeer()

	// Nothing registered; must not panic.
	sim.DeliverFrame(0, video.NewFrame(64, 64))
	sim.ReportBitRate(0, true, 1)
	sim.ReportCallState(0, interfaces.CallStateError)
}

func TestSimulatedTransportPeer_SendFrameClassifies(t *testing.T) {
	sim := NewSimulatedTransportPeer()

	if err := sim.SendFrame(2, video.NewFrame(64, 48)); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}
	if err := sim.SendFrame(2, nil); !errors.Is(err, interfaces.ErrNullFrame) {
		t.Errorf("expected ErrNullFrame, got %v", err)
	}
	bad := &video.Frame{Width: 64, Height: 64, Y: make([]byte, 4), YStride: 64}
	if err := sim.SendFrame(2, bad); !errors.Is(err, interfaces.ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame, got %v", err)
	}

	log := sim.SendLog()
	if len(log) != 3 {
		t.Fatalf("expected 3 send records, got %d", len(log))
	}
	if log[0].Width != 64 || log[0].Height != 48 || log[0].Err != nil {
		t.Errorf("unexpected first record %+v", log[0])
	}
	if log[1].Err == nil || log[2].Err == nil {
		t.Error("rejected sends should record their error")
	}
}

func TestSimulatedTransportPeer_ErrorInjection(t *testing.T) {
	sim := NewSimulatedTransportPeer()
	injected := errors.New("injected")

	sim.SetBitRateError(injected)
	sim.SetCallControlError(injected)

	if err := sim.SetVideoBitRate(1, 500, true); !errors.Is(err, injected) {
		t.Errorf("expected injected bit rate error, got %v", err)
	}
	if err := sim.CallControl(1, interfaces.CallControlShowVideo); !errors.Is(err, injected) {
		t.Errorf("expected injected control error, got %v", err)
	}

	// Rejected requests are still recorded.
	if got := sim.BitRateLog(); len(got) != 1 || got[0] != (BitRateRecord{PeerID: 1, BitRate: 500, Force: true}) {
		t.Errorf("unexpected bit rate log %+v", got)
	}
	if got := sim.ControlLog(); len(got) != 1 || got[0].Control != interfaces.CallControlShowVideo {
		t.Errorf("unexpected control log %+v", got)
	}

	sim.Reset()
	if err := sim.SetVideoBitRate(1, 0, false); err != nil {
		t.Errorf("Reset should clear injected errors, got %v", err)
	}
	if len(sim.BitRateLog()) != 1 || len(sim.ControlLog()) != 0 {
		t.Error("Reset should clear the logs")
	}
}

func TestSimulatedTransportPeer_LogIsCopy(t *testing.T) {
	sim := NewSimulatedTransportPeer()
	_ = sim.SetVideoBitRate(1, 100, false)

	log := sim.BitRateLog()
	log[0].BitRate = 999

	if sim.BitRateLog()[0].BitRate != 100 {
		t.Error("BitRateLog should return a copy")
	}
}

func TestSimulatedTransportPeer_ConcurrentSends(t *testing.T) {
	sim := NewSimulatedTransportPeer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(peer uint32) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = sim.SendFrame(peer, video.NewFrame(32, 32))
			}
		}(uint32(i))
	}
	wg.Wait()

	if n := len(sim.SendLog()); n != 200 {
		t.Errorf("expected 200 send records, got %d", n)
	}
}
