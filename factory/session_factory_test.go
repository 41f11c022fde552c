package factory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/toxvideo/av"
	"github.com/opd-ai/toxvideo/config"
	"github.com/opd-ai/toxvideo/device"
	"github.com/opd-ai/toxvideo/interfaces"
	testsim "github.com/opd-ai/toxvideo/testing"
	"github.com/opd-ai/toxvideo/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noticeLog struct {
	mu       sync.Mutex
	messages []string
}

func (n *noticeLog) Notify(peerID uint32, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *noticeLog) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func TestNewSessionFactory_Defaults(t *testing.T) {
	t.Setenv(config.EnvUseSimulation, "")
	t.Setenv(config.EnvBitRate, "")

	f := NewSessionFactory(nil)
	cfg := f.GetCurrentConfig()

	assert.Equal(t, config.Default(), cfg)
	assert.False(t, f.IsUsingSimulation())
}

func TestNewSessionFactory_AppliesEnvironment(t *testing.T) {
	t.Setenv(config.EnvUseSimulation, "true")
	t.Setenv(config.EnvBitRate, "700")

	f := NewSessionFactory(nil)

	assert.True(t, f.IsUsingSimulation())
	assert.Equal(t, uint32(700), f.GetCurrentConfig().Video.BitRate)
}

func TestNewSessionFactory_CopiesConfig(t *testing.T) {
	cfg := config.Default()
	f := NewSessionFactory(cfg)

	cfg.Video.BitRate = 1
	cfg.Devices.Inputs[0] = "changed"

	current := f.GetCurrentConfig()
	assert.Equal(t, uint32(5000), current.Video.BitRate)
	assert.Equal(t, "Synthetic Camera 0", current.Devices.Inputs[0])
}

func TestCreateTransport(t *testing.T) {
	f := NewSessionFactory(config.Default())

	lb, ok := f.CreateTransport().(*transport.Loopback)
	require.True(t, ok)
	assert.True(t, lb.HasPeer(0))

	f.SwitchToSimulation()
	_, ok = f.CreateTransport().(*testsim.SimulatedTransportPeer)
	assert.True(t, ok)
}

func TestCreateDevices(t *testing.T) {
	cfg := config.Default()
	cfg.Devices.PrimaryInput = 1
	f := NewSessionFactory(cfg)

	devices, err := f.CreateDevices()
	require.NoError(t, err)
	gw, ok := devices.(*device.SyntheticGateway)
	require.True(t, ok)
	assert.Equal(t, 1, gw.Primary(interfaces.DeviceInput))
	assert.Equal(t, cfg.Devices.Inputs, gw.Names(interfaces.DeviceInput))

	f.SwitchToSimulation()
	devices, err = f.CreateDevices()
	require.NoError(t, err)
	_, ok = devices.(*testsim.SimulatedDeviceGateway)
	assert.True(t, ok)
}

func TestCreateDevices_InvalidGeometry(t *testing.T) {
	bad := config.Default()
	bad.Devices.Width = 8
	_, err := createDevices(bad)
	assert.Error(t, err)
}

func TestCreateSessionWithConfig_Invalid(t *testing.T) {
	f := NewSessionFactory(config.Default())

	cfg := config.Default()
	cfg.Video.BitRate = 0
	_, err := f.CreateSessionWithConfig(cfg, nil)
	assert.ErrorContains(t, err, "video.bit_rate")
}

func TestCreateSimulationForTesting(t *testing.T) {
	f := NewSessionFactory(config.Default())
	notices := &noticeLog{}

	s, err := f.CreateSimulationForTesting(notices, WithBitRate(900), WithMetricsEnabled("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NotNil(t, s.Metrics)
	assert.Equal(t, uint32(900), s.Controller.VideoConfig().BitRate)

	peer, ok := s.Transport.(*testsim.SimulatedTransportPeer)
	require.True(t, ok)
	assert.True(t, peer.HasCallbacks())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Controller.StartVideo(0))

	assert.Equal(t, av.DirectionSending, s.Controller.Direction())
	assert.Equal(t, []string{av.NoticeCaptureStarting}, notices.all())
	require.NotEmpty(t, peer.BitRateLog())
	assert.Equal(t, uint32(900), peer.BitRateLog()[0].BitRate)
}

func TestCreateSimulationForTesting_CustomDevices(t *testing.T) {
	f := NewSessionFactory(config.Default())

	s, err := f.CreateSimulationForTesting(nil, WithDevices([]string{"only"}, []string{"screen"}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	names, err := s.Controller.ListDevices(interfaces.DeviceInput)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, names)
	assert.Nil(t, s.Metrics)
}

func TestSession_CloseTwice(t *testing.T) {
	f := NewSessionFactory(config.Default())

	s, err := f.CreateSimulationForTesting(nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), av.ErrControllerClosed)
}

func TestSession_LoopbackEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Transport.ReportInterval = 5 * time.Millisecond
	f := NewSessionFactory(cfg)

	s, err := f.CreateSession(&noticeLog{})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer func() { assert.NoError(t, s.Close()) }()

	gw, ok := s.Devices.(*device.SyntheticGateway)
	require.True(t, ok)

	require.NoError(t, s.Controller.StartVideo(0))

	// Echoed frames open the output lazily and get rendered.
	require.Eventually(t, func() bool {
		call, err := s.Controller.Call(0)
		if err != nil {
			return false
		}
		slot, bound := call.Output.Get()
		return bound && gw.RenderedFrames(slot) > 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, av.DirectionSendingAndReceiving, s.Controller.Direction())

	width, height, err := s.Controller.FrameGeometry(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(device.NativeWidth), width)
	assert.Equal(t, uint16(device.NativeHeight), height)
}

func TestSwitchModes(t *testing.T) {
	f := NewSessionFactory(config.Default())

	f.SwitchToSimulation()
	assert.True(t, f.IsUsingSimulation())

	f.SwitchToReal()
	assert.False(t, f.IsUsingSimulation())
}

func TestGetCurrentConfigReturnsCopy(t *testing.T) {
	f := NewSessionFactory(config.Default())

	cfg := f.GetCurrentConfig()
	cfg.UseSimulation = true
	cfg.Transport.Peers[0] = 7

	assert.False(t, f.IsUsingSimulation())
	assert.Equal(t, []uint32{0}, f.GetCurrentConfig().Transport.Peers)
}

func TestUpdateConfig(t *testing.T) {
	f := NewSessionFactory(config.Default())

	assert.Error(t, f.UpdateConfig(nil))

	bad := config.Default()
	bad.Notices.Burst = 0
	assert.Error(t, f.UpdateConfig(bad))
	assert.Equal(t, 3, f.GetCurrentConfig().Notices.Burst)

	good := config.Default()
	good.UseSimulation = true
	good.Video.BitRate = 1500
	require.NoError(t, f.UpdateConfig(good))

	good.Video.BitRate = 1
	assert.True(t, f.IsUsingSimulation())
	assert.Equal(t, uint32(1500), f.GetCurrentConfig().Video.BitRate)
}
