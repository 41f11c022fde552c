package factory

import (
	"context"
	"fmt"
	"sync"

	"github.com/opd-ai/toxvideo/av"
	"github.com/opd-ai/toxvideo/config"
	"github.com/opd-ai/toxvideo/device"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/opd-ai/toxvideo/testing"
	"github.com/opd-ai/toxvideo/transport"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// SessionFactory creates video sessions and their collaborators based on
// configuration. It is safe for concurrent use; all methods are protected by
// an internal mutex.
type SessionFactory struct {
	mu            sync.RWMutex
	defaultConfig *config.Config
}

// TestConfigOption is a functional option for customizing test simulation configuration.
type TestConfigOption func(*config.Config)

// NewSessionFactory creates a new factory. A nil cfg means config.Default()
// with environment overrides applied.
func NewSessionFactory(cfg *config.Config) *SessionFactory {
	if cfg == nil {
		cfg = config.Default()
		config.ApplyEnvironmentOverrides(cfg)
	} else {
		cfg = cfg.Clone()
	}
	logConfigurationInfo(cfg)

	return &SessionFactory{
		defaultConfig: cfg,
	}
}

// logConfigurationInfo logs the final configuration settings for debugging purposes.
func logConfigurationInfo(cfg *config.Config) {
	logrus.WithFields(logrus.Fields{
		"function":        "NewSessionFactory",
		"use_simulation":  cfg.UseSimulation,
		"bit_rate":        cfg.Video.BitRate,
		"frame_duration":  cfg.Video.FrameDuration.String(),
		"max_calls":       cfg.Video.MaxCalls,
		"inputs":          len(cfg.Devices.Inputs),
		"outputs":         len(cfg.Devices.Outputs),
		"metrics_enabled": cfg.Metrics.Enabled,
	}).Info("Created session factory with configuration")
}

// Session bundles a Controller with the collaborators it was built on.
type Session struct {
	Controller *av.Controller
	Transport  interfaces.TransportPeer
	Devices    interfaces.DeviceGateway

	// Metrics is nil unless metrics are enabled.
	Metrics *av.Metrics

	loopback *transport.Loopback
}

// Start runs the background goroutines of the transport, if it has any.
func (s *Session) Start(ctx context.Context) error {
	if s.loopback == nil {
		return nil
	}
	return s.loopback.Start(ctx)
}

// Close shuts the controller down and stops the transport.
func (s *Session) Close() error {
	err := s.Controller.Shutdown()
	if s.loopback != nil {
		err = multierr.Append(err, s.loopback.Close())
	}
	return err
}

// CreateTransport creates a transport peer based on configuration.
func (f *SessionFactory) CreateTransport() interfaces.TransportPeer {
	f.mu.RLock()
	cfg := f.defaultConfig.Clone()
	f.mu.RUnlock()
	return createTransport(cfg)
}

func createTransport(cfg *config.Config) interfaces.TransportPeer {
	if cfg.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "CreateTransport",
			"type":     "simulation",
		}).Info("Creating simulated transport peer")
		return testing.NewSimulatedTransportPeer()
	}

	logrus.WithFields(logrus.Fields{
		"function":        "CreateTransport",
		"type":            "loopback",
		"echo":            cfg.Transport.Echo,
		"queue_size":      cfg.Transport.QueueSize,
		"report_interval": cfg.Transport.ReportInterval.String(),
		"peers":           cfg.Transport.Peers,
	}).Info("Creating loopback transport peer")

	lb := transport.NewLoopback(transport.LoopbackConfig{
		Echo:           cfg.Transport.Echo,
		QueueSize:      cfg.Transport.QueueSize,
		ReportInterval: cfg.Transport.ReportInterval,
	})
	for _, peer := range cfg.Transport.Peers {
		lb.AddPeer(peer)
	}
	return lb
}

// CreateDevices creates a device gateway based on configuration. The
// configured primary devices are applied to the synthetic gateway; the
// simulated gateway keeps index 0.
func (f *SessionFactory) CreateDevices() (interfaces.DeviceGateway, error) {
	f.mu.RLock()
	cfg := f.defaultConfig.Clone()
	f.mu.RUnlock()
	return createDevices(cfg)
}

func createDevices(cfg *config.Config) (interfaces.DeviceGateway, error) {
	if cfg.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "CreateDevices",
			"type":     "simulation",
		}).Info("Creating simulated device gateway")
		return testing.NewSimulatedDeviceGateway(cfg.Devices.Inputs, cfg.Devices.Outputs), nil
	}

	logrus.WithFields(logrus.Fields{
		"function":       "CreateDevices",
		"type":           "synthetic",
		"width":          cfg.Devices.Width,
		"height":         cfg.Devices.Height,
		"frame_interval": cfg.Video.FrameDuration.String(),
	}).Info("Creating synthetic device gateway")

	gw, err := device.NewSyntheticGateway(device.Config{
		Inputs:        cfg.Devices.Inputs,
		Outputs:       cfg.Devices.Outputs,
		Width:         cfg.Devices.Width,
		Height:        cfg.Devices.Height,
		FrameInterval: cfg.Video.FrameDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create device gateway: %w", err)
	}
	if len(cfg.Devices.Inputs) > 0 {
		if err := gw.SetPrimary(interfaces.DeviceInput, cfg.Devices.PrimaryInput); err != nil {
			return nil, fmt.Errorf("primary input: %w", err)
		}
	}
	if len(cfg.Devices.Outputs) > 0 {
		if err := gw.SetPrimary(interfaces.DeviceOutput, cfg.Devices.PrimaryOutput); err != nil {
			return nil, fmt.Errorf("primary output: %w", err)
		}
	}
	return gw, nil
}

// CreateSession creates collaborators and a Controller from the default
// configuration. A nil notifier logs notices.
func (f *SessionFactory) CreateSession(notifier av.Notifier) (*Session, error) {
	f.mu.RLock()
	cfg := f.defaultConfig.Clone()
	f.mu.RUnlock()
	return f.CreateSessionWithConfig(cfg, notifier)
}

// CreateSessionWithConfig creates a session with custom configuration.
func (f *SessionFactory) CreateSessionWithConfig(cfg *config.Config, notifier av.Notifier) (*Session, error) {
	if cfg == nil {
		f.mu.RLock()
		cfg = f.defaultConfig.Clone()
		f.mu.RUnlock()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":       "CreateSessionWithConfig",
		"use_simulation": cfg.UseSimulation,
		"bit_rate":       cfg.Video.BitRate,
		"max_calls":      cfg.Video.MaxCalls,
	}).Info("Creating video session")

	devices, err := createDevices(cfg)
	if err != nil {
		return nil, err
	}
	peer := createTransport(cfg)

	videoCfg := av.DefaultVideoConfig()
	videoCfg.BitRate = cfg.Video.BitRate
	videoCfg.FrameDuration = cfg.Video.FrameDuration

	opts := []av.Option{
		av.WithVideoConfig(videoCfg),
		av.WithMaxCalls(cfg.Video.MaxCalls),
		av.WithNoticeRate(cfg.Notices.Interval, cfg.Notices.Burst),
	}
	if notifier != nil {
		opts = append(opts, av.WithNotifier(notifier))
	}

	var metrics *av.Metrics
	if cfg.Metrics.Enabled {
		metrics = av.NewMetrics(cfg.Metrics.Namespace)
		opts = append(opts, av.WithMetrics(metrics))
	}

	controller, err := av.Initialize(peer, devices, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize controller: %w", err)
	}

	s := &Session{
		Controller: controller,
		Transport:  peer,
		Devices:    devices,
		Metrics:    metrics,
	}
	if lb, ok := peer.(*transport.Loopback); ok {
		s.loopback = lb
	}
	return s, nil
}

// WithBitRate sets the target bit rate for the test configuration.
func WithBitRate(kbps uint32) TestConfigOption {
	return func(c *config.Config) {
		c.Video.BitRate = kbps
	}
}

// WithDevices sets the simulated device names for the test configuration.
func WithDevices(inputs, outputs []string) TestConfigOption {
	return func(c *config.Config) {
		c.Devices.Inputs = inputs
		c.Devices.Outputs = outputs
	}
}

// WithMetricsEnabled enables metrics for the test configuration.
func WithMetricsEnabled(namespace string) TestConfigOption {
	return func(c *config.Config) {
		c.Metrics.Enabled = true
		c.Metrics.Namespace = namespace
	}
}

// CreateSimulationForTesting creates a session on simulated collaborators.
// It accepts optional TestConfigOption functions to override default test
// values. Notices are not throttled in the test configuration.
func (f *SessionFactory) CreateSimulationForTesting(notifier av.Notifier, opts ...TestConfigOption) (*Session, error) {
	testConfig := config.Default()
	testConfig.UseSimulation = true
	testConfig.Devices.Inputs = []string{"Test Camera 0", "Test Camera 1"}
	testConfig.Devices.Outputs = []string{"Test Window 0", "Test Window 1"}
	testConfig.Notices.Interval = 0

	for _, opt := range opts {
		opt(testConfig)
	}

	logrus.WithFields(logrus.Fields{
		"function": "CreateSimulationForTesting",
		"bit_rate": testConfig.Video.BitRate,
		"inputs":   len(testConfig.Devices.Inputs),
		"outputs":  len(testConfig.Devices.Outputs),
	}).Info("Creating simulation session for testing")

	return f.CreateSessionWithConfig(testConfig, notifier)
}

// SwitchToSimulation switches the configuration to use simulation
func (f *SessionFactory) SwitchToSimulation() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToSimulation",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to simulation mode")

	f.defaultConfig.UseSimulation = true

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToSimulation",
		"current":  f.defaultConfig.UseSimulation,
	}).Info("Factory switched to simulation mode")
}

// SwitchToReal switches the configuration to the synthetic devices and
// loopback transport.
func (f *SessionFactory) SwitchToReal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToReal",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to real mode")

	f.defaultConfig.UseSimulation = false

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToReal",
		"current":  f.defaultConfig.UseSimulation,
	}).Info("Factory switched to real mode")
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *SessionFactory) GetCurrentConfig() *config.Config {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.defaultConfig.Clone()
}

// IsUsingSimulation returns true if the factory is configured for simulation
func (f *SessionFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.defaultConfig.UseSimulation
}

// UpdateConfig validates cfg and makes a copy of it the factory's default configuration.
func (f *SessionFactory) UpdateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_simulation": f.defaultConfig.UseSimulation,
		"new_simulation": cfg.UseSimulation,
		"old_bit_rate":   f.defaultConfig.Video.BitRate,
		"new_bit_rate":   cfg.Video.BitRate,
	}).Info("Updating factory configuration")

	f.defaultConfig = cfg.Clone()

	logrus.WithFields(logrus.Fields{
		"function": "UpdateConfig",
		"updated":  true,
	}).Info("Factory configuration updated successfully")

	return nil
}
