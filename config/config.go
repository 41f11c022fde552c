package config

import (
	"fmt"
	"os"
	"time"

	"github.com/opd-ai/toxvideo/limits"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config is the complete configuration of a video session process.
type Config struct {
	// UseSimulation selects the in-memory collaborators from the testing
	// package instead of the synthetic devices and loopback transport.
	UseSimulation bool `yaml:"use_simulation"`

	Video struct {
		BitRate       uint32        `yaml:"bit_rate"`
		FrameDuration time.Duration `yaml:"frame_duration"`
		MaxCalls      int           `yaml:"max_calls"`
	} `yaml:"video"`

	Devices struct {
		Inputs        []string `yaml:"inputs"`
		Outputs       []string `yaml:"outputs"`
		Width         uint16   `yaml:"width"`
		Height        uint16   `yaml:"height"`
		PrimaryInput  int      `yaml:"primary_input"`
		PrimaryOutput int      `yaml:"primary_output"`
	} `yaml:"devices"`

	Transport struct {
		Echo           bool          `yaml:"echo"`
		QueueSize      int           `yaml:"queue_size"`
		ReportInterval time.Duration `yaml:"report_interval"`
		Peers          []uint32      `yaml:"peers"`
	} `yaml:"transport"`

	Notices struct {
		Interval time.Duration `yaml:"interval"`
		Burst    int           `yaml:"burst"`
	} `yaml:"notices"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Address   string `yaml:"address"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Video.BitRate = 5000
	cfg.Video.FrameDuration = 10 * time.Millisecond
	cfg.Video.MaxCalls = 32

	cfg.Devices.Inputs = []string{"Synthetic Camera 0", "Synthetic Camera 1"}
	cfg.Devices.Outputs = []string{"Synthetic Window 0"}
	cfg.Devices.Width = 320
	cfg.Devices.Height = 240

	cfg.Transport.Echo = true
	cfg.Transport.QueueSize = 64
	cfg.Transport.ReportInterval = time.Second
	cfg.Transport.Peers = []uint32{0}

	cfg.Notices.Interval = time.Second
	cfg.Notices.Burst = 3

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Metrics.Enabled = false
	cfg.Metrics.Address = ":9090"
	cfg.Metrics.Namespace = "toxvideo"

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Video
	if c.Video.BitRate == 0 {
		return fmt.Errorf("video.bit_rate must be > 0")
	}
	if err := limits.ValidateBitRate(c.Video.BitRate); err != nil {
		return fmt.Errorf("video.bit_rate: %w", err)
	}
	if c.Video.FrameDuration <= 0 {
		return fmt.Errorf("video.frame_duration must be > 0")
	}
	if c.Video.MaxCalls <= 0 || c.Video.MaxCalls > limits.MaxCalls {
		return fmt.Errorf("video.max_calls must be in [1, %d]", limits.MaxCalls)
	}

	// Devices
	if !c.UseSimulation {
		if err := limits.ValidateFrameSize(int(c.Devices.Width), int(c.Devices.Height)); err != nil {
			return fmt.Errorf("devices.width/height: %w", err)
		}
		if c.Devices.Width%2 != 0 || c.Devices.Height%2 != 0 {
			return fmt.Errorf("devices.width and devices.height must be even")
		}
	}
	if len(c.Devices.Inputs) == 0 && len(c.Devices.Outputs) == 0 {
		return fmt.Errorf("devices must list at least one input or output")
	}
	if len(c.Devices.Inputs) > 0 && (c.Devices.PrimaryInput < 0 || c.Devices.PrimaryInput >= len(c.Devices.Inputs)) {
		return fmt.Errorf("devices.primary_input must index devices.inputs")
	}
	if len(c.Devices.Outputs) > 0 && (c.Devices.PrimaryOutput < 0 || c.Devices.PrimaryOutput >= len(c.Devices.Outputs)) {
		return fmt.Errorf("devices.primary_output must index devices.outputs")
	}

	// Transport
	if c.Transport.QueueSize <= 0 {
		return fmt.Errorf("transport.queue_size must be > 0")
	}
	if c.Transport.ReportInterval < 0 {
		return fmt.Errorf("transport.report_interval must be >= 0")
	}
	for _, peer := range c.Transport.Peers {
		if int(peer) >= c.Video.MaxCalls {
			return fmt.Errorf("transport.peers: peer %d outside video.max_calls", peer)
		}
	}

	// Notices
	if c.Notices.Interval < 0 {
		return fmt.Errorf("notices.interval must be >= 0")
	}
	if c.Notices.Burst <= 0 {
		return fmt.Errorf("notices.burst must be > 0")
	}

	// Logging
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json")
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics.address must not be empty when metrics.enabled=true")
	}

	return nil
}

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, then validates the result. A missing file yields
// the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			logrus.WithFields(logrus.Fields{
				"function": "Load",
				"path":     configPath,
			}).Info("Config file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
			}
		}
	}

	ApplyEnvironmentOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration over the defaults and validates it.
// Environment overrides are not applied.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ConfigureLogging applies the logging section to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	logrus.SetLevel(level)

	switch c.Logging.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Devices.Inputs = append([]string(nil), c.Devices.Inputs...)
	cp.Devices.Outputs = append([]string(nil), c.Devices.Outputs...)
	cp.Transport.Peers = append([]uint32(nil), c.Transport.Peers...)
	return &cp
}
