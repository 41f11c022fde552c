package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint32(5000), cfg.Video.BitRate)
	assert.Equal(t, 10*time.Millisecond, cfg.Video.FrameDuration)
	assert.Equal(t, 32, cfg.Video.MaxCalls)
	assert.False(t, cfg.UseSimulation)
}

func TestParse(t *testing.T) {
	data := []byte(`
use_simulation: true
video:
  bit_rate: 2500
  frame_duration: 40ms
devices:
  inputs: ["Front", "Back"]
  primary_input: 1
transport:
  echo: false
  report_interval: 2s
  peers: [0, 3]
notices:
  interval: 500ms
  burst: 1
logging:
  level: debug
  format: json
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.True(t, cfg.UseSimulation)
	assert.Equal(t, uint32(2500), cfg.Video.BitRate)
	assert.Equal(t, 40*time.Millisecond, cfg.Video.FrameDuration)
	assert.Equal(t, 32, cfg.Video.MaxCalls, "unset fields keep defaults")
	assert.Equal(t, []string{"Front", "Back"}, cfg.Devices.Inputs)
	assert.Equal(t, 1, cfg.Devices.PrimaryInput)
	assert.False(t, cfg.Transport.Echo)
	assert.Equal(t, 2*time.Second, cfg.Transport.ReportInterval)
	assert.Equal(t, []uint32{0, 3}, cfg.Transport.Peers)
	assert.Equal(t, 500*time.Millisecond, cfg.Notices.Interval)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("video: [unterminated"))
	assert.Error(t, err)
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bit rate zero", func(c *Config) { c.Video.BitRate = 0 }},
		{"bit rate too high", func(c *Config) { c.Video.BitRate = 2_000_000 }},
		{"frame duration zero", func(c *Config) { c.Video.FrameDuration = 0 }},
		{"max calls zero", func(c *Config) { c.Video.MaxCalls = 0 }},
		{"odd width", func(c *Config) { c.Devices.Width = 321 }},
		{"tiny frame", func(c *Config) { c.Devices.Height = 8 }},
		{"no devices", func(c *Config) { c.Devices.Inputs, c.Devices.Outputs = nil, nil }},
		{"primary input out of range", func(c *Config) { c.Devices.PrimaryInput = 2 }},
		{"primary output negative", func(c *Config) { c.Devices.PrimaryOutput = -1 }},
		{"queue size zero", func(c *Config) { c.Transport.QueueSize = 0 }},
		{"negative report interval", func(c *Config) { c.Transport.ReportInterval = -time.Second }},
		{"peer outside registry", func(c *Config) { c.Transport.Peers = []uint32{32} }},
		{"notice burst zero", func(c *Config) { c.Notices.Burst = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"metrics without address", func(c *Config) { c.Metrics.Enabled, c.Metrics.Address = true, "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_SimulationSkipsFrameGeometry(t *testing.T) {
	cfg := Default()
	cfg.UseSimulation = true
	cfg.Devices.Width = 0

	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toxvideo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video:\n  bit_rate: 800\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(800), cfg.Video.BitRate)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toxvideo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video:\n  max_calls: -1\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "video.max_calls")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvUseSimulation, "true")
	t.Setenv(EnvBitRate, "1200")
	t.Setenv(EnvFrameDuration, "33ms")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMetricsAddress, "127.0.0.1:9191")

	cfg := Default()
	ApplyEnvironmentOverrides(cfg)

	assert.True(t, cfg.UseSimulation)
	assert.Equal(t, uint32(1200), cfg.Video.BitRate)
	assert.Equal(t, 33*time.Millisecond, cfg.Video.FrameDuration)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9191", cfg.Metrics.Address)
}

func TestEnvironmentOverrides_InvalidValuesKeepDefaults(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"simulation not a bool", EnvUseSimulation, "maybe"},
		{"bit rate not a number", EnvBitRate, "fast"},
		{"bit rate zero", EnvBitRate, "0"},
		{"bit rate too high", EnvBitRate, "5000000"},
		{"frame duration not a duration", EnvFrameDuration, "soon"},
		{"frame duration too long", EnvFrameDuration, "5s"},
		{"log level unknown", EnvLogLevel, "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			cfg := Default()
			ApplyEnvironmentOverrides(cfg)

			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestConfigureLogging(t *testing.T) {
	prevLevel := logrus.GetLevel()
	prevFormatter := logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})

	cfg := Default()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	require.NoError(t, cfg.ConfigureLogging())

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	cfg.Logging.Level = "nope"
	assert.Error(t, cfg.ConfigureLogging())
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Video.BitRate = 1234

	data, err := cfg.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
