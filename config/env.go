package config

import (
	"os"
	"strconv"
	"time"

	"github.com/opd-ai/toxvideo/limits"
	"github.com/sirupsen/logrus"
)

// Bounds for environment overrides.
const (
	// MinFrameDuration is the shortest accepted capture interval.
	MinFrameDuration = time.Millisecond
	// MaxFrameDuration is the longest accepted capture interval.
	MaxFrameDuration = time.Second
)

// Environment variables read by ApplyEnvironmentOverrides.
const (
	EnvUseSimulation  = "TOXVIDEO_USE_SIMULATION"
	EnvBitRate        = "TOXVIDEO_BIT_RATE"
	EnvFrameDuration  = "TOXVIDEO_FRAME_DURATION"
	EnvLogLevel       = "TOXVIDEO_LOG_LEVEL"
	EnvMetricsAddress = "TOXVIDEO_METRICS_ADDRESS"
)

// ApplyEnvironmentOverrides updates cfg from TOXVIDEO_* environment variables.
// Values that do not parse or fall outside their bounds are logged and the
// current value is kept.
func ApplyEnvironmentOverrides(cfg *Config) {
	parseSimulationSetting(cfg)
	parseBitRateSetting(cfg)
	parseFrameDurationSetting(cfg)
	parseLogLevelSetting(cfg)

	if addr := os.Getenv(EnvMetricsAddress); addr != "" {
		cfg.Metrics.Address = addr
		cfg.Metrics.Enabled = true
	}
}

func parseSimulationSetting(cfg *Config) {
	if useSimStr := os.Getenv(EnvUseSimulation); useSimStr != "" {
		useSim, err := strconv.ParseBool(useSimStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseSimulationSetting",
				"env_var":     EnvUseSimulation,
				"value":       useSimStr,
				"error":       err.Error(),
				"using_value": cfg.UseSimulation,
			}).Warn("Failed to parse TOXVIDEO_USE_SIMULATION environment variable, using default")
			return
		}
		cfg.UseSimulation = useSim
	}
}

func parseBitRateSetting(cfg *Config) {
	if rateStr := os.Getenv(EnvBitRate); rateStr != "" {
		rate, err := strconv.ParseUint(rateStr, 10, 32)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseBitRateSetting",
				"env_var":     EnvBitRate,
				"value":       rateStr,
				"error":       err.Error(),
				"using_value": cfg.Video.BitRate,
			}).Warn("Failed to parse TOXVIDEO_BIT_RATE environment variable, using default")
			return
		}
		if rate == 0 || rate > limits.MaxVideoBitRate {
			logrus.WithFields(logrus.Fields{
				"function":    "parseBitRateSetting",
				"env_var":     EnvBitRate,
				"value":       rate,
				"min":         1,
				"max":         limits.MaxVideoBitRate,
				"using_value": cfg.Video.BitRate,
			}).Warn("TOXVIDEO_BIT_RATE value out of bounds, using default")
			return
		}
		cfg.Video.BitRate = uint32(rate)
	}
}

func parseFrameDurationSetting(cfg *Config) {
	if durStr := os.Getenv(EnvFrameDuration); durStr != "" {
		dur, err := time.ParseDuration(durStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseFrameDurationSetting",
				"env_var":     EnvFrameDuration,
				"value":       durStr,
				"error":       err.Error(),
				"using_value": cfg.Video.FrameDuration.String(),
			}).Warn("Failed to parse TOXVIDEO_FRAME_DURATION environment variable, using default")
			return
		}
		if dur < MinFrameDuration || dur > MaxFrameDuration {
			logrus.WithFields(logrus.Fields{
				"function":    "parseFrameDurationSetting",
				"env_var":     EnvFrameDuration,
				"value":       dur.String(),
				"min":         MinFrameDuration.String(),
				"max":         MaxFrameDuration.String(),
				"using_value": cfg.Video.FrameDuration.String(),
			}).Warn("TOXVIDEO_FRAME_DURATION value out of bounds, using default")
			return
		}
		cfg.Video.FrameDuration = dur
	}
}

func parseLogLevelSetting(cfg *Config) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		if _, err := logrus.ParseLevel(level); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseLogLevelSetting",
				"env_var":     EnvLogLevel,
				"value":       level,
				"error":       err.Error(),
				"using_value": cfg.Logging.Level,
			}).Warn("Failed to parse TOXVIDEO_LOG_LEVEL environment variable, using default")
			return
		}
		cfg.Logging.Level = level
	}
}
