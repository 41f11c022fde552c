// Package config loads the video session configuration from YAML, applies
// TOXVIDEO_* environment overrides and validates the result.
//
// Sections: video, devices, transport, notices, logging and metrics.
// A missing file yields Default().
package config
