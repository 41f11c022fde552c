package av

import (
	"errors"

	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons recorded on the frames dropped counter.
const (
	dropNullFrame    = "null_frame"
	dropInvalidFrame = "invalid_frame"
	dropSendFailed   = "send_failed"
	dropRenderFailed = "render_failed"
)

// Metrics exposes the video session counters on a private Prometheus registry.
//
// A nil *Metrics is valid and records nothing, so the Controller never has to
// check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	framesSent     prometheus.Counter
	framesRendered prometheus.Counter
	framesDropped  *prometheus.CounterVec

	bitRate   prometheus.Gauge
	direction prometheus.Gauge

	deviceFailures      *prometheus.CounterVec
	rejectedTransitions prometheus.Counter
}

// NewMetrics creates the session metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_frames_sent_total",
			Help:      "Captured frames handed to the transport",
		}),

		framesRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_frames_rendered_total",
			Help:      "Remote frames written to an output device",
		}),

		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_frames_dropped_total",
			Help:      "Frames dropped on the send or render path",
		}, []string{"reason"}),

		bitRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "video_bit_rate_kbps",
			Help:      "Current outbound video bit rate target",
		}),

		direction: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "video_direction",
			Help:      "Session direction (0 none, 1 sending, 2 receiving, 3 both)",
		}),

		deviceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_device_failures_total",
			Help:      "Device operations that failed",
		}, []string{"kind", "op"}),

		rejectedTransitions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_rejected_transitions_total",
			Help:      "Direction events with no transition",
		}),
	}
}

// Registry returns the registry the metrics are collected on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) frameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) frameRendered() {
	if m == nil {
		return
	}
	m.framesRendered.Inc()
}

// sendDropped classifies a transport send failure.
func (m *Metrics) sendDropped(err error) {
	if m == nil {
		return
	}
	reason := dropSendFailed
	switch {
	case errors.Is(err, interfaces.ErrNullFrame):
		reason = dropNullFrame
	case errors.Is(err, interfaces.ErrInvalidFrame):
		reason = dropInvalidFrame
	}
	m.framesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) renderDropped() {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(dropRenderFailed).Inc()
}

func (m *Metrics) setBitRate(rate uint32) {
	if m == nil {
		return
	}
	m.bitRate.Set(float64(rate))
}

func (m *Metrics) setDirection(d Direction) {
	if m == nil {
		return
	}
	m.direction.Set(float64(d))
}

func (m *Metrics) deviceFailed(kind interfaces.DeviceKind, op string) {
	if m == nil {
		return
	}
	m.deviceFailures.WithLabelValues(kind.String(), op).Inc()
}

func (m *Metrics) transitionRejected() {
	if m == nil {
		return
	}
	m.rejectedTransitions.Inc()
}
