package av

import (
	"testing"

	"github.com/opd-ai/toxvideo/av/video"
	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricValue reads one counter or gauge sample from the metrics registry.
// Missing samples read as zero.
func metricValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_Session(t *testing.T) {
	m := NewMetrics("test")
	f := newFixture(t, WithMetrics(m))

	assert.Equal(t, float64(DefaultBitRate), metricValue(t, m, "test_video_bit_rate_kbps", nil))

	require.NoError(t, f.ctrl.StartLocalCapture(0))
	slot := f.inputSlot(t, 0)
	f.devices.Capture(slot, video.NewFrame(64, 64))
	f.devices.Capture(slot, nil)
	f.transport.DeliverFrame(0, video.NewFrame(64, 64))

	assert.Equal(t, 1.0, metricValue(t, m, "test_video_frames_sent_total", nil))
	assert.Equal(t, 1.0, metricValue(t, m, "test_video_frames_rendered_total", nil))
	assert.Equal(t, 1.0, metricValue(t, m, "test_video_frames_dropped_total", map[string]string{"reason": dropNullFrame}))
	assert.Equal(t, float64(DirectionSendingAndReceiving), metricValue(t, m, "test_video_direction", nil))

	f.transport.ReportBitRate(0, true, 1500)
	assert.Equal(t, 1500.0, metricValue(t, m, "test_video_bit_rate_kbps", nil))
}

func TestMetrics_DeviceFailuresAndRejectedTransitions(t *testing.T) {
	m := NewMetrics("test")
	f := newFixture(t, WithMetrics(m))

	f.devices.SetOpenError(interfaces.DeviceOutput, assert.AnError)
	assert.Error(t, f.ctrl.OnRemoteReceiveStart(0))
	assert.Equal(t, 1.0, metricValue(t, m, "test_video_device_failures_total",
		map[string]string{"kind": "out", "op": "open"}))

	require.NoError(t, f.ctrl.StartLocalCapture(0))
	require.NoError(t, f.ctrl.StartLocalCapture(1))
	assert.Equal(t, 1.0, metricValue(t, m, "test_video_rejected_transitions_total", nil))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.Nil(t, m.Registry())
	assert.NotPanics(t, func() {
		m.frameSent()
		m.frameRendered()
		m.sendDropped(interfaces.ErrInvalidFrame)
		m.renderDropped()
		m.setBitRate(1)
		m.setDirection(DirectionSending)
		m.deviceFailed(interfaces.DeviceInput, "open")
		m.transitionRejected()
	})
}
