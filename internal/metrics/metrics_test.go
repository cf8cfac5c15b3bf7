package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()

	r.IncrementCounter("messages_received_total", map[string]string{"channel": "whatsapp"}, "")
	r.IncrementCounter("messages_received_total", map[string]string{"channel": "whatsapp"}, "")
	r.AddToCounter("messages_received_total", 3, map[string]string{"channel": "whatsapp"}, "")

	snapshot := r.GetAllMetrics()
	counters := snapshot["counters"].(map[string]*Metric)
	require.Len(t, counters, 1)

	for _, counter := range counters {
		assert.Equal(t, float64(5), counter.Value)
		assert.Equal(t, "whatsapp", counter.Labels["channel"])
	}
}

func TestCounter_LabelOrderDoesNotSplitSeries(t *testing.T) {
	r := NewRegistry()

	r.IncrementCounter("http_responses_total", map[string]string{"method": "GET", "status_code": "200"}, "")
	r.IncrementCounter("http_responses_total", map[string]string{"status_code": "200", "method": "GET"}, "")

	counters := r.GetAllMetrics()["counters"].(map[string]*Metric)
	require.Len(t, counters, 1)
}

func TestTimer(t *testing.T) {
	r := NewRegistry()

	for i := 1; i <= 20; i++ {
		r.RecordTimer("http_request_duration", time.Duration(i)*time.Millisecond, nil, "")
	}

	timers := r.GetAllMetrics()["timers"].(map[string]*TimerMetric)
	timer := timers["http_request_duration"]
	require.NotNil(t, timer)

	assert.Equal(t, int64(20), timer.Count)
	assert.Equal(t, float64(1), timer.Min)
	assert.Equal(t, float64(20), timer.Max)
	assert.InDelta(t, 10.5, timer.Average, 0.01)
	assert.GreaterOrEqual(t, timer.P95, timer.Average)
	assert.GreaterOrEqual(t, timer.P99, timer.P95)
}

func TestGauge(t *testing.T) {
	r := NewRegistry()

	r.SetGauge("queue_depth", 7, nil, "")
	r.SetGauge("queue_depth", 3, nil, "")

	gauges := r.GetAllMetrics()["gauges"].(map[string]*Metric)
	require.Len(t, gauges, 1)
	assert.Equal(t, float64(3), gauges["queue_depth"].Value)
}

func TestGlobalRegistry(t *testing.T) {
	IncrementCounter("global_test_counter", nil, "")
	RecordTimer("global_test_timer", 5*time.Millisecond, nil, "")
	SetGauge("global_test_gauge", 1, nil, "")

	snapshot := GetAllMetrics()
	counters := snapshot["counters"].(map[string]*Metric)
	assert.NotNil(t, counters["global_test_counter"])
	assert.GreaterOrEqual(t, snapshot["uptime_ms"].(int64), int64(0))
}
