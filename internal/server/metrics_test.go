package server

import (
	"testing"
)

const metricsTestPrefix = "server:metrics_test"

// counterValue sums the samples of a counter family whose labels include want.
func counterValue(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("%s - Gather: %v", metricsTestPrefix, err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			match := true
			for k, v := range want {
				if labels[k] != v {
					match = false
				}
			}
			if match {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestMetrics_ObserverCounters(t *testing.T) {
	m := NewMetrics()
	m.CommandQueued("Camera", "takePicture")
	m.CommandQueued("Camera", "focus")
	m.CommandQueued("Echo", "say")
	m.Flushed("push", 3)
	m.Flushed("signal", 2)
	m.Dispatched(true)
	m.Dispatched(false)
	m.Dispatched(true)

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"bridge_commands_queued_total", map[string]string{"service": "Camera"}, 2},
		{"bridge_commands_queued_total", map[string]string{"service": "Echo"}, 1},
		{"bridge_flushes_total", map[string]string{"mode": "push"}, 1},
		{"bridge_flushes_total", nil, 2},
		{"bridge_commands_flushed_total", map[string]string{"mode": "push"}, 3},
		{"bridge_commands_flushed_total", map[string]string{"mode": "signal"}, 2},
		{"bridge_responses_total", map[string]string{"matched": "true"}, 2},
		{"bridge_responses_total", map[string]string{"matched": "false"}, 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, m, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s - %s%v = %v, want %v", metricsTestPrefix, tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestMetrics_IncludesRuntimeCollectors(t *testing.T) {
	m := NewMetrics()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("%s - Gather: %v", metricsTestPrefix, err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Errorf("%s - go_goroutines not registered", metricsTestPrefix)
	}
}
