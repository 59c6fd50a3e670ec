// Package metrics provides Prometheus metrics for the forge daemon —
// sensor gauges, hardware write counters, and profile application timing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Sensors ────────────────────────────────────────────────────────────────

// CPUTemperature tracks the CPU package temperature in Celsius.
var CPUTemperature = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "forge",
	Name:      "cpu_temperature_celsius",
	Help:      "Current CPU temperature in Celsius.",
})

// GPUTemperature tracks the discrete GPU temperature in Celsius.
var GPUTemperature = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "forge",
	Name:      "gpu_temperature_celsius",
	Help:      "Current GPU temperature in Celsius.",
})

// CPUFanRPM tracks the CPU fan speed.
var CPUFanRPM = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "forge",
	Name:      "cpu_fan_rpm",
	Help:      "Current CPU fan speed in RPM.",
})

// GPUFanRPM tracks the GPU fan speed.
var GPUFanRPM = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "forge",
	Name:      "gpu_fan_rpm",
	Help:      "Current GPU fan speed in RPM.",
})

// ─── Hardware Writes ────────────────────────────────────────────────────────

// HardwareWrites counts successful hardware writes per feature.
var HardwareWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forge",
	Name:      "hardware_writes_total",
	Help:      "Total successful hardware writes.",
}, []string{"feature"})

// HardwareWriteFailures counts failed hardware writes per feature and kind.
var HardwareWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forge",
	Name:      "hardware_write_failures_total",
	Help:      "Total failed hardware writes.",
}, []string{"feature", "kind"})

// ─── Profiles ───────────────────────────────────────────────────────────────

// ProfileApplies counts profile applications by outcome.
var ProfileApplies = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forge",
	Name:      "profile_applies_total",
	Help:      "Total profile applications by outcome.",
}, []string{"outcome"})

// ProfileApplyDuration tracks how long a full profile application takes,
// including the serialized hardware I/O.
var ProfileApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forge",
	Name:      "profile_apply_duration_seconds",
	Help:      "Profile application duration in seconds.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// ─── Refresh Loop ───────────────────────────────────────────────────────────

// RefreshCycles counts periodic sensor refresh passes.
var RefreshCycles = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "forge",
	Name:      "refresh_cycles_total",
	Help:      "Total periodic sensor refresh passes.",
})
