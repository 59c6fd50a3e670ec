// Package domain holds the hardware-control data model.
// Types here are pure values with validation — no sysfs or process access.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ─── Performance Mode ───────────────────────────────────────────────────────

// PerformanceMode selects the firmware platform profile.
type PerformanceMode string

const (
	PerfSilent   PerformanceMode = "silent"
	PerfBalanced PerformanceMode = "balanced"
	PerfTurbo    PerformanceMode = "turbo"

	// PerfUnknown is the read sentinel when the feature is unsupported.
	PerfUnknown PerformanceMode = "unknown"
)

// PerformanceModes lists the valid modes in escalation order.
var PerformanceModes = []PerformanceMode{PerfSilent, PerfBalanced, PerfTurbo}

// ParsePerformanceMode parses a mode name, case-insensitive.
// "performance" and "quiet" are accepted aliases seen in firmware and tools.
func ParsePerformanceMode(s string) (PerformanceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "quiet":
		return PerfSilent, nil
	case "balanced", "balanced-performance":
		return PerfBalanced, nil
	case "turbo", "performance":
		return PerfTurbo, nil
	default:
		return "", Invalid("performance mode", "%q is not one of silent, balanced, turbo", s)
	}
}

// Validate checks mode membership.
func (m PerformanceMode) Validate() error {
	_, err := ParsePerformanceMode(string(m))
	return err
}

// ─── GPU Mode ───────────────────────────────────────────────────────────────

// GpuMode selects which GPU drives the display.
type GpuMode string

const (
	GpuIntegrated GpuMode = "integrated"
	GpuHybrid     GpuMode = "hybrid"
	GpuDedicated  GpuMode = "dedicated"
	GpuCompute    GpuMode = "compute"

	// GpuUnknown is the read sentinel when the feature is unsupported.
	GpuUnknown GpuMode = "unknown"
)

// ParseGpuMode parses a GPU mode name, case-insensitive.
func ParseGpuMode(s string) (GpuMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integrated":
		return GpuIntegrated, nil
	case "hybrid":
		return GpuHybrid, nil
	case "dedicated":
		return GpuDedicated, nil
	case "compute":
		return GpuCompute, nil
	default:
		return "", Invalid("gpu mode", "%q is not one of integrated, hybrid, dedicated, compute", s)
	}
}

// Validate checks mode membership.
func (m GpuMode) Validate() error {
	_, err := ParseGpuMode(string(m))
	return err
}

// ─── Fan ────────────────────────────────────────────────────────────────────

// FanMode selects automatic firmware fan control or a manual curve.
type FanMode string

const (
	FanAuto   FanMode = "auto"
	FanManual FanMode = "manual"
)

// ParseFanMode parses a fan mode name, case-insensitive.
func ParseFanMode(s string) (FanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return FanAuto, nil
	case "manual":
		return FanManual, nil
	default:
		return "", Invalid("fan mode", "%q is not one of auto, manual", s)
	}
}

// FanCurvePoint maps a temperature to a fan duty percentage.
type FanCurvePoint struct {
	Temperature int `json:"temperature" toml:"temperature"`
	DutyPercent int `json:"duty_percent" toml:"duty_percent"`
}

// FanCurve is an ordered sequence of curve points. The invariant — strictly
// increasing temperatures, duty in [0,100] — is enforced on every write
// attempt via Validate, never assumed at rest.
type FanCurve struct {
	Points []FanCurvePoint `json:"points" toml:"points"`
}

// Validate checks the fan-curve invariants.
func (c FanCurve) Validate() error {
	if len(c.Points) == 0 {
		return Invalid("fan curve", "must contain at least one point")
	}
	prev := -1
	for i, p := range c.Points {
		if p.Temperature <= prev {
			return Invalid("fan curve", "temperatures must be strictly increasing (point %d: %d°C after %d°C)", i, p.Temperature, prev)
		}
		if p.DutyPercent < 0 || p.DutyPercent > 100 {
			return Invalid("fan curve", "duty percent must be in [0,100] (point %d: %d)", i, p.DutyPercent)
		}
		prev = p.Temperature
	}
	return nil
}

// ParseFanCurve parses the firmware wire format "temp:duty,...". The
// result is validated.
func ParseFanCurve(s string) (FanCurve, error) {
	var c FanCurve
	for _, part := range strings.Split(strings.TrimSpace(s), ",") {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return FanCurve{}, Invalid("fan curve", "%q is not temp:duty", part)
		}
		temp, err := strconv.Atoi(strings.TrimSpace(pair[0]))
		if err != nil {
			return FanCurve{}, Invalid("fan curve", "bad temperature in %q", part)
		}
		duty, err := strconv.Atoi(strings.TrimSpace(pair[1]))
		if err != nil {
			return FanCurve{}, Invalid("fan curve", "bad duty in %q", part)
		}
		c.Points = append(c.Points, FanCurvePoint{Temperature: temp, DutyPercent: duty})
	}
	if err := c.Validate(); err != nil {
		return FanCurve{}, err
	}
	return c, nil
}

// String renders the curve in the firmware wire format "temp:duty,...".
func (c FanCurve) String() string {
	parts := make([]string, len(c.Points))
	for i, p := range c.Points {
		parts[i] = fmt.Sprintf("%d:%d", p.Temperature, p.DutyPercent)
	}
	return strings.Join(parts, ",")
}

// FanSettings bundles mode and optional manual curve.
type FanSettings struct {
	Mode  FanMode   `json:"mode" toml:"mode"`
	Curve *FanCurve `json:"curve,omitempty" toml:"curve,omitempty"`
}

// Validate checks fan settings: a manual mode requires a valid curve.
func (f FanSettings) Validate() error {
	if _, err := ParseFanMode(string(f.Mode)); err != nil {
		return err
	}
	if f.Mode == FanManual {
		if f.Curve == nil {
			return Invalid("fan settings", "manual mode requires a curve")
		}
		return f.Curve.Validate()
	}
	return nil
}

// ─── RGB ────────────────────────────────────────────────────────────────────

// RgbEffect names a keyboard lighting effect.
type RgbEffect string

const (
	EffectStatic    RgbEffect = "static"
	EffectBreathing RgbEffect = "breathing"
	EffectRainbow   RgbEffect = "rainbow"
	EffectWave      RgbEffect = "wave"
	EffectOff       RgbEffect = "off"
)

// ParseRgbEffect parses an effect name, case-insensitive.
func ParseRgbEffect(s string) (RgbEffect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return EffectStatic, nil
	case "breathing", "breathe":
		return EffectBreathing, nil
	case "rainbow", "spectrum":
		return EffectRainbow, nil
	case "wave", "comet":
		return EffectWave, nil
	case "off":
		return EffectOff, nil
	default:
		return "", Invalid("rgb effect", "%q is not a known effect", s)
	}
}

// RgbColor is a 24-bit color. The textual form is "#RRGGBB".
type RgbColor struct {
	R uint8 `json:"r" toml:"r"`
	G uint8 `json:"g" toml:"g"`
	B uint8 `json:"b" toml:"b"`
}

// ParseRgbColor parses a "#RRGGBB" string, case-insensitive. The leading
// marker is optional. Wrong length or non-hex digits fail validation.
func ParseRgbColor(s string) (RgbColor, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RgbColor{}, Invalid("rgb color", "%q must be 6 hex digits", s)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return RgbColor{}, Invalid("rgb color", "%q contains non-hex characters", s)
		}
		ch[i] = uint8(v)
	}
	return RgbColor{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// Hex formats the color as "#RRGGBB", uppercase.
func (c RgbColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RgbSettings bundles effect, color, brightness and speed.
type RgbSettings struct {
	Effect     RgbEffect `json:"effect" toml:"effect"`
	Color      RgbColor  `json:"color" toml:"color"`
	Brightness int       `json:"brightness" toml:"brightness"`
	Speed      int       `json:"speed" toml:"speed"`
}

// Validate checks RGB settings ranges.
func (r RgbSettings) Validate() error {
	if _, err := ParseRgbEffect(string(r.Effect)); err != nil {
		return err
	}
	if r.Brightness < 0 || r.Brightness > 100 {
		return Invalid("rgb brightness", "must be in [0,100], got %d", r.Brightness)
	}
	if r.Speed < 0 || r.Speed > 100 {
		return Invalid("rgb speed", "must be in [0,100], got %d", r.Speed)
	}
	return nil
}

// ─── Battery ────────────────────────────────────────────────────────────────

// BatteryLimits is the discrete set of charge limits the firmware accepts.
var BatteryLimits = []int{60, 80, 100}

// ValidateBatteryLimit checks membership in the hardware-advertised set.
func ValidateBatteryLimit(limit int) error {
	for _, l := range BatteryLimits {
		if limit == l {
			return nil
		}
	}
	return Invalid("battery limit", "%d%% is not one of 60, 80, 100", limit)
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// UnknownTemp is the sentinel reported when a sensor is absent.
const UnknownTemp = -1

// HardwareSnapshot is the daemon's current best-known view of hardware
// state. It is owned by the daemon state and handed out by value.
type HardwareSnapshot struct {
	PerformanceMode PerformanceMode `json:"performance_mode"`
	GpuMode         GpuMode         `json:"gpu_mode"`
	Fan             FanSettings     `json:"fan"`
	Rgb             RgbSettings     `json:"rgb"`
	BatteryLimit    int             `json:"battery_limit"`

	// Sensor readings, refreshed periodically.
	CPUTempC       float64   `json:"cpu_temp_c"`
	GPUTempC       float64   `json:"gpu_temp_c"`
	CPUFanRPM      int       `json:"cpu_fan_rpm"`
	GPUFanRPM      int       `json:"gpu_fan_rpm"`
	BatteryPercent int       `json:"battery_percent"`
	ACOnline       bool      `json:"ac_online"`
	PowerDrawW     float64   `json:"power_draw_w"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}
