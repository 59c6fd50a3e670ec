package hardware

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/hardware/sysfs"
	"github.com/forgectl/forge/internal/infra/metrics"
)

// Controller exposes one read and one write operation per feature. For each
// call it consults the capability set once and dispatches to the backing
// layer; unsupported features fail fast without touching either layer.
//
// The controller holds no locks and no mutable state: the daemon state's
// write section serializes all hardware-affecting calls process-wide, and
// the snapshot (the last known-good values a failed write rolls back to)
// lives there too. Internal locking here would risk deadlock with the IPC
// layer.
type Controller struct {
	sys   SysfsLayer
	tools ToolLayer
}

// NewController creates a controller over the given layers.
func NewController(sys SysfsLayer, tools ToolLayer) *Controller {
	return &Controller{sys: sys, tools: tools}
}

// ─── Performance Mode ───────────────────────────────────────────────────────

// Firmware tokens for the platform_profile node.
var perfToSysfs = map[domain.PerformanceMode]string{
	domain.PerfSilent:   "quiet",
	domain.PerfBalanced: "balanced",
	domain.PerfTurbo:    "performance",
}

// asusctl profile names.
var perfToTool = map[domain.PerformanceMode]string{
	domain.PerfSilent:   "Quiet",
	domain.PerfBalanced: "Balanced",
	domain.PerfTurbo:    "Performance",
}

// GetPerformanceMode reads the current mode, PerfUnknown when unsupported.
func (c *Controller) GetPerformanceMode(ctx context.Context, caps domain.CapabilitySet) (domain.PerformanceMode, error) {
	switch caps.Backend(domain.FeaturePerformance).Kind {
	case domain.BackendSysfs:
		raw, err := c.sys.ReadString(sysfs.AttrPlatformProfile)
		if err != nil {
			return domain.PerfUnknown, err
		}
		return domain.ParsePerformanceMode(raw)
	case domain.BackendTool:
		out, err := c.tools.Invoke(ctx, caps.Backend(domain.FeaturePerformance).Tool, "profile", "-p")
		if err != nil {
			return domain.PerfUnknown, err
		}
		return parseToolProfile(out)
	default:
		return domain.PerfUnknown, nil
	}
}

// SetPerformanceMode validates and writes the mode.
func (c *Controller) SetPerformanceMode(ctx context.Context, caps domain.CapabilitySet, mode domain.PerformanceMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	backend := caps.Backend(domain.FeaturePerformance)
	switch backend.Kind {
	case domain.BackendSysfs:
		return c.observe(domain.FeaturePerformance,
			c.sys.WriteString(sysfs.AttrPlatformProfile, perfToSysfs[mode]))
	case domain.BackendTool:
		_, err := c.tools.Invoke(ctx, backend.Tool, "profile", "-P", perfToTool[mode])
		return c.observe(domain.FeaturePerformance, err)
	default:
		return fmt.Errorf("performance mode: %w", domain.ErrFeatureUnsupported)
	}
}

// parseToolProfile normalizes asusctl profile output.
func parseToolProfile(out string) (domain.PerformanceMode, error) {
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "quiet"), strings.Contains(lower, "silent"):
		return domain.PerfSilent, nil
	case strings.Contains(lower, "performance"), strings.Contains(lower, "turbo"):
		return domain.PerfTurbo, nil
	case strings.Contains(lower, "balanced"):
		return domain.PerfBalanced, nil
	default:
		return domain.PerfUnknown, fmt.Errorf("profile output %q: %w", out, domain.ErrMalformedAttribute)
	}
}

// ─── GPU Mode ───────────────────────────────────────────────────────────────

var gpuToTool = map[domain.GpuMode]string{
	domain.GpuIntegrated: "Integrated",
	domain.GpuHybrid:     "Hybrid",
	domain.GpuDedicated:  "AsusMuxDgpu",
	domain.GpuCompute:    "Vfio",
}

// GetGpuMode reads the current GPU mode, GpuUnknown when unsupported.
func (c *Controller) GetGpuMode(ctx context.Context, caps domain.CapabilitySet) (domain.GpuMode, error) {
	backend := caps.Backend(domain.FeatureGpuSwitch)
	if backend.Kind != domain.BackendTool {
		return domain.GpuUnknown, nil
	}
	out, err := c.tools.Invoke(ctx, backend.Tool, "-g")
	if err != nil {
		return domain.GpuUnknown, err
	}
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "integrated"):
		return domain.GpuIntegrated, nil
	case strings.Contains(lower, "hybrid"):
		return domain.GpuHybrid, nil
	case strings.Contains(lower, "dgpu"), strings.Contains(lower, "dedicated"):
		return domain.GpuDedicated, nil
	case strings.Contains(lower, "vfio"), strings.Contains(lower, "compute"):
		return domain.GpuCompute, nil
	default:
		return domain.GpuUnknown, fmt.Errorf("gpu mode output %q: %w", out, domain.ErrMalformedAttribute)
	}
}

// SetGpuMode validates and switches the GPU mode via the external tool.
// A reboot or logout may still be required by the driver; that is reported
// by the tool's output, not enforced here.
func (c *Controller) SetGpuMode(ctx context.Context, caps domain.CapabilitySet, mode domain.GpuMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	backend := caps.Backend(domain.FeatureGpuSwitch)
	if backend.Kind != domain.BackendTool {
		return fmt.Errorf("gpu mode: %w", domain.ErrFeatureUnsupported)
	}
	_, err := c.tools.Invoke(ctx, backend.Tool, "-m", gpuToTool[mode])
	return c.observe(domain.FeatureGpuSwitch, err)
}

// ─── Fan ────────────────────────────────────────────────────────────────────

// fanAutoToken resets the firmware to automatic fan control.
const fanAutoToken = "auto"

// GetFan reads fan settings. The firmware does not expose the active curve,
// so a manual read reports mode only; RPM lives in the snapshot sensors.
func (c *Controller) GetFan(ctx context.Context, caps domain.CapabilitySet) (domain.FanSettings, error) {
	if !caps.Supports(domain.FeatureFanCurve) {
		return domain.FanSettings{Mode: domain.FanAuto}, nil
	}
	raw, err := c.sys.ReadString(sysfs.AttrFanCurve)
	if err != nil {
		// Readout-only fan hardware: report auto.
		return domain.FanSettings{Mode: domain.FanAuto}, nil
	}
	if raw == fanAutoToken || raw == "" {
		return domain.FanSettings{Mode: domain.FanAuto}, nil
	}
	return domain.FanSettings{Mode: domain.FanManual}, nil
}

// SetFan validates and writes fan settings. Auto mode writes the firmware
// auto token; manual mode writes the curve in temp:duty wire format.
func (c *Controller) SetFan(ctx context.Context, caps domain.CapabilitySet, settings domain.FanSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	backend := caps.Backend(domain.FeatureFanCurve)
	if backend.Kind != domain.BackendSysfs {
		return fmt.Errorf("fan control: %w", domain.ErrFeatureUnsupported)
	}
	value := fanAutoToken
	if settings.Mode == domain.FanManual {
		value = settings.Curve.String()
	}
	return c.observe(domain.FeatureFanCurve, c.sys.WriteString(sysfs.AttrFanCurve, value))
}

// ─── RGB ────────────────────────────────────────────────────────────────────

// Firmware effect indices for the kbd_rgb_mode node.
var rgbEffectIndex = map[domain.RgbEffect]int{
	domain.EffectStatic:    0,
	domain.EffectBreathing: 1,
	domain.EffectRainbow:   2,
	domain.EffectWave:      3,
	domain.EffectOff:       0,
}

var rgbEffectToTool = map[domain.RgbEffect]string{
	domain.EffectStatic:    "static",
	domain.EffectBreathing: "breathe",
	domain.EffectRainbow:   "rainbow",
	domain.EffectWave:      "comet",
	domain.EffectOff:       "off",
}

// SetRgb validates and writes RGB settings. Brightness 0..100 scales onto
// the 0..3 LED range the keyboard exposes.
func (c *Controller) SetRgb(ctx context.Context, caps domain.CapabilitySet, settings domain.RgbSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	backend := caps.Backend(domain.FeatureRgb)
	switch backend.Kind {
	case domain.BackendSysfs:
		brightness := settings.Brightness
		if settings.Effect == domain.EffectOff {
			brightness = 0
		}
		if c.sys.Exists(sysfs.AttrKbdBrightness) {
			level := min(brightness*3/100, 3)
			if err := c.sys.WriteInt(sysfs.AttrKbdBrightness, level); err != nil {
				return c.observe(domain.FeatureRgb, err)
			}
		}
		if c.sys.Exists(sysfs.AttrKbdRgbMode) {
			// Node format: "1 <effect> <r> <g> <b> <speed>"; leading 1 persists
			// the setting across reboots.
			value := fmt.Sprintf("1 %d %d %d %d %d",
				rgbEffectIndex[settings.Effect],
				settings.Color.R, settings.Color.G, settings.Color.B,
				settings.Speed)
			if err := c.sys.WriteString(sysfs.AttrKbdRgbMode, value); err != nil {
				return c.observe(domain.FeatureRgb, err)
			}
		}
		return c.observe(domain.FeatureRgb, nil)
	case domain.BackendTool:
		args := []string{"led-mode", rgbEffectToTool[settings.Effect]}
		if settings.Effect == domain.EffectStatic || settings.Effect == domain.EffectBreathing {
			args = append(args, "-c", strings.TrimPrefix(settings.Color.Hex(), "#"))
		}
		if _, err := c.tools.Invoke(ctx, backend.Tool, args...); err != nil {
			return c.observe(domain.FeatureRgb, err)
		}
		level := min(settings.Brightness*3/100, 3)
		_, err := c.tools.Invoke(ctx, backend.Tool, "led-mode", "-b", fmt.Sprint(level))
		return c.observe(domain.FeatureRgb, err)
	default:
		return fmt.Errorf("rgb: %w", domain.ErrFeatureUnsupported)
	}
}

// ─── Battery Limit ──────────────────────────────────────────────────────────

// GetBatteryLimit reads the charge limit, 0 when unsupported.
func (c *Controller) GetBatteryLimit(ctx context.Context, caps domain.CapabilitySet) (int, error) {
	backend := caps.Backend(domain.FeatureBatteryLimit)
	switch backend.Kind {
	case domain.BackendSysfs:
		return c.sys.ReadInt(sysfs.AttrBatteryLimit)
	case domain.BackendTool:
		// asusctl has no limit query; the snapshot carries the last write.
		return 0, nil
	default:
		return 0, nil
	}
}

// SetBatteryLimit validates against the hardware-advertised set and writes.
func (c *Controller) SetBatteryLimit(ctx context.Context, caps domain.CapabilitySet, limit int) error {
	if err := domain.ValidateBatteryLimit(limit); err != nil {
		return err
	}
	backend := caps.Backend(domain.FeatureBatteryLimit)
	switch backend.Kind {
	case domain.BackendSysfs:
		return c.observe(domain.FeatureBatteryLimit, c.sys.WriteInt(sysfs.AttrBatteryLimit, limit))
	case domain.BackendTool:
		_, err := c.tools.Invoke(ctx, backend.Tool, "bios", "-c", fmt.Sprint(limit))
		return c.observe(domain.FeatureBatteryLimit, err)
	default:
		return fmt.Errorf("battery limit: %w", domain.ErrFeatureUnsupported)
	}
}

// ─── Sensors ────────────────────────────────────────────────────────────────

// SensorReadings carries one pass over the read-only sensor nodes.
type SensorReadings struct {
	CPUTempC       float64
	GPUTempC       float64
	CPUFanRPM      int
	GPUFanRPM      int
	BatteryPercent int
	ACOnline       bool
	PowerDrawW     float64
	ReadAt         time.Time
}

// ReadSensors reads temperatures, fan RPM and battery state. Sensor absence
// reports the unknown sentinel, never an error: a laptop without a discrete
// GPU still gets CPU readings.
func (c *Controller) ReadSensors(ctx context.Context) SensorReadings {
	r := SensorReadings{CPUTempC: domain.UnknownTemp, GPUTempC: domain.UnknownTemp, ReadAt: time.Now()}

	if t, ok := c.sys.CPUTemp(); ok {
		r.CPUTempC = t
		metrics.CPUTemperature.Set(t)
	}
	if t, ok := c.sys.GPUTemp(); ok {
		r.GPUTempC = t
		metrics.GPUTemperature.Set(t)
	}
	if rpm, ok := c.sys.FanRPM(1); ok {
		r.CPUFanRPM = rpm
		metrics.CPUFanRPM.Set(float64(rpm))
	}
	if rpm, ok := c.sys.FanRPM(2); ok {
		r.GPUFanRPM = rpm
		metrics.GPUFanRPM.Set(float64(rpm))
	}
	r.BatteryPercent, r.ACOnline = c.sys.BatteryStatus()
	r.PowerDrawW = c.sys.PowerDraw()
	return r
}

// observe records write metrics and logs permission failures at high
// severity — those indicate a packaging/udev problem, not a user error.
func (c *Controller) observe(feature domain.Feature, err error) error {
	if err != nil {
		metrics.HardwareWriteFailures.WithLabelValues(string(feature), string(domain.Kind(err))).Inc()
		if domain.Kind(err) == domain.KindPermission {
			log.Printf("[hardware] ERROR: %s write denied: %v", feature, err)
		}
		return err
	}
	metrics.HardwareWrites.WithLabelValues(string(feature)).Inc()
	return nil
}
