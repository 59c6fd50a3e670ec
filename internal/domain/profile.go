package domain

import "time"

// Profile is a named bundle of desired hardware settings. Nil fields are
// left untouched when the profile is applied.
type Profile struct {
	Name            string           `json:"name" toml:"name"`
	PerformanceMode *PerformanceMode `json:"performance_mode,omitempty" toml:"performance_mode,omitempty"`
	GpuMode         *GpuMode         `json:"gpu_mode,omitempty" toml:"gpu_mode,omitempty"`
	Fan             *FanSettings     `json:"fan,omitempty" toml:"fan,omitempty"`
	Rgb             *RgbSettings     `json:"rgb,omitempty" toml:"rgb,omitempty"`
	BatteryLimit    *int             `json:"battery_limit,omitempty" toml:"battery_limit,omitempty"`

	Builtin    bool      `json:"builtin" toml:"-"`
	CreatedAt  time.Time `json:"created_at" toml:"created_at"`
	ModifiedAt time.Time `json:"modified_at" toml:"modified_at"`
}

// ApplyOrder is the fixed order profile steps run in. Later steps never
// invalidate earlier ones: a performance-mode change may reset firmware fan
// behavior, so fans apply after it; RGB and battery touch unrelated devices.
var ApplyOrder = []Feature{
	FeaturePerformance,
	FeatureGpuSwitch,
	FeatureFanCurve,
	FeatureRgb,
	FeatureBatteryLimit,
}

// Has reports whether the profile sets a value for the feature.
func (p *Profile) Has(f Feature) bool {
	switch f {
	case FeaturePerformance:
		return p.PerformanceMode != nil
	case FeatureGpuSwitch:
		return p.GpuMode != nil
	case FeatureFanCurve:
		return p.Fan != nil
	case FeatureRgb:
		return p.Rgb != nil
	case FeatureBatteryLimit:
		return p.BatteryLimit != nil
	default:
		return false
	}
}

// Validate checks every set field against the data-model invariants.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return Invalid("profile name", "must not be empty")
	}
	if p.PerformanceMode != nil {
		if err := p.PerformanceMode.Validate(); err != nil {
			return err
		}
	}
	if p.GpuMode != nil {
		if err := p.GpuMode.Validate(); err != nil {
			return err
		}
	}
	if p.Fan != nil {
		if err := p.Fan.Validate(); err != nil {
			return err
		}
	}
	if p.Rgb != nil {
		if err := p.Rgb.Validate(); err != nil {
			return err
		}
	}
	if p.BatteryLimit != nil {
		if err := ValidateBatteryLimit(*p.BatteryLimit); err != nil {
			return err
		}
	}
	return nil
}

// ─── Built-in Profiles ──────────────────────────────────────────────────────

func perf(m PerformanceMode) *PerformanceMode { return &m }
func gpu(m GpuMode) *GpuMode                  { return &m }
func limit(n int) *int                        { return &n }

// BuiltinProfiles regenerates the fixed read-only profile set. Built-ins are
// never persisted; they exist so a fresh install is immediately useful.
func BuiltinProfiles() []Profile {
	return []Profile{
		{
			Name:            "Gaming",
			Builtin:         true,
			PerformanceMode: perf(PerfTurbo),
			GpuMode:         gpu(GpuDedicated),
			Fan:             &FanSettings{Mode: FanAuto},
			Rgb:             &RgbSettings{Effect: EffectRainbow, Color: RgbColor{R: 255}, Brightness: 100, Speed: 75},
			BatteryLimit:    limit(100),
		},
		{
			Name:            "Work",
			Builtin:         true,
			PerformanceMode: perf(PerfBalanced),
			GpuMode:         gpu(GpuIntegrated),
			Fan:             &FanSettings{Mode: FanAuto},
			Rgb:             &RgbSettings{Effect: EffectStatic, Color: RgbColor{R: 255, G: 255, B: 255}, Brightness: 50, Speed: 50},
			BatteryLimit:    limit(80),
		},
		{
			Name:            "Silent",
			Builtin:         true,
			PerformanceMode: perf(PerfSilent),
			GpuMode:         gpu(GpuIntegrated),
			Fan:             &FanSettings{Mode: FanAuto},
			Rgb:             &RgbSettings{Effect: EffectOff},
			BatteryLimit:    limit(60),
		},
		{
			Name:            "Balanced",
			Builtin:         true,
			PerformanceMode: perf(PerfBalanced),
			GpuMode:         gpu(GpuHybrid),
			Fan:             &FanSettings{Mode: FanAuto},
			Rgb:             &RgbSettings{Effect: EffectStatic, Color: RgbColor{R: 255}, Brightness: 100, Speed: 50},
			BatteryLimit:    limit(100),
		},
	}
}
