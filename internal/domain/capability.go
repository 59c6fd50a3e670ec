package domain

// ─── Features ───────────────────────────────────────────────────────────────

// Feature is one independently controllable hardware capability.
type Feature string

const (
	FeaturePerformance  Feature = "performance_modes"
	FeatureGpuSwitch    Feature = "gpu_switch"
	FeatureFanCurve     Feature = "fan_curve"
	FeatureRgb          Feature = "rgb"
	FeatureBatteryLimit Feature = "battery_limit"
	FeaturePerZoneRgb   Feature = "per_zone_rgb"
	FeatureAnimeMatrix  Feature = "anime_matrix"
)

// Features lists every known feature in a stable order.
var Features = []Feature{
	FeaturePerformance,
	FeatureGpuSwitch,
	FeatureFanCurve,
	FeatureRgb,
	FeatureBatteryLimit,
	FeaturePerZoneRgb,
	FeatureAnimeMatrix,
}

// ─── Backends ───────────────────────────────────────────────────────────────

// BackendKind tags how a feature is reached. Resolved once at detection and
// consulted by pure dispatch afterwards.
type BackendKind string

const (
	BackendUnsupported BackendKind = "unsupported"
	BackendSysfs       BackendKind = "sysfs"
	BackendTool        BackendKind = "tool"
)

// Backend resolves one feature to its control surface.
type Backend struct {
	Kind BackendKind `json:"kind"`
	// Paths holds the resolved sysfs paths when Kind is BackendSysfs.
	Paths []string `json:"paths,omitempty"`
	// Tool names the external utility when Kind is BackendTool.
	Tool string `json:"tool,omitempty"`
}

// Supported reports whether the feature resolved to any control surface.
func (b Backend) Supported() bool { return b.Kind != BackendUnsupported }

// ─── Capability Set ─────────────────────────────────────────────────────────

// CapabilitySet is the immutable result of one detection pass. It is owned
// by the daemon state and replaced atomically on re-detection.
type CapabilitySet struct {
	ModelName  string              `json:"model_name,omitempty"`
	Backends   map[Feature]Backend `json:"backends"`
	DetectedAt int64               `json:"detected_at"`
}

// Backend returns the resolved backend for the feature, Unsupported for
// features the detection pass never saw.
func (c CapabilitySet) Backend(f Feature) Backend {
	if b, ok := c.Backends[f]; ok {
		return b
	}
	return Backend{Kind: BackendUnsupported}
}

// Supports reports whether the feature has a usable backend.
func (c CapabilitySet) Supports(f Feature) bool {
	return c.Backend(f).Supported()
}
