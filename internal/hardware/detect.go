package hardware

import (
	"context"
	"log"
	"time"

	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/hardware/sysfs"
	"github.com/forgectl/forge/internal/hardware/tool"
)

// Detector probes the available control surfaces and produces an immutable
// capability snapshot. Detection never mutates hardware state; it only
// stats nodes and runs tool capability queries. Each feature resolves
// independently — one feature's absence never aborts the others.
type Detector struct {
	sys   SysfsLayer
	tools ToolLayer

	// DisableTools skips external tool probing entirely (config toggle).
	DisableTools bool
}

// NewDetector creates a detector over the given layers.
func NewDetector(sys SysfsLayer, tools ToolLayer) *Detector {
	return &Detector{sys: sys, tools: tools}
}

// Detect runs one full detection pass. Idempotent; safe to re-run while the
// daemon is serving, the caller swaps the resulting snapshot in atomically.
func (d *Detector) Detect(ctx context.Context) domain.CapabilitySet {
	caps := domain.CapabilitySet{
		Backends:   make(map[domain.Feature]domain.Backend, len(domain.Features)),
		DetectedAt: time.Now().Unix(),
	}

	if name, err := d.sys.ReadString(sysfs.AttrProductName); err == nil {
		caps.ModelName = name
	}

	caps.Backends[domain.FeaturePerformance] = d.resolve(ctx,
		[]sysfs.Attribute{sysfs.AttrPlatformProfile}, tool.Asusctl)
	caps.Backends[domain.FeatureGpuSwitch] = d.resolve(ctx,
		nil, tool.Supergfxctl)
	caps.Backends[domain.FeatureFanCurve] = d.resolveFan(ctx)
	caps.Backends[domain.FeatureRgb] = d.resolve(ctx,
		[]sysfs.Attribute{sysfs.AttrKbdRgbMode, sysfs.AttrKbdBrightness}, tool.Asusctl)
	caps.Backends[domain.FeatureBatteryLimit] = d.resolve(ctx,
		[]sysfs.Attribute{sysfs.AttrBatteryLimit}, tool.Asusctl)
	caps.Backends[domain.FeaturePerZoneRgb] = d.resolve(ctx,
		[]sysfs.Attribute{sysfs.AttrKbdRgbMode}, "")
	caps.Backends[domain.FeatureAnimeMatrix] = d.resolve(ctx,
		[]sysfs.Attribute{sysfs.AttrAnimeMatrix}, "")

	for _, f := range domain.Features {
		b := caps.Backends[f]
		log.Printf("[detect] %s: %s", f, describeBackend(b))
	}
	return caps
}

// resolve tries the sysfs attributes in order, then the external tool.
func (d *Detector) resolve(ctx context.Context, attrs []sysfs.Attribute, toolName string) domain.Backend {
	for _, attr := range attrs {
		if path, ok := d.sys.Resolve(attr); ok {
			return domain.Backend{Kind: domain.BackendSysfs, Paths: []string{path}}
		}
	}
	if toolName != "" && !d.DisableTools && d.tools.Probe(ctx, toolName) {
		return domain.Backend{Kind: domain.BackendTool, Tool: toolName}
	}
	return domain.Backend{Kind: domain.BackendUnsupported}
}

// resolveFan needs both the curve node and a fan hwmon device check:
// some firmware exposes RPM readout without accepting a curve.
func (d *Detector) resolveFan(ctx context.Context) domain.Backend {
	if path, ok := d.sys.Resolve(sysfs.AttrFanCurve); ok {
		return domain.Backend{Kind: domain.BackendSysfs, Paths: []string{path}}
	}
	if d.sys.HasFanController() {
		// RPM readout only; curve writes will report attribute-absent.
		return domain.Backend{Kind: domain.BackendSysfs}
	}
	return domain.Backend{Kind: domain.BackendUnsupported}
}

func describeBackend(b domain.Backend) string {
	switch b.Kind {
	case domain.BackendSysfs:
		if len(b.Paths) > 0 {
			return "sysfs (" + b.Paths[0] + ")"
		}
		return "sysfs"
	case domain.BackendTool:
		return "tool (" + b.Tool + ")"
	default:
		return "unsupported"
	}
}
