package hardware

import (
	"context"
	"testing"

	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/hardware/sysfs"
)

func TestDetectFullyEquippedMachine(t *testing.T) {
	fs := newFakeSysfs()
	fs.nodes[sysfs.AttrProductName] = "ROG Zephyrus G14"
	fs.nodes[sysfs.AttrPlatformProfile] = "balanced"
	fs.nodes[sysfs.AttrFanCurve] = "auto"
	fs.nodes[sysfs.AttrKbdRgbMode] = ""
	fs.nodes[sysfs.AttrBatteryLimit] = "100"
	tools := newFakeTools()
	tools.present["supergfxctl"] = true

	caps := NewDetector(fs, tools).Detect(context.Background())

	if caps.ModelName != "ROG Zephyrus G14" {
		t.Errorf("ModelName = %q", caps.ModelName)
	}
	wantSysfs := []domain.Feature{
		domain.FeaturePerformance,
		domain.FeatureFanCurve,
		domain.FeatureRgb,
		domain.FeatureBatteryLimit,
		domain.FeaturePerZoneRgb,
	}
	for _, f := range wantSysfs {
		if caps.Backend(f).Kind != domain.BackendSysfs {
			t.Errorf("%s backend = %v, want sysfs", f, caps.Backend(f).Kind)
		}
	}
	if b := caps.Backend(domain.FeatureGpuSwitch); b.Kind != domain.BackendTool || b.Tool != "supergfxctl" {
		t.Errorf("gpu_switch backend = %+v, want supergfxctl tool", b)
	}
	if caps.Supports(domain.FeatureAnimeMatrix) {
		t.Error("anime_matrix should resolve unsupported without its node")
	}
}

func TestDetectBareMachine(t *testing.T) {
	caps := NewDetector(newFakeSysfs(), newFakeTools()).Detect(context.Background())

	for _, f := range domain.Features {
		if caps.Supports(f) {
			t.Errorf("%s resolved %v on a machine with nothing", f, caps.Backend(f).Kind)
		}
	}
}

func TestDetectToolFallback(t *testing.T) {
	// No sysfs nodes, but asusctl is installed: performance, rgb and
	// battery resolve through the tool.
	tools := newFakeTools()
	tools.present["asusctl"] = true

	caps := NewDetector(newFakeSysfs(), tools).Detect(context.Background())

	for _, f := range []domain.Feature{domain.FeaturePerformance, domain.FeatureRgb, domain.FeatureBatteryLimit} {
		if b := caps.Backend(f); b.Kind != domain.BackendTool || b.Tool != "asusctl" {
			t.Errorf("%s backend = %+v, want asusctl tool", f, b)
		}
	}
}

func TestDetectSysfsPreferredOverTool(t *testing.T) {
	fs := newFakeSysfs()
	fs.nodes[sysfs.AttrPlatformProfile] = "balanced"
	tools := newFakeTools()
	tools.present["asusctl"] = true

	caps := NewDetector(fs, tools).Detect(context.Background())

	if caps.Backend(domain.FeaturePerformance).Kind != domain.BackendSysfs {
		t.Error("sysfs node present but tool backend chosen")
	}
}

func TestDetectToolsDisabled(t *testing.T) {
	tools := newFakeTools()
	tools.present["asusctl"] = true
	tools.present["supergfxctl"] = true

	d := NewDetector(newFakeSysfs(), tools)
	d.DisableTools = true
	caps := d.Detect(context.Background())

	for _, f := range domain.Features {
		if caps.Supports(f) {
			t.Errorf("%s resolved %v with tools disabled and no sysfs", f, caps.Backend(f).Kind)
		}
	}
}

func TestDetectIdempotent(t *testing.T) {
	fs := newFakeSysfs()
	fs.nodes[sysfs.AttrBatteryLimit] = "80"
	d := NewDetector(fs, newFakeTools())

	a := d.Detect(context.Background())
	b := d.Detect(context.Background())
	for _, f := range domain.Features {
		if a.Backend(f).Kind != b.Backend(f).Kind {
			t.Errorf("%s resolution changed between passes", f)
		}
	}
}
