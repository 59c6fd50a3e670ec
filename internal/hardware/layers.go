// Package hardware composes the sysfs layer and the external tool bridge
// behind one feature-oriented controller, plus the capability detector that
// decides which of the two backs each feature.
package hardware

import (
	"context"

	"github.com/forgectl/forge/internal/hardware/sysfs"
)

// ─── Layer Seams ────────────────────────────────────────────────────────────
// The controller depends on these narrow interfaces, not the concrete
// layers, so tests can substitute recording or failing backends.

// SysfsLayer is the slice of the sysfs interface the controller and
// detector use. Implemented by *sysfs.Interface.
type SysfsLayer interface {
	Exists(attr sysfs.Attribute) bool
	Resolve(attr sysfs.Attribute) (string, bool)
	ReadString(attr sysfs.Attribute) (string, error)
	ReadInt(attr sysfs.Attribute) (int, error)
	WriteString(attr sysfs.Attribute, value string) error
	WriteInt(attr sysfs.Attribute, value int) error

	CPUTemp() (float64, bool)
	GPUTemp() (float64, bool)
	FanRPM(n int) (int, bool)
	HasFanController() bool
	BatteryStatus() (percent int, acOnline bool)
	PowerDraw() float64
}

// ToolLayer is the slice of the external tool bridge the controller and
// detector use. Implemented by *tool.Bridge.
type ToolLayer interface {
	Probe(ctx context.Context, tool string) bool
	Invoke(ctx context.Context, tool string, args ...string) (string, error)
}
