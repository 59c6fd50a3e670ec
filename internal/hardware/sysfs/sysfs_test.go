package sysfs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/forgectl/forge/internal/domain"
)

// writeNode creates a fake sysfs node under root.
func writeNode(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadWriteString(t *testing.T) {
	root := t.TempDir()
	writeNode(t, root, "sys/firmware/acpi/platform_profile", "balanced\n")
	s := New(WithRoot(root))

	got, err := s.ReadString(AttrPlatformProfile)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "balanced" {
		t.Errorf("ReadString = %q, want %q", got, "balanced")
	}

	if err := s.WriteString(AttrPlatformProfile, "performance"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	got, err = s.ReadString(AttrPlatformProfile)
	if err != nil {
		t.Fatalf("ReadString after write: %v", err)
	}
	if got != "performance" {
		t.Errorf("ReadString = %q, want %q", got, "performance")
	}
}

func TestAbsentAttribute(t *testing.T) {
	s := New(WithRoot(t.TempDir()))

	if _, err := s.ReadString(AttrFanCurve); !errors.Is(err, domain.ErrAttributeAbsent) {
		t.Errorf("ReadString(absent) error = %v, want ErrAttributeAbsent", err)
	}
	if err := s.WriteString(AttrFanCurve, "auto"); !errors.Is(err, domain.ErrAttributeAbsent) {
		t.Errorf("WriteString(absent) error = %v, want ErrAttributeAbsent", err)
	}
}

func TestFallbackPathOrder(t *testing.T) {
	root := t.TempDir()
	// Only the second candidate (BAT1) exists.
	writeNode(t, root, "sys/class/power_supply/BAT1/charge_control_end_threshold", "80")
	s := New(WithRoot(root))

	path, ok := s.Resolve(AttrBatteryLimit)
	if !ok {
		t.Fatal("Resolve(battery_limit) = not found")
	}
	if filepath.Base(filepath.Dir(path)) != "BAT1" {
		t.Errorf("Resolve picked %q, want the BAT1 fallback", path)
	}

	n, err := s.ReadInt(AttrBatteryLimit)
	if err != nil {
		t.Fatalf("ReadInt: %v", err)
	}
	if n != 80 {
		t.Errorf("ReadInt = %d, want 80", n)
	}
}

func TestPrimaryPathPreferred(t *testing.T) {
	root := t.TempDir()
	writeNode(t, root, "sys/class/power_supply/BAT0/charge_control_end_threshold", "100")
	writeNode(t, root, "sys/class/power_supply/BAT1/charge_control_end_threshold", "60")
	s := New(WithRoot(root))

	n, err := s.ReadInt(AttrBatteryLimit)
	if err != nil {
		t.Fatalf("ReadInt: %v", err)
	}
	if n != 100 {
		t.Errorf("ReadInt = %d, want the BAT0 primary value 100", n)
	}
}

func TestMalformedContent(t *testing.T) {
	root := t.TempDir()
	writeNode(t, root, "sys/class/power_supply/BAT0/charge_control_end_threshold", "not-a-number")
	s := New(WithRoot(root))

	if _, err := s.ReadInt(AttrBatteryLimit); !errors.Is(err, domain.ErrMalformedAttribute) {
		t.Errorf("ReadInt(malformed) error = %v, want ErrMalformedAttribute", err)
	}
}

func TestPermissionDenied(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("file modes do not bind as root")
	}
	if runtime.GOOS == "windows" {
		t.Skip("unix permission semantics")
	}
	root := t.TempDir()
	rel := "sys/firmware/acpi/platform_profile"
	writeNode(t, root, rel, "balanced")
	if err := os.Chmod(filepath.Join(root, rel), 0o444); err != nil {
		t.Fatal(err)
	}

	s := New(WithRoot(root))
	if err := s.WriteString(AttrPlatformProfile, "performance"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("WriteString(read-only) error = %v, want ErrPermissionDenied", err)
	}
}

func TestOverrides(t *testing.T) {
	root := t.TempDir()
	writeNode(t, root, "sys/custom/profile_node", "quiet")
	s := New(WithRoot(root), WithOverrides(map[Attribute][]string{
		AttrPlatformProfile: {"sys/custom/profile_node"},
	}))

	got, err := s.ReadString(AttrPlatformProfile)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "quiet" {
		t.Errorf("ReadString = %q, want %q", got, "quiet")
	}
}

func TestSensors(t *testing.T) {
	root := t.TempDir()
	writeNode(t, root, "sys/class/thermal/thermal_zone0/type", "x86_pkg_temp")
	writeNode(t, root, "sys/class/thermal/thermal_zone0/temp", "54000")
	writeNode(t, root, "sys/class/hwmon/hwmon2/name", "asus-nb-wmi")
	writeNode(t, root, "sys/class/hwmon/hwmon2/fan1_input", "2800")
	writeNode(t, root, "sys/class/power_supply/BAT0/capacity", "73")
	writeNode(t, root, "sys/class/power_supply/AC0/online", "1")
	writeNode(t, root, "sys/class/power_supply/BAT0/power_now", "12500000")
	s := New(WithRoot(root))

	if temp, ok := s.CPUTemp(); !ok || temp != 54 {
		t.Errorf("CPUTemp = %v/%v, want 54/true", temp, ok)
	}
	if _, ok := s.GPUTemp(); ok {
		t.Error("GPUTemp found a sensor in a tree without one")
	}
	if rpm, ok := s.FanRPM(1); !ok || rpm != 2800 {
		t.Errorf("FanRPM(1) = %v/%v, want 2800/true", rpm, ok)
	}
	if pct, ac := s.BatteryStatus(); pct != 73 || !ac {
		t.Errorf("BatteryStatus = %d/%v, want 73/true", pct, ac)
	}
	if w := s.PowerDraw(); w != 12.5 {
		t.Errorf("PowerDraw = %v, want 12.5", w)
	}
}
