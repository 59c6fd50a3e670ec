package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sensor readout helpers. These walk /sys/class/thermal and /sys/class/hwmon
// rather than fixed attribute lists because zone numbering varies per boot.
// Absence is never an error here — a missing sensor reads as the zero value
// and the caller reports the unknown sentinel.

const maxThermalZones = 20

var (
	cpuHwmonNames = []string{"coretemp", "k10temp", "zenpower", "acpitz"}
	gpuHwmonNames = []string{"nvidia", "amdgpu", "nouveau", "radeon"}
	fanHwmonNames = []string{"asus-nb-wmi", "asus_fan", "asus", "thinkpad"}
)

// CPUTemp returns the CPU package temperature in Celsius, ok=false when no
// sensor was found.
func (s *Interface) CPUTemp() (float64, bool) {
	if t, ok := s.thermalZoneTemp("cpu", "x86_pkg", "acpitz"); ok {
		return t, true
	}
	if dir, ok := s.findHwmon(cpuHwmonNames); ok {
		return s.hwmonTemp(dir)
	}
	return 0, false
}

// GPUTemp returns the discrete GPU temperature in Celsius.
func (s *Interface) GPUTemp() (float64, bool) {
	if dir, ok := s.findHwmon(gpuHwmonNames); ok {
		if t, ok := s.hwmonTemp(dir); ok {
			return t, true
		}
	}
	return s.thermalZoneTemp("gpu", "amdgpu")
}

// FanRPM returns the RPM of fan number n (1 = CPU, 2 = GPU by convention).
func (s *Interface) FanRPM(n int) (int, bool) {
	dir, ok := s.findHwmon(fanHwmonNames)
	if !ok {
		return 0, false
	}
	raw, err := s.ReadFile(filepath.Join(dir, fmt.Sprintf("fan%d_input", n)))
	if err != nil {
		return 0, false
	}
	rpm, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return rpm, true
}

// HasFanController reports whether any fan hwmon device is present.
func (s *Interface) HasFanController() bool {
	_, ok := s.findHwmon(fanHwmonNames)
	return ok
}

// BatteryStatus returns charge percentage and AC-online state.
func (s *Interface) BatteryStatus() (percent int, acOnline bool) {
	for _, bat := range []string{"BAT0", "BAT1"} {
		if raw, err := s.ReadFile("sys/class/power_supply/" + bat + "/capacity"); err == nil {
			if pct, err := strconv.Atoi(raw); err == nil {
				percent = pct
				break
			}
		}
	}
	for _, ac := range []string{"AC0", "ADP0", "ADP1", "AC"} {
		if raw, err := s.ReadFile("sys/class/power_supply/" + ac + "/online"); err == nil {
			acOnline = raw == "1"
			break
		}
	}
	return percent, acOnline
}

// PowerDraw returns the battery discharge rate in watts, 0 when unknown.
func (s *Interface) PowerDraw() float64 {
	for _, bat := range []string{"BAT0", "BAT1"} {
		raw, err := s.ReadFile("sys/class/power_supply/" + bat + "/power_now")
		if err != nil {
			continue
		}
		microwatts, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return microwatts / 1e6
	}
	return 0
}

// thermalZoneTemp scans thermal zones for a type containing one of the
// given substrings and returns its temperature in Celsius.
func (s *Interface) thermalZoneTemp(substrings ...string) (float64, bool) {
	for i := 0; i < maxThermalZones; i++ {
		base := fmt.Sprintf("sys/class/thermal/thermal_zone%d", i)
		zoneType, err := s.ReadFile(base + "/type")
		if err != nil {
			continue
		}
		zoneType = strings.ToLower(zoneType)
		matched := false
		for _, sub := range substrings {
			if strings.Contains(zoneType, sub) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		raw, err := s.ReadFile(base + "/temp")
		if err != nil {
			continue
		}
		milliC, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return milliC / 1000, true
	}
	return 0, false
}

// hwmonTemp reads temp1_input from a hwmon directory (root-relative).
func (s *Interface) hwmonTemp(dir string) (float64, bool) {
	raw, err := s.ReadFile(filepath.Join(dir, "temp1_input"))
	if err != nil {
		return 0, false
	}
	milliC, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return milliC / 1000, true
}

// findHwmon locates the first hwmon device whose name contains one of the
// given names. Returns a root-relative directory path.
func (s *Interface) findHwmon(names []string) (string, bool) {
	const hwmonBase = "sys/class/hwmon"
	entries, err := os.ReadDir(filepath.Join(s.root, hwmonBase))
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		rel := filepath.Join(hwmonBase, entry.Name())
		name, err := s.ReadFile(filepath.Join(rel, "name"))
		if err != nil {
			continue
		}
		name = strings.ToLower(name)
		for _, want := range names {
			if strings.Contains(name, want) {
				return rel, true
			}
		}
	}
	return "", false
}
