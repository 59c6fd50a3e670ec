// Package sysfs provides typed read/write access to kernel attributes.
// Each logical attribute maps to an ordered list of candidate paths because
// hardware models expose the same concept under different nodes; the first
// path that exists wins. All errors are classified into the domain taxonomy:
// absent, permission denied, or malformed content.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forgectl/forge/internal/domain"
)

// Attribute names one logical hardware control or readout point.
type Attribute string

const (
	AttrPlatformProfile        Attribute = "platform_profile"
	AttrPlatformProfileChoices Attribute = "platform_profile_choices"
	AttrFanCurve               Attribute = "fan_curve"
	AttrKbdBrightness          Attribute = "kbd_brightness"
	AttrKbdRgbMode             Attribute = "kbd_rgb_mode"
	AttrBatteryLimit           Attribute = "battery_limit"
	AttrAnimeMatrix            Attribute = "anime_matrix"
	AttrProductName            Attribute = "product_name"
)

// defaultPaths lists candidate nodes per attribute, most specific first.
var defaultPaths = map[Attribute][]string{
	AttrPlatformProfile:        {"sys/firmware/acpi/platform_profile"},
	AttrPlatformProfileChoices: {"sys/firmware/acpi/platform_profile_choices"},
	AttrFanCurve: {
		"sys/devices/platform/asus-nb-wmi/fan_curve",
		"sys/devices/platform/faustus/fan_curve",
	},
	AttrKbdBrightness: {
		"sys/class/leds/asus::kbd_backlight/brightness",
		"sys/class/leds/tuf::kbd_backlight/brightness",
	},
	AttrKbdRgbMode: {
		"sys/devices/platform/asus-nb-wmi/kbd_rgb_mode",
		"sys/class/leds/asus::kbd_backlight/kbd_rgb_mode",
	},
	AttrBatteryLimit: {
		"sys/class/power_supply/BAT0/charge_control_end_threshold",
		"sys/class/power_supply/BAT1/charge_control_end_threshold",
	},
	AttrAnimeMatrix: {"sys/devices/platform/asus-nb-wmi/anime_matrix"},
	AttrProductName: {
		"sys/class/dmi/id/product_name",
		"sys/devices/platform/asus-nb-wmi/product_name",
	},
}

// Interface reads and writes sysfs attributes under a filesystem root.
// The root is "/" in production; tests point it at a fake tree.
type Interface struct {
	root      string
	overrides map[Attribute][]string
}

// Option configures an Interface.
type Option func(*Interface)

// WithRoot anchors all attribute paths under dir instead of "/".
func WithRoot(dir string) Option {
	return func(s *Interface) { s.root = dir }
}

// WithOverrides replaces the candidate path list for specific attributes.
// Paths are taken relative to the root. Configured per machine when a model
// exposes a concept under a node the defaults do not know.
func WithOverrides(overrides map[Attribute][]string) Option {
	return func(s *Interface) {
		for attr, paths := range overrides {
			if len(paths) > 0 {
				s.overrides[attr] = paths
			}
		}
	}
}

// New creates a sysfs interface.
func New(opts ...Option) *Interface {
	s := &Interface{root: "/", overrides: map[Attribute][]string{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidates returns the configured or default path list for attr.
func (s *Interface) candidates(attr Attribute) []string {
	if paths, ok := s.overrides[attr]; ok {
		return paths
	}
	return defaultPaths[attr]
}

// Resolve returns the first existing candidate path for attr.
func (s *Interface) Resolve(attr Attribute) (string, bool) {
	for _, rel := range s.candidates(attr) {
		p := filepath.Join(s.root, rel)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Exists reports whether any candidate node for attr is present.
func (s *Interface) Exists(attr Attribute) bool {
	_, ok := s.Resolve(attr)
	return ok
}

// ReadString reads attr and returns its trimmed content.
func (s *Interface) ReadString(attr Attribute) (string, error) {
	path, ok := s.Resolve(attr)
	if !ok {
		return "", fmt.Errorf("%s: %w", attr, domain.ErrAttributeAbsent)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", classify(attr, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadInt reads attr as a decimal integer.
func (s *Interface) ReadInt(attr Attribute) (int, error) {
	raw, err := s.ReadString(attr)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q: %w", attr, raw, domain.ErrMalformedAttribute)
	}
	return n, nil
}

// WriteString writes value to attr. The caller validates the value first;
// this layer only performs the filesystem write and classifies failures.
func (s *Interface) WriteString(attr Attribute, value string) error {
	path, ok := s.Resolve(attr)
	if !ok {
		return fmt.Errorf("%s: %w", attr, domain.ErrAttributeAbsent)
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return classify(attr, err)
	}
	return nil
}

// WriteInt writes a decimal integer to attr.
func (s *Interface) WriteInt(attr Attribute, value int) error {
	return s.WriteString(attr, strconv.Itoa(value))
}

// ReadFile reads an arbitrary path under the root, trimmed. Used by the
// sensor scan helpers which walk directories rather than fixed attributes.
func (s *Interface) ReadFile(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Root returns the filesystem root this interface is anchored at.
func (s *Interface) Root() string { return s.root }

// classify maps an I/O error onto the domain taxonomy.
func classify(attr Attribute, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s: %w", attr, domain.ErrAttributeAbsent)
	case os.IsPermission(err):
		return fmt.Errorf("%s: %w", attr, domain.ErrPermissionDenied)
	default:
		return fmt.Errorf("%s: %w", attr, err)
	}
}
