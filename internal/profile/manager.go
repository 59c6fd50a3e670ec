// Package profile stores named bundles of hardware settings and applies
// them through the hardware controller as one best-effort unit of work.
package profile

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/infra/metrics"
)

// Applier is the slice of the hardware controller a profile application
// needs. Implemented by *hardware.Controller.
type Applier interface {
	SetPerformanceMode(ctx context.Context, caps domain.CapabilitySet, mode domain.PerformanceMode) error
	SetGpuMode(ctx context.Context, caps domain.CapabilitySet, mode domain.GpuMode) error
	SetFan(ctx context.Context, caps domain.CapabilitySet, settings domain.FanSettings) error
	SetRgb(ctx context.Context, caps domain.CapabilitySet, settings domain.RgbSettings) error
	SetBatteryLimit(ctx context.Context, caps domain.CapabilitySet, limit int) error
}

// Manager owns the profile store: the fixed built-in set regenerated at
// startup, plus user profiles persisted one TOML file per profile.
//
// Manager guards its own maps: CRUD calls come straight from HTTP handlers
// and run concurrently with each other and with Apply. Serializing Apply's
// hardware writes against other setters is the daemon state's job, not the
// manager's.
type Manager struct {
	mu       sync.RWMutex
	dir      string
	builtins map[string]domain.Profile
	user     map[string]domain.Profile
}

// NewManager loads user profiles from dir, creating it if missing.
// A profile file that fails to parse is skipped with a warning — a corrupt
// file must not take the daemon down.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	m := &Manager{
		dir:      dir,
		builtins: map[string]domain.Profile{},
		user:     map[string]domain.Profile{},
	}
	for _, p := range domain.BuiltinProfiles() {
		m.builtins[p.Name] = p
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read profile dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var p domain.Profile
		// Unknown keys are ignored for forward compatibility.
		if _, err := toml.DecodeFile(path, &p); err != nil {
			log.Printf("[profile] WARNING: skipping %s: %v", entry.Name(), err)
			continue
		}
		if err := p.Validate(); err != nil {
			log.Printf("[profile] WARNING: skipping %s: %v", entry.Name(), err)
			continue
		}
		if _, clash := m.builtins[p.Name]; clash {
			log.Printf("[profile] WARNING: skipping %s: name collides with a built-in", entry.Name())
			continue
		}
		m.user[p.Name] = p
	}
	log.Printf("[profile] loaded %d user profiles from %s", len(m.user), dir)
	return m, nil
}

// List returns built-ins in their fixed order followed by user profiles
// sorted by name.
func (m *Manager) List() []domain.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := domain.BuiltinProfiles()
	names := make([]string, 0, len(m.user))
	for name := range m.user {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, m.user[name])
	}
	return out
}

// Get returns the named profile.
func (m *Manager) Get(name string) (domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.builtins[name]; ok {
		return p, nil
	}
	if p, ok := m.user[name]; ok {
		return p, nil
	}
	return domain.Profile{}, fmt.Errorf("%q: %w", name, domain.ErrProfileNotFound)
}

// Create adds a new user profile and persists it before returning.
func (m *Manager) Create(p domain.Profile) error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.builtins[p.Name]; ok {
		return fmt.Errorf("%q: %w", p.Name, domain.ErrProfileBuiltin)
	}
	if _, ok := m.user[p.Name]; ok {
		return fmt.Errorf("%q: %w", p.Name, domain.ErrProfileExists)
	}
	now := time.Now()
	p.Builtin = false
	p.CreatedAt = now
	p.ModifiedAt = now
	if err := m.persist(p); err != nil {
		return err
	}
	m.user[p.Name] = p
	return nil
}

// Update replaces an existing user profile and persists it.
func (m *Manager) Update(p domain.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.builtins[p.Name]; ok {
		return fmt.Errorf("%q: %w", p.Name, domain.ErrProfileBuiltin)
	}
	existing, ok := m.user[p.Name]
	if !ok {
		return fmt.Errorf("%q: %w", p.Name, domain.ErrProfileNotFound)
	}
	p.Builtin = false
	p.CreatedAt = existing.CreatedAt
	p.ModifiedAt = time.Now()
	if err := m.persist(p); err != nil {
		return err
	}
	m.user[p.Name] = p
	return nil
}

// Delete removes a user profile and its file. Built-ins are immutable.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.builtins[name]; ok {
		return fmt.Errorf("%q: %w", name, domain.ErrProfileBuiltin)
	}
	if _, ok := m.user[name]; !ok {
		return fmt.Errorf("%q: %w", name, domain.ErrProfileNotFound)
	}
	if err := os.Remove(m.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove profile file: %w", err)
	}
	delete(m.user, name)
	return nil
}

// Apply looks up the named profile and applies every set field in the
// fixed order performance → gpu → fan → rgb → battery. One step failing
// never stops the remaining steps; a mixed outcome returns PartialFailure
// with the per-step results in order.
func (m *Manager) Apply(ctx context.Context, name string, caps domain.CapabilitySet, hw Applier) ([]domain.StepResult, error) {
	p, err := m.Get(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var steps []domain.StepResult
	for _, feature := range domain.ApplyOrder {
		if !p.Has(feature) {
			continue
		}
		step := domain.StepResult{Feature: feature}
		switch feature {
		case domain.FeaturePerformance:
			step.Err = hw.SetPerformanceMode(ctx, caps, *p.PerformanceMode)
		case domain.FeatureGpuSwitch:
			step.Err = hw.SetGpuMode(ctx, caps, *p.GpuMode)
		case domain.FeatureFanCurve:
			step.Err = hw.SetFan(ctx, caps, *p.Fan)
		case domain.FeatureRgb:
			step.Err = hw.SetRgb(ctx, caps, *p.Rgb)
		case domain.FeatureBatteryLimit:
			step.Err = hw.SetBatteryLimit(ctx, caps, *p.BatteryLimit)
		}
		if step.Err != nil {
			log.Printf("[profile] apply %q: %s failed: %v", name, feature, step.Err)
		}
		steps = append(steps, step)
	}
	metrics.ProfileApplyDuration.Observe(time.Since(start).Seconds())

	for _, s := range steps {
		if s.Err != nil {
			metrics.ProfileApplies.WithLabelValues("partial").Inc()
			return steps, &domain.PartialFailure{Profile: name, Steps: steps}
		}
	}
	metrics.ProfileApplies.WithLabelValues("ok").Inc()
	return steps, nil
}

// persist writes the profile with write-new-then-rename so a crash between
// hardware write and disk write never leaves a half-written file.
func (m *Manager) persist(p domain.Profile) error {
	tmp, err := os.CreateTemp(m.dir, "."+sanitize(p.Name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp profile file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp profile file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path(p.Name)); err != nil {
		return fmt.Errorf("rename profile file: %w", err)
	}
	return nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, sanitize(name)+".toml")
}

// sanitize maps a profile name to a safe file stem.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
}

func validateName(name string) error {
	if name == "" {
		return domain.Invalid("profile name", "must not be empty")
	}
	if len(name) > 64 {
		return domain.Invalid("profile name", "must be at most 64 characters")
	}
	if strings.ContainsAny(name, "/\\") {
		return domain.Invalid("profile name", "must not contain path separators")
	}
	return nil
}
