package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/forgectl/forge/internal/domain"
)

func perf(m domain.PerformanceMode) *domain.PerformanceMode { return &m }
func gpu(m domain.GpuMode) *domain.GpuMode                  { return &m }
func limit(n int) *int                                      { return &n }

// recordingApplier records the order of applied features and fails the
// ones listed in failOn.
type recordingApplier struct {
	applied []domain.Feature
	failOn  map[domain.Feature]error
}

func (a *recordingApplier) record(f domain.Feature) error {
	a.applied = append(a.applied, f)
	if err, ok := a.failOn[f]; ok {
		return err
	}
	return nil
}

func (a *recordingApplier) SetPerformanceMode(ctx context.Context, caps domain.CapabilitySet, mode domain.PerformanceMode) error {
	return a.record(domain.FeaturePerformance)
}
func (a *recordingApplier) SetGpuMode(ctx context.Context, caps domain.CapabilitySet, mode domain.GpuMode) error {
	return a.record(domain.FeatureGpuSwitch)
}
func (a *recordingApplier) SetFan(ctx context.Context, caps domain.CapabilitySet, settings domain.FanSettings) error {
	return a.record(domain.FeatureFanCurve)
}
func (a *recordingApplier) SetRgb(ctx context.Context, caps domain.CapabilitySet, settings domain.RgbSettings) error {
	return a.record(domain.FeatureRgb)
}
func (a *recordingApplier) SetBatteryLimit(ctx context.Context, caps domain.CapabilitySet, limit int) error {
	return a.record(domain.FeatureBatteryLimit)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func fullProfile(name string) domain.Profile {
	return domain.Profile{
		Name:            name,
		PerformanceMode: perf(domain.PerfTurbo),
		GpuMode:         gpu(domain.GpuHybrid),
		Fan:             &domain.FanSettings{Mode: domain.FanAuto},
		Rgb:             &domain.RgbSettings{Effect: domain.EffectStatic, Brightness: 80, Speed: 50},
		BatteryLimit:    limit(80),
	}
}

func TestListIncludesBuiltins(t *testing.T) {
	m := newTestManager(t)
	list := m.List()
	if len(list) != 4 {
		t.Fatalf("List() = %d profiles, want the 4 built-ins", len(list))
	}
	for _, p := range list {
		if !p.Builtin {
			t.Errorf("profile %q not marked builtin", p.Name)
		}
	}
}

func TestCreateGetDelete(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	p := fullProfile("LAN Party")
	if err := m.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Persisted synchronously: the file exists before Create returns.
	path := filepath.Join(dir, "LAN Party.toml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("profile file missing after Create: %v", err)
	}

	got, err := m.Get("LAN Party")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got.PerformanceMode != domain.PerfTurbo || *got.BatteryLimit != 80 {
		t.Errorf("Get returned wrong values: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.ModifiedAt.IsZero() {
		t.Error("timestamps not set on Create")
	}

	if err := m.Delete("LAN Party"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("profile file still exists after Delete")
	}
	if _, err := m.Get("LAN Party"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrProfileNotFound", err)
	}
	for _, p := range m.List() {
		if p.Name == "LAN Party" {
			t.Error("deleted profile still appears in List()")
		}
	}
}

func TestCreateRejectsBuiltinCollision(t *testing.T) {
	m := newTestManager(t)
	err := m.Create(fullProfile("Gaming"))
	if !errors.Is(err, domain.ErrProfileBuiltin) {
		t.Errorf("Create(Gaming) error = %v, want ErrProfileBuiltin", err)
	}
}

func TestDeleteBuiltinRejected(t *testing.T) {
	m := newTestManager(t)
	err := m.Delete("Gaming")
	if !errors.Is(err, domain.ErrProfileBuiltin) {
		t.Errorf("Delete(Gaming) error = %v, want ErrProfileBuiltin", err)
	}
}

func TestUpdate(t *testing.T) {
	m := newTestManager(t)
	if err := m.Create(fullProfile("Quiet Desk")); err != nil {
		t.Fatal(err)
	}

	p := fullProfile("Quiet Desk")
	p.PerformanceMode = perf(domain.PerfSilent)
	if err := m.Update(p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := m.Get("Quiet Desk")
	if *got.PerformanceMode != domain.PerfSilent {
		t.Errorf("update not applied: %v", *got.PerformanceMode)
	}

	if err := m.Update(fullProfile("NoSuch")); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrProfileNotFound", err)
	}
	if err := m.Update(fullProfile("Balanced")); !errors.Is(err, domain.ErrProfileBuiltin) {
		t.Errorf("Update(builtin) error = %v, want ErrProfileBuiltin", err)
	}
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Create(fullProfile("Travel")); err != nil {
		t.Fatal(err)
	}

	// A second manager over the same dir sees the persisted profile.
	m2, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m2.Get("Travel")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if *got.GpuMode != domain.GpuHybrid {
		t.Errorf("reloaded profile differs: %+v", got)
	}
}

func TestCorruptFileSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.toml"), []byte("{{{not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager over corrupt file: %v", err)
	}
	if len(m.List()) != 4 {
		t.Errorf("List() = %d, want only the 4 built-ins", len(m.List()))
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	dir := t.TempDir()
	content := "name = \"Future\"\nperformance_mode = \"turbo\"\nshiny_new_field = 42\n"
	if err := os.WriteFile(filepath.Join(dir, "Future.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Get("Future")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got.PerformanceMode != domain.PerfTurbo {
		t.Errorf("known fields lost alongside unknown one: %+v", got)
	}
}

func TestApplyOrderAndBestEffort(t *testing.T) {
	m := newTestManager(t)
	if err := m.Create(fullProfile("Everything")); err != nil {
		t.Fatal(err)
	}

	// Step 3 of 5 (fan) is unsupported; the remaining steps still run.
	a := &recordingApplier{failOn: map[domain.Feature]error{
		domain.FeatureFanCurve: fmt.Errorf("fan: %w", domain.ErrFeatureUnsupported),
	}}
	steps, err := m.Apply(context.Background(), "Everything", domain.CapabilitySet{}, a)

	var pf *domain.PartialFailure
	if !errors.As(err, &pf) {
		t.Fatalf("Apply error = %v, want PartialFailure", err)
	}
	wantOrder := []domain.Feature{
		domain.FeaturePerformance,
		domain.FeatureGpuSwitch,
		domain.FeatureFanCurve,
		domain.FeatureRgb,
		domain.FeatureBatteryLimit,
	}
	if len(a.applied) != len(wantOrder) {
		t.Fatalf("applied %d steps %v, want all %d", len(a.applied), a.applied, len(wantOrder))
	}
	for i, f := range wantOrder {
		if a.applied[i] != f {
			t.Errorf("step %d = %s, want %s", i, a.applied[i], f)
		}
	}
	if len(steps) != 5 {
		t.Fatalf("got %d step results, want 5", len(steps))
	}
	for i, s := range steps {
		wantFail := s.Feature == domain.FeatureFanCurve
		if s.OK() == wantFail {
			t.Errorf("step %d (%s) OK = %v", i, s.Feature, s.OK())
		}
	}
	if failed := pf.Failed(); len(failed) != 1 || failed[0] != domain.FeatureFanCurve {
		t.Errorf("Failed() = %v, want [fan_curve]", failed)
	}
}

func TestApplySkipsUnsetFields(t *testing.T) {
	m := newTestManager(t)
	p := domain.Profile{Name: "Minimal", BatteryLimit: limit(60)}
	if err := m.Create(p); err != nil {
		t.Fatal(err)
	}

	a := &recordingApplier{}
	steps, err := m.Apply(context.Background(), "Minimal", domain.CapabilitySet{}, a)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(steps) != 1 || steps[0].Feature != domain.FeatureBatteryLimit {
		t.Errorf("steps = %v, want only battery_limit", steps)
	}
	if len(a.applied) != 1 {
		t.Errorf("applied = %v, want only battery_limit", a.applied)
	}
}

func TestApplyMissingProfile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Apply(context.Background(), "NoSuch", domain.CapabilitySet{}, &recordingApplier{})
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("Apply(missing) error = %v, want ErrProfileNotFound", err)
	}
}

func TestConcurrentEditorsAndReaders(t *testing.T) {
	m := newTestManager(t)

	// HTTP handlers hit the manager directly, so edits race reads.
	// Run under -race to catch unguarded map access.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("race-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := fullProfile(name)
			if err := m.Create(p); err != nil {
				t.Errorf("Create(%s): %v", name, err)
				return
			}
			if _, err := m.Get(name); err != nil {
				t.Errorf("Get(%s): %v", name, err)
			}
			if err := m.Delete(name); err != nil {
				t.Errorf("Delete(%s): %v", name, err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				m.List()
			}
		}()
	}
	wg.Wait()

	if got := len(m.List()); got != len(domain.BuiltinProfiles()) {
		t.Errorf("profiles left after churn = %d, want only built-ins", got)
	}
}
