package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgectl/forge/internal/api"
	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/hardware"
	"github.com/forgectl/forge/internal/hardware/sysfs"
	"github.com/forgectl/forge/internal/hardware/tool"
	"github.com/forgectl/forge/internal/infra/metrics"
	"github.com/forgectl/forge/internal/infra/sqlite"
	"github.com/forgectl/forge/internal/profile"
)

// Daemon is the forge runtime. It wires the hardware layers, the profile
// manager, telemetry storage and the HTTP API together, and implements
// the api.Service surface. All setters funnel through State.Mutate, so
// hardware writes are strictly serialized.
type Daemon struct {
	Config   Config
	State    *State
	Hardware *hardware.Controller
	Detector *hardware.Detector
	Profiles *profile.Manager
	History  *sqlite.Store
	Server   *api.Server

	cancel context.CancelFunc
}

// New creates a Daemon from the on-disk configuration.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	overrides := make(map[sysfs.Attribute][]string, len(cfg.Hardware.SysfsOverrides))
	for attr, path := range cfg.Hardware.SysfsOverrides {
		overrides[sysfs.Attribute(attr)] = []string{path}
	}
	opts := []sysfs.Option{sysfs.WithOverrides(overrides)}
	if cfg.Hardware.SysfsRoot != "" {
		opts = append(opts, sysfs.WithRoot(cfg.Hardware.SysfsRoot))
	}
	sys := sysfs.New(opts...)

	tools := tool.NewBridge(cfg.ToolTimeout())

	detector := hardware.NewDetector(sys, tools)
	detector.DisableTools = cfg.Hardware.DisableTools

	profiles, err := profile.NewManager(cfg.Profiles.Dir)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	d := &Daemon{
		Config:   cfg,
		State:    NewState(),
		Hardware: hardware.NewController(sys, tools),
		Detector: detector,
		Profiles: profiles,
	}

	if cfg.Telemetry.History {
		store, err := sqlite.Open(forgeHome())
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		d.History = store
	}

	d.Server = api.NewServer(d)
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	return d, nil
}

// Serve detects hardware, marks the daemon ready and runs the HTTP
// server until a signal or context cancellation.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	caps := d.Detector.Detect(ctx)
	d.State.Prime(caps, d.primeSnapshot(ctx, caps))
	d.State.MarkReady()
	log.Printf("[daemon] ready: model %q, %d features supported",
		caps.ModelName, countSupported(caps))

	go d.refreshLoop(ctx)
	if d.History != nil {
		go d.pruneLoop(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		// Reject new writes first; in-flight writes drain because they
		// hold the state lock until they finish.
		d.State.BeginShutdown()
		log.Printf("[daemon] shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		if d.History != nil {
			_ = d.History.Close()
		}
		cancel()
	}()

	log.Printf("[daemon] serving on http://%s", addr)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	d.State.BeginShutdown()
	if d.cancel != nil {
		d.cancel()
	}
	if d.History != nil {
		_ = d.History.Close()
	}
}

// primeSnapshot reads the initial hardware state for every supported
// feature. Read failures leave the unknown sentinel in place; the RGB
// state is write-only hardware, so it starts at the zero value and
// tracks writes from then on.
func (d *Daemon) primeSnapshot(ctx context.Context, caps domain.CapabilitySet) domain.HardwareSnapshot {
	snap := domain.HardwareSnapshot{
		PerformanceMode: domain.PerfUnknown,
		GpuMode:         domain.GpuUnknown,
	}

	if mode, err := d.Hardware.GetPerformanceMode(ctx, caps); err == nil {
		snap.PerformanceMode = mode
	}
	if mode, err := d.Hardware.GetGpuMode(ctx, caps); err == nil {
		snap.GpuMode = mode
	}
	if fan, err := d.Hardware.GetFan(ctx, caps); err == nil {
		snap.Fan = fan
	}
	if limit, err := d.Hardware.GetBatteryLimit(ctx, caps); err == nil {
		snap.BatteryLimit = limit
	}

	r := d.Hardware.ReadSensors(ctx)
	snap.CPUTempC = r.CPUTempC
	snap.GPUTempC = r.GPUTempC
	snap.CPUFanRPM = r.CPUFanRPM
	snap.GPUFanRPM = r.GPUFanRPM
	snap.BatteryPercent = r.BatteryPercent
	snap.ACOnline = r.ACOnline
	snap.PowerDrawW = r.PowerDrawW
	snap.RefreshedAt = r.ReadAt
	return snap
}

// refreshLoop re-reads the sensors on the configured interval and
// publishes them into the snapshot. Sensor reads go to read-only nodes,
// so they run outside the write section.
func (d *Daemon) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(d.Config.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r := d.Hardware.ReadSensors(ctx)
			d.State.PublishSensors(r)
			metrics.RefreshCycles.Inc()

			if d.History != nil {
				err := d.History.InsertSample(sqlite.Sample{
					Time:           r.ReadAt,
					CPUTempC:       int(r.CPUTempC),
					GPUTempC:       int(r.GPUTempC),
					CPUFanRPM:      r.CPUFanRPM,
					GPUFanRPM:      r.GPUFanRPM,
					BatteryPercent: r.BatteryPercent,
					ACOnline:       r.ACOnline,
					PowerDrawW:     r.PowerDrawW,
				})
				if err != nil {
					log.Printf("[daemon] history sample insert failed: %v", err)
				}
			}
		}
	}
}

// pruneLoop trims old history samples once an hour.
func (d *Daemon) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	retention := time.Duration(d.Config.Telemetry.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = 168 * time.Hour
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.History.PruneSamplesBefore(time.Now().Add(-retention))
			if err != nil {
				log.Printf("[daemon] history prune failed: %v", err)
			} else if n > 0 {
				log.Printf("[daemon] pruned %d history samples", n)
			}
		}
	}
}

// ─── api.Service ────────────────────────────────────────────────────────────

// View returns one consistent read of the daemon state.
func (d *Daemon) View() (string, domain.HardwareSnapshot, domain.CapabilitySet, string) {
	phase, snap, caps, active := d.State.View()
	return string(phase), snap, caps, active
}

// Redetect re-runs capability detection, for example after installing
// asusctl. Detection and the swap to the new set happen inside one write
// section, so no setter can run against the superseded capabilities.
func (d *Daemon) Redetect(ctx context.Context) (domain.CapabilitySet, error) {
	ctx = context.WithoutCancel(ctx)
	return d.State.MutateCaps(func() (domain.CapabilitySet, error) {
		return d.Detector.Detect(ctx), nil
	})
}

// SetPerformanceMode switches the platform performance mode.
//
// Every setter detaches the request context before touching hardware: a
// client that disconnects mid-request must not kill a tool invocation in
// flight. The bridge's own timeout still bounds the call.
func (d *Daemon) SetPerformanceMode(ctx context.Context, mode domain.PerformanceMode) error {
	ctx = context.WithoutCancel(ctx)
	err := d.State.Mutate(func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error {
		if err := d.Hardware.SetPerformanceMode(ctx, caps, mode); err != nil {
			return err
		}
		snap.PerformanceMode = mode
		return nil
	})
	d.journal(domain.FeaturePerformance, string(mode), err)
	return err
}

// SetGpuMode switches the GPU MUX mode. Takes effect after reboot on
// most machines.
func (d *Daemon) SetGpuMode(ctx context.Context, mode domain.GpuMode) error {
	ctx = context.WithoutCancel(ctx)
	err := d.State.Mutate(func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error {
		if err := d.Hardware.SetGpuMode(ctx, caps, mode); err != nil {
			return err
		}
		snap.GpuMode = mode
		return nil
	})
	d.journal(domain.FeatureGpuSwitch, string(mode), err)
	return err
}

// SetFan applies fan settings.
func (d *Daemon) SetFan(ctx context.Context, settings domain.FanSettings) error {
	ctx = context.WithoutCancel(ctx)
	err := d.State.Mutate(func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error {
		if err := d.Hardware.SetFan(ctx, caps, settings); err != nil {
			return err
		}
		snap.Fan = settings
		return nil
	})
	d.journal(domain.FeatureFanCurve, string(settings.Mode), err)
	return err
}

// SetRgb applies keyboard lighting settings.
func (d *Daemon) SetRgb(ctx context.Context, settings domain.RgbSettings) error {
	ctx = context.WithoutCancel(ctx)
	err := d.State.Mutate(func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error {
		if err := d.Hardware.SetRgb(ctx, caps, settings); err != nil {
			return err
		}
		snap.Rgb = settings
		return nil
	})
	d.journal(domain.FeatureRgb, string(settings.Effect), err)
	return err
}

// SetBatteryLimit sets the battery charge limit.
func (d *Daemon) SetBatteryLimit(ctx context.Context, limit int) error {
	ctx = context.WithoutCancel(ctx)
	err := d.State.Mutate(func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error {
		if err := d.Hardware.SetBatteryLimit(ctx, caps, limit); err != nil {
			return err
		}
		snap.BatteryLimit = limit
		return nil
	})
	d.journal(domain.FeatureBatteryLimit, fmt.Sprint(limit), err)
	return err
}

// ListProfiles returns built-in and user profiles.
func (d *Daemon) ListProfiles() []domain.Profile {
	return d.Profiles.List()
}

// GetProfile returns one profile by name.
func (d *Daemon) GetProfile(name string) (domain.Profile, error) {
	return d.Profiles.Get(name)
}

// CreateProfile stores a new user profile.
func (d *Daemon) CreateProfile(p domain.Profile) error {
	return d.Profiles.Create(p)
}

// UpdateProfile replaces an existing user profile.
func (d *Daemon) UpdateProfile(p domain.Profile) error {
	return d.Profiles.Update(p)
}

// DeleteProfile removes a user profile.
func (d *Daemon) DeleteProfile(name string) error {
	return d.Profiles.Delete(name)
}

// ApplyProfile applies a profile best-effort inside the write section.
// Steps that succeeded are committed to the snapshot even when later
// steps fail; the caller gets the per-step results either way.
func (d *Daemon) ApplyProfile(ctx context.Context, name string) ([]domain.StepResult, error) {
	ctx = context.WithoutCancel(ctx)
	p, err := d.Profiles.Get(name)
	if err != nil {
		return nil, err
	}

	var steps []domain.StepResult
	var applyErr error
	err = d.State.Mutate(func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error {
		steps, applyErr = d.Profiles.Apply(ctx, name, caps, d.Hardware)
		for _, step := range steps {
			if !step.OK() {
				continue
			}
			switch step.Feature {
			case domain.FeaturePerformance:
				snap.PerformanceMode = *p.PerformanceMode
			case domain.FeatureGpuSwitch:
				snap.GpuMode = *p.GpuMode
			case domain.FeatureFanCurve:
				snap.Fan = *p.Fan
			case domain.FeatureRgb:
				snap.Rgb = *p.Rgb
			case domain.FeatureBatteryLimit:
				snap.BatteryLimit = *p.BatteryLimit
			}
		}
		// Commit the succeeded steps even on partial failure.
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.State.SetActiveProfile(name)
	d.journal(domain.Feature("profile"), name, applyErr)
	return steps, applyErr
}

// SensorHistory returns recent sensor samples, newest first.
func (d *Daemon) SensorHistory(limit int) ([]sqlite.Sample, error) {
	if d.History == nil {
		return nil, fmt.Errorf("history disabled: %w", domain.ErrFeatureUnsupported)
	}
	return d.History.RecentSamples(limit)
}

// SettingsJournal returns recent settings changes, newest first.
func (d *Daemon) SettingsJournal(limit int) ([]sqlite.JournalEntry, error) {
	if d.History == nil {
		return nil, fmt.Errorf("history disabled: %w", domain.ErrFeatureUnsupported)
	}
	return d.History.RecentJournal(limit)
}

// journal records a settings change attempt when history is enabled.
func (d *Daemon) journal(feature domain.Feature, value string, err error) {
	if d.History == nil {
		return
	}
	outcome, errText := sqlite.OutcomeOK, ""
	if err != nil {
		outcome, errText = sqlite.OutcomeFailed, err.Error()
	}
	if _, jerr := d.History.AppendJournal(feature, value, outcome, errText); jerr != nil {
		log.Printf("[daemon] journal write failed: %v", jerr)
	}
}

func countSupported(caps domain.CapabilitySet) int {
	n := 0
	for _, f := range domain.Features {
		if caps.Supports(f) {
			n++
		}
	}
	return n
}
