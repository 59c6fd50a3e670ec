package daemon

import (
	"sync"
	"time"

	"github.com/forgectl/forge/internal/domain"
	"github.com/forgectl/forge/internal/hardware"
)

// Phase is the daemon lifecycle phase.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseReady        Phase = "ready"
	PhaseShuttingDown Phase = "shutting_down"
)

// State owns the daemon's view of the hardware: the capability set, the
// last known good snapshot and the active profile name. One RWMutex
// guards everything. Reads take the read lock and return copies; writes
// take the write lock for the whole hardware round trip, so two setters
// can never interleave their sysfs or tool I/O.
type State struct {
	mu            sync.RWMutex
	phase         Phase
	caps          domain.CapabilitySet
	snapshot      domain.HardwareSnapshot
	activeProfile string
}

// NewState returns a State in the initializing phase.
func NewState() *State {
	return &State{phase: PhaseInitializing}
}

// Phase returns the current lifecycle phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Snapshot returns a copy of the current hardware snapshot.
func (s *State) Snapshot() domain.HardwareSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Caps returns the current capability set.
func (s *State) Caps() domain.CapabilitySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// ActiveProfile returns the name of the last applied profile, or "".
func (s *State) ActiveProfile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProfile
}

// View returns one consistent read of phase, snapshot, caps and active
// profile under a single lock acquisition.
func (s *State) View() (Phase, domain.HardwareSnapshot, domain.CapabilitySet, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase, s.snapshot, s.caps, s.activeProfile
}

// MarkReady transitions Initializing -> Ready.
func (s *State) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseInitializing {
		s.phase = PhaseReady
	}
}

// BeginShutdown transitions to ShuttingDown. Writes arriving after this
// point are rejected; in-flight writes finish because they hold the lock.
func (s *State) BeginShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseShuttingDown
}

// Prime installs the initial capability set and snapshot during startup,
// before the daemon is marked ready.
func (s *State) Prime(caps domain.CapabilitySet, snap domain.HardwareSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps = caps
	s.snapshot = snap
}

// MutateCaps runs fn inside the write section and installs the capability
// set it returns before the lock is released, so a re-detection and the
// swap to the new set are one atomic step: no setter can dispatch against
// a superseded set in between.
func (s *State) MutateCaps(fn func() (domain.CapabilitySet, error)) (domain.CapabilitySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseInitializing:
		return domain.CapabilitySet{}, domain.ErrNotReady
	case PhaseShuttingDown:
		return domain.CapabilitySet{}, domain.ErrShuttingDown
	}

	caps, err := fn()
	if err != nil {
		return domain.CapabilitySet{}, err
	}
	s.caps = caps
	return caps, nil
}

// SetActiveProfile records the last applied profile name.
func (s *State) SetActiveProfile(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeProfile = name
}

// Mutate runs fn inside the write section. fn receives a scratch copy of
// the snapshot and the current caps; it performs the hardware write and
// updates the copy to match. The copy is committed only when fn returns
// nil, so a failed write leaves the last known good snapshot intact.
//
// The write lock is held across the hardware I/O. That is deliberate:
// concurrent setters must not interleave at the sysfs level.
func (s *State) Mutate(fn func(snap *domain.HardwareSnapshot, caps domain.CapabilitySet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseInitializing:
		return domain.ErrNotReady
	case PhaseShuttingDown:
		return domain.ErrShuttingDown
	}

	scratch := s.snapshot
	if err := fn(&scratch, s.caps); err != nil {
		return err
	}
	s.snapshot = scratch
	return nil
}

// PublishSensors patches the sensor fields of the snapshot with one
// refresh pass. Settings fields are left untouched.
func (s *State) PublishSensors(r hardware.SensorReadings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.CPUTempC = r.CPUTempC
	s.snapshot.GPUTempC = r.GPUTempC
	s.snapshot.CPUFanRPM = r.CPUFanRPM
	s.snapshot.GPUFanRPM = r.GPUFanRPM
	s.snapshot.BatteryPercent = r.BatteryPercent
	s.snapshot.ACOnline = r.ACOnline
	s.snapshot.PowerDrawW = r.PowerDrawW
	if r.ReadAt.IsZero() {
		s.snapshot.RefreshedAt = time.Now()
	} else {
		s.snapshot.RefreshedAt = r.ReadAt
	}
}
