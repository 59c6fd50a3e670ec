package hardware

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/forgectl/forge/internal/hardware/sysfs"
)

// fakeSysfs is an in-memory SysfsLayer. Writes are recorded with explicit
// begin/end markers so tests can observe interleaving.
type fakeSysfs struct {
	mu     sync.Mutex
	nodes  map[sysfs.Attribute]string
	log    []string
	err    error // forced failure for the next operation
	sensor struct {
		cpuTemp float64
		gpuTemp float64
		fan1    int
		fan2    int
		battery int
		ac      bool
	}
}

func newFakeSysfs() *fakeSysfs {
	return &fakeSysfs{nodes: map[sysfs.Attribute]string{}}
}

func (f *fakeSysfs) Exists(attr sysfs.Attribute) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.nodes[attr]
	return ok
}

func (f *fakeSysfs) Resolve(attr sysfs.Attribute) (string, bool) {
	if f.Exists(attr) {
		return "fake/" + string(attr), true
	}
	return "", false
}

func (f *fakeSysfs) ReadString(attr sysfs.Attribute) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.nodes[attr]
	if !ok {
		return "", fmt.Errorf("%s: not present", attr)
	}
	return v, nil
}

func (f *fakeSysfs) ReadInt(attr sysfs.Attribute) (int, error) {
	raw, err := f.ReadString(attr)
	if err != nil {
		return 0, err
	}
	var n int
	_, err = fmt.Sscanf(raw, "%d", &n)
	return n, err
}

func (f *fakeSysfs) WriteString(attr sysfs.Attribute, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, fmt.Sprintf("begin %s=%s", attr, value))
	if f.err != nil {
		err := f.err
		f.log = append(f.log, fmt.Sprintf("fail %s", attr))
		return err
	}
	f.nodes[attr] = value
	f.log = append(f.log, fmt.Sprintf("end %s", attr))
	return nil
}

func (f *fakeSysfs) WriteInt(attr sysfs.Attribute, value int) error {
	return f.WriteString(attr, fmt.Sprint(value))
}

func (f *fakeSysfs) CPUTemp() (float64, bool) { return f.sensor.cpuTemp, f.sensor.cpuTemp != 0 }
func (f *fakeSysfs) GPUTemp() (float64, bool) { return f.sensor.gpuTemp, f.sensor.gpuTemp != 0 }
func (f *fakeSysfs) FanRPM(n int) (int, bool) {
	if n == 1 {
		return f.sensor.fan1, f.sensor.fan1 != 0
	}
	return f.sensor.fan2, f.sensor.fan2 != 0
}
func (f *fakeSysfs) HasFanController() bool     { return f.sensor.fan1 != 0 }
func (f *fakeSysfs) BatteryStatus() (int, bool) { return f.sensor.battery, f.sensor.ac }
func (f *fakeSysfs) PowerDraw() float64         { return 0 }

func (f *fakeSysfs) writeLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

// fakeTools is an in-memory ToolLayer with canned outputs per tool.
type fakeTools struct {
	mu      sync.Mutex
	present map[string]bool
	output  map[string]string // keyed by "tool arg0 arg1..."
	err     error
	calls   []string
}

func newFakeTools() *fakeTools {
	return &fakeTools{present: map[string]bool{}, output: map[string]string{}}
}

func (f *fakeTools) Probe(ctx context.Context, tool string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present[tool]
}

func (f *fakeTools) Invoke(ctx context.Context, tool string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := tool
	for _, a := range args {
		key += " " + a
	}
	f.calls = append(f.calls, key)
	if f.err != nil {
		return "", f.err
	}
	return f.output[key], nil
}

// forbiddenSysfs fails the test if any operation reaches it.
type forbiddenSysfs struct {
	t *testing.T
	fakeSysfs
}

func (f *forbiddenSysfs) WriteString(attr sysfs.Attribute, value string) error {
	f.t.Errorf("sysfs layer invoked for unsupported feature: write %s", attr)
	return nil
}

func (f *forbiddenSysfs) WriteInt(attr sysfs.Attribute, value int) error {
	f.t.Errorf("sysfs layer invoked for unsupported feature: write %s", attr)
	return nil
}

func (f *forbiddenSysfs) ReadString(attr sysfs.Attribute) (string, error) {
	f.t.Errorf("sysfs layer invoked for unsupported feature: read %s", attr)
	return "", nil
}

func (f *forbiddenSysfs) ReadInt(attr sysfs.Attribute) (int, error) {
	f.t.Errorf("sysfs layer invoked for unsupported feature: read %s", attr)
	return 0, nil
}

// forbiddenTools fails the test if any invocation reaches it.
type forbiddenTools struct{ t *testing.T }

func (f *forbiddenTools) Probe(ctx context.Context, tool string) bool { return false }
func (f *forbiddenTools) Invoke(ctx context.Context, tool string, args ...string) (string, error) {
	f.t.Errorf("tool layer invoked for unsupported feature: %s %v", tool, args)
	return "", nil
}
