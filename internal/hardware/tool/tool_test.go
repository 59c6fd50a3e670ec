//go:build linux

package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forgectl/forge/internal/domain"
)

func TestInvokeSuccess(t *testing.T) {
	b := NewBridge(2 * time.Second)
	out, err := b.Invoke(context.Background(), "echo", "Hybrid")
	if err != nil {
		t.Fatalf("Invoke(echo): %v", err)
	}
	if out != "Hybrid" {
		t.Errorf("Invoke(echo) = %q, want %q", out, "Hybrid")
	}
}

func TestInvokeMissingTool(t *testing.T) {
	b := NewBridge(time.Second)
	_, err := b.Invoke(context.Background(), "definitely-not-installed-anywhere")
	if !errors.Is(err, domain.ErrFeatureUnsupported) {
		t.Errorf("Invoke(missing) error = %v, want ErrFeatureUnsupported", err)
	}
	if b.Available("definitely-not-installed-anywhere") {
		t.Error("Available(missing) = true")
	}
}

func TestInvokeTimeout(t *testing.T) {
	b := NewBridge(50 * time.Millisecond)
	start := time.Now()
	_, err := b.Invoke(context.Background(), "sleep", "5")
	if !errors.Is(err, domain.ErrHardwareBusy) {
		t.Errorf("Invoke(sleep 5) error = %v, want ErrHardwareBusy", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Invoke did not honor its timeout (took %s)", elapsed)
	}
}

func TestInvokeExitCode(t *testing.T) {
	b := NewBridge(time.Second)
	_, err := b.Invoke(context.Background(), "false")
	if err == nil {
		t.Fatal("Invoke(false) = nil, want error")
	}
	// A plain failure is neither busy nor unsupported.
	if errors.Is(err, domain.ErrHardwareBusy) || errors.Is(err, domain.ErrFeatureUnsupported) {
		t.Errorf("Invoke(false) error misclassified: %v", err)
	}
}

func TestInvokeClassifiesUnsupportedOutput(t *testing.T) {
	b := NewBridge(time.Second)
	_, err := b.Invoke(context.Background(), "sh", "-c",
		`echo "graphics switching not supported on this machine" >&2; exit 1`)
	if !errors.Is(err, domain.ErrFeatureUnsupported) {
		t.Errorf("Invoke(unsupported output) error = %v, want ErrFeatureUnsupported", err)
	}

	_, err = b.Invoke(context.Background(), "sh", "-c",
		`echo "device reset failed" >&2; exit 1`)
	if errors.Is(err, domain.ErrFeatureUnsupported) {
		t.Errorf("Invoke(plain failure) misclassified as unsupported: %v", err)
	}
}
