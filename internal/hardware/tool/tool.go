// Package tool invokes optional external control utilities (supergfxctl,
// asusctl) when no sysfs node covers a feature. Output is normalized into
// the same result shape the sysfs layer produces: tool absence reads as
// unsupported, a timeout reads as hardware-busy, never as a crash.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/forgectl/forge/internal/domain"
)

// Known tool names.
const (
	Supergfxctl = "supergfxctl"
	Asusctl     = "asusctl"
)

// DefaultTimeout bounds a single tool invocation. Configurable because the
// right bound is hardware-dependent; see the daemon config.
const DefaultTimeout = 5 * time.Second

// Bridge spawns external utilities with a fixed timeout.
type Bridge struct {
	timeout  time.Duration
	lookPath func(string) (string, error)
}

// NewBridge creates a bridge. A non-positive timeout falls back to the
// default.
func NewBridge(timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{timeout: timeout, lookPath: exec.LookPath}
}

// Available reports whether the tool is installed and on PATH.
func (b *Bridge) Available(tool string) bool {
	_, err := b.lookPath(tool)
	return err == nil
}

// Probe checks that the tool is present and answers a trivial query.
// Used by capability detection; failure resolves the feature to unsupported.
func (b *Bridge) Probe(ctx context.Context, tool string) bool {
	if !b.Available(tool) {
		return false
	}
	_, err := b.Invoke(ctx, tool, "--version")
	return err == nil
}

// Invoke runs the tool with args and returns trimmed standard output.
// The child never receives interactive input. A timeout is classified as
// hardware-busy: the caller may retry, the bridge never does.
func (b *Bridge) Invoke(ctx context.Context, tool string, args ...string) (string, error) {
	path, err := b.lookPath(tool)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tool, domain.ErrFeatureUnsupported)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s %s: timed out after %s: %w",
			tool, strings.Join(args, " "), b.timeout, domain.ErrHardwareBusy)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			if unsupportedOutput(msg) {
				return "", fmt.Errorf("%s exited %d: %s: %w",
					tool, exitErr.ExitCode(), msg, domain.ErrFeatureUnsupported)
			}
			return "", fmt.Errorf("%s exited %d: %s", tool, exitErr.ExitCode(), msg)
		}
		return "", fmt.Errorf("%s: %w", tool, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// unsupportedOutput recognizes the ways supergfxctl and asusctl report a
// feature the machine does not have, so a missing MUX or lighting zone
// reads as unsupported rather than an internal failure.
func unsupportedOutput(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"not supported",
		"unsupported",
		"unrecognized",
		"unknown command",
		"no such",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
