package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"trackplan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Tools.TimeoutSeconds = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithStubbedTool writes an executable named name that prints stdout and
// exits with exitCode, and points the matching tool setting at it.
func WithStubbedTool(name, stdout string, exitCode int) ConfigOption {
	return func(b *configBuilder) {
		path := WriteStub(b.t, filepath.Join(b.baseDir, "bin"), name, stdout, exitCode)
		switch name {
		case "ffprobe":
			b.cfg.Tools.FFprobe = path
		case "mkvmerge":
			b.cfg.Tools.MkvMerge = path
		case "mediainfo":
			b.cfg.Tools.MediaInfo = path
		default:
			b.t.Fatalf("unknown tool %q", name)
		}
	}
}

// WriteStub creates an executable shell script in dir that prints stdout and
// exits with exitCode. It returns the script path.
func WriteStub(t testing.TB, dir, name, stdout string, exitCode int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	payload := filepath.Join(dir, name+".out")
	if err := os.WriteFile(payload, []byte(stdout), 0o644); err != nil {
		t.Fatalf("write stub output %s: %v", name, err)
	}
	script := fmt.Sprintf("#!/bin/sh\ncat %q\nexit %d\n", payload, exitCode)
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
