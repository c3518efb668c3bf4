package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cutroom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.StagingDir = filepath.Join(base, "staging")
	cfgVal.OutputDir = filepath.Join(base, "exports")
	cfgVal.LogDir = filepath.Join(base, "logs")
	cfgVal.MockOpDelayMS = 0
	cfgVal.LockTimeoutSeconds = 1

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithFFmpegBinaries overrides the backend binary paths.
func WithFFmpegBinaries(ffmpegBinary, ffprobeBinary string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FFmpegBinary = ffmpegBinary
		b.cfg.FFprobeBinary = ffprobeBinary
	}
}

// WithoutMockFallback disables the simulated backend fallback.
func WithoutMockFallback() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AllowMockFallback = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// points the config at them. If names is empty, ffmpeg and ffprobe are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "ffmpeg":
				b.cfg.FFmpegBinary = target
			case "ffprobe":
				b.cfg.FFprobeBinary = target
			}
		}
	}
}
