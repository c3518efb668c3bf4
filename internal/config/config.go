package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for the editor engine.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
}

// FFmpeg contains configuration for the media backend binaries.
type FFmpeg struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Waveform contains configuration for peak extraction.
type Waveform struct {
	Bins       int `toml:"bins"`
	SampleRate int `toml:"sample_rate"`
}

// Export contains configuration for the export pipeline.
type Export struct {
	AllowMockFallback  bool `toml:"allow_mock_fallback"`
	MockOpDelayMS      int  `toml:"mock_op_delay_ms"`
	LockTimeoutSeconds int  `toml:"lock_timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	LogFormat string `toml:"format"`
	LogLevel  string `toml:"level"`
}

// Config is the full engine configuration assembled from the TOML sections.
type Config struct {
	Paths    `toml:"paths"`
	FFmpeg   `toml:"ffmpeg"`
	Waveform `toml:"waveform"`
	Export   `toml:"export"`
	Logging  `toml:"logging"`
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. Relative and home-anchored paths are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	}
	resolved = expandPath(resolved)

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply when no config file exists.
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfigPath returns the expected location of the config file.
func DefaultConfigPath() string {
	return expandPath("~/.config/cutroom/config.toml")
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	path = expandPath(strings.TrimSpace(path))
	if path == "" {
		return errors.New("config: empty sample path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the staging, output, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.StagingDir, c.OutputDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ProjectDBPath returns the location of the project database.
func (c *Config) ProjectDBPath() string {
	return filepath.Join(c.LogDir, "projects.db")
}

func (c *Config) normalize() {
	c.StagingDir = expandPath(c.StagingDir)
	c.OutputDir = expandPath(c.OutputDir)
	c.LogDir = expandPath(c.LogDir)
	c.FFmpegBinary = strings.TrimSpace(c.FFmpegBinary)
	c.FFprobeBinary = strings.TrimSpace(c.FFprobeBinary)
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Bins <= 0 {
		c.Bins = defaultWaveformBins
	}
	if c.SampleRate <= 0 {
		c.SampleRate = defaultWaveformSampleRate
	}
	if c.MockOpDelayMS < 0 {
		c.MockOpDelayMS = defaultMockOpDelayMS
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultFFmpegTimeout
	}
	if c.LockTimeoutSeconds <= 0 {
		c.LockTimeoutSeconds = defaultLockTimeout
	}
}

func expandPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			if trimmed == "~" {
				return home
			}
			return filepath.Join(home, trimmed[2:])
		}
	}
	return trimmed
}
