package config

import (
	"fmt"
	"strings"
)

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StagingDir) == "" {
		return fmt.Errorf("config: staging_dir must be set")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("config: output_dir must be set")
	}
	if strings.TrimSpace(c.FFmpegBinary) == "" {
		return fmt.Errorf("config: ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.FFprobeBinary) == "" {
		return fmt.Errorf("config: ffprobe_binary must be set")
	}
	if c.Bins < 16 || c.Bins > 4096 {
		return fmt.Errorf("config: waveform bins %d outside 16..4096", c.Bins)
	}
	if c.LogFormat != "" {
		if _, ok := validLogFormats[c.LogFormat]; !ok {
			return fmt.Errorf("config: unsupported log format %q", c.LogFormat)
		}
	}
	if c.LogLevel != "" {
		if _, ok := validLogLevels[c.LogLevel]; !ok {
			return fmt.Errorf("config: unsupported log level %q", c.LogLevel)
		}
	}
	return nil
}
