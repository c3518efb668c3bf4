package config

const (
	defaultStagingDir         = "~/.local/share/cutroom/staging"
	defaultOutputDir          = "~/.local/share/cutroom/exports"
	defaultLogDir             = "~/.local/share/cutroom/logs"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultFFmpegTimeout      = 1800
	defaultWaveformBins       = 200
	defaultWaveformSampleRate = 8000
	defaultMockOpDelayMS      = 25
	defaultLockTimeout        = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultFFmpegTimeout,
		},
		Waveform: Waveform{
			Bins:       defaultWaveformBins,
			SampleRate: defaultWaveformSampleRate,
		},
		Export: Export{
			AllowMockFallback:  true,
			MockOpDelayMS:      defaultMockOpDelayMS,
			LockTimeoutSeconds: defaultLockTimeout,
		},
		Logging: Logging{
			LogFormat: defaultLogFormat,
			LogLevel:  defaultLogLevel,
		},
	}
}
