package export

import (
	"context"
	"log/slog"
	"time"

	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/media/ffmpeg"
)

// Backend is the abstract media capability the pipeline drives. Handles are
// file paths inside the export workspace; the backend never owns naming.
type Backend interface {
	// TrimVideo isolates [start, end) of a clip source, stream-copied when
	// the backend supports it.
	TrimVideo(ctx context.Context, source string, start, end float64, dest string) error
	// TrimAudio isolates [start, end) of an audio source and applies the
	// volume filter.
	TrimAudio(ctx context.Context, source string, start, end, volume float64, dest string) error
	// Concat joins segments in order into one video-only artifact.
	Concat(ctx context.Context, segments []string, dest string) error
	// MixAudio mixes tracks with longest-duration-wins, silence-padded
	// semantics. A single input passes through.
	MixAudio(ctx context.Context, tracks []string, dest string) error
	// HasAudio reports whether the artifact carries its own audio stream.
	HasAudio(ctx context.Context, path string) (bool, error)
	// Mux combines video and mixed audio; blendOriginal mixes the video's
	// own audio with the external track instead of replacing it.
	Mux(ctx context.Context, videoPath, audioPath string, blendOriginal bool, dest string) error
	// Copy finalizes an artifact without re-encoding.
	Copy(ctx context.Context, src, dest string) error
}

// BackendKind tags the resolved variant.
type BackendKind string

const (
	BackendReal BackendKind = "real"
	BackendMock BackendKind = "mock"
)

// Variant is the backend chosen once at initialization. The pipeline is
// written against the Backend interface regardless of kind; the kind only
// decides the artifact's content type and the simulated pacing.
type Variant struct {
	Kind    BackendKind
	Backend Backend
}

// ResolveBackend probes ffmpeg once and returns the real backend, or the
// simulated one when the binary is unavailable and fallback is allowed. The
// feature never fails just because the codec engine is absent.
func ResolveBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Variant, error) {
	log := logging.WithComponent(logger, "export")

	engine := ffmpeg.New(
		ffmpeg.WithBinaries(cfg.FFmpegBinary, cfg.FFprobeBinary),
		ffmpeg.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
	)
	if err := engine.Available(ctx); err != nil {
		if !cfg.AllowMockFallback {
			return Variant{}, err
		}
		log.Warn("media backend unavailable, using simulated exports", logging.Error(err))
		delay := time.Duration(cfg.MockOpDelayMS) * time.Millisecond
		return Variant{Kind: BackendMock, Backend: NewMockBackend(delay)}, nil
	}
	return Variant{Kind: BackendReal, Backend: engine}, nil
}

var _ Backend = (*ffmpeg.Backend)(nil)
