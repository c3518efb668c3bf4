package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cutroom/internal/media/ffprobe"
	"cutroom/internal/services"
)

// Backend drives the ffmpeg and ffprobe binaries. One instance is safe for
// concurrent use; every operation is a single process invocation.
type Backend struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// Option configures the backend.
type Option func(*Backend)

// WithBinaries overrides the default binary names.
func WithBinaries(ffmpegBinary, ffprobeBinary string) Option {
	return func(b *Backend) {
		if ffmpegBinary != "" {
			b.ffmpeg = ffmpegBinary
		}
		if ffprobeBinary != "" {
			b.ffprobe = ffprobeBinary
		}
	}
}

// WithTimeout bounds each backend invocation. Zero means no bound.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Backend) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// New constructs a backend using defaults.
func New(opts ...Option) *Backend {
	backend := &Backend{ffmpeg: "ffmpeg", ffprobe: "ffprobe"}
	for _, opt := range opts {
		opt(backend)
	}
	return backend
}

var commandContext = exec.CommandContext

// Available probes the ffmpeg binary once. An error means the backend cannot
// transcode and the caller should fall back to the simulated pipeline.
func (b *Backend) Available(ctx context.Context) error {
	cmd := commandContext(ctx, b.ffmpeg, "-version")
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrUnavailable, "ffmpeg", "version probe", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// TrimVideo cuts [start, end) out of source into dest using stream copy, so
// no re-encode happens on the isolation pass.
func (b *Backend) TrimVideo(ctx context.Context, source string, start, end float64, dest string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", source,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		dest,
	}
	return b.run(ctx, "trim video", args)
}

// TrimAudio cuts [start, end) out of source and applies the volume filter.
func (b *Backend) TrimAudio(ctx context.Context, source string, start, end, volume float64, dest string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", source,
		"-vn",
		"-filter:a", fmt.Sprintf("volume=%s", formatVolume(volume)),
		dest,
	}
	return b.run(ctx, "trim audio", args)
}

// Concat joins the segments in order through the concat demuxer, stream
// copied.
func (b *Backend) Concat(ctx context.Context, segments []string, dest string) error {
	if len(segments) == 0 {
		return services.Wrap(services.ErrValidation, "ffmpeg", "concat", "no segments", nil)
	}

	listPath := dest + ".txt"
	var list strings.Builder
	for _, segment := range segments {
		list.WriteString("file '")
		list.WriteString(strings.ReplaceAll(segment, "'", `'\''`))
		list.WriteString("'\n")
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		dest,
	}
	return b.run(ctx, "concat", args)
}

// MixAudio mixes the tracks with longest-duration-wins semantics; shorter
// inputs are padded with silence by the mixer. A single track is passed
// through unchanged.
func (b *Backend) MixAudio(ctx context.Context, tracks []string, dest string) error {
	if len(tracks) == 0 {
		return services.Wrap(services.ErrValidation, "ffmpeg", "mix", "no tracks", nil)
	}
	if len(tracks) == 1 {
		return b.Copy(ctx, tracks[0], dest)
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, track := range tracks {
		args = append(args, "-i", track)
	}
	filter := fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0", len(tracks))
	args = append(args, "-filter_complex", filter, dest)
	return b.run(ctx, "mix", args)
}

// HasAudio inspects the container for audio streams.
func (b *Backend) HasAudio(ctx context.Context, path string) (bool, error) {
	result, err := ffprobe.Inspect(ctx, b.ffprobe, path)
	if err != nil {
		return false, services.Wrap(services.ErrExternalTool, "ffprobe", "stream inspection", filepath.Base(path), err)
	}
	return result.HasAudio(), nil
}

// Mux combines the video artifact with the mixed audio. When blendOriginal
// is set the video's own audio is mixed with the external track instead of
// being replaced.
func (b *Backend) Mux(ctx context.Context, videoPath, audioPath string, blendOriginal bool, dest string) error {
	var args []string
	if blendOriginal {
		args = []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", videoPath,
			"-i", audioPath,
			"-filter_complex", "[0:a][1:a]amix=inputs=2:duration=longest:normalize=0[aout]",
			"-map", "0:v:0",
			"-map", "[aout]",
			"-c:v", "copy",
			dest,
		}
	} else {
		args = []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", videoPath,
			"-i", audioPath,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:v", "copy",
			dest,
		}
	}
	return b.run(ctx, "mux", args)
}

// Copy remuxes src into dest without re-encoding. Used for the no-audio fast
// path and single-track mixes.
func (b *Backend) Copy(ctx context.Context, src, dest string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-c", "copy",
		dest,
	}
	return b.run(ctx, "copy", args)
}

func (b *Backend) run(ctx context.Context, operation string, args []string) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	cmd := commandContext(ctx, b.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, errDetail(ctx, "cancelled"), ctx.Err())
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, errDetail(ctx, strings.TrimSpace(string(output))), err)
	}
	return nil
}

// errDetail prefixes the failure detail with the export run it belongs to,
// so a tool error in the logs can be matched to its run without the caller's
// logger context.
func errDetail(ctx context.Context, msg string) string {
	id, ok := services.ExportIDFromContext(ctx)
	if !ok {
		return msg
	}
	if msg == "" {
		return "export " + id
	}
	return "export " + id + ": " + msg
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func formatVolume(value float64) string {
	if value < 0 {
		value = 0
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}
