// Package waveform turns audio sources into bounded peak arrays for the
// editor's track visuals. Generation never fails hard: a source that cannot
// be decoded degrades to a synthetic placeholder so the visual layer always
// has something to render.
package waveform

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"cutroom/internal/logging"
)

// Result is a fixed-size normalized peak array plus the decoded duration.
// Placeholder results carry Duration 0.
type Result struct {
	Peaks       []float64
	Duration    float64
	Placeholder bool
}

// Decoder produces mono PCM samples for a source reference.
type Decoder interface {
	DecodePCM(ctx context.Context, sourceRef string) (samples []int16, sampleRate int, err error)
}

// FFmpegDecoder decodes through the ffmpeg binary to s16le mono PCM.
type FFmpegDecoder struct {
	Binary     string
	SampleRate int
}

var commandContext = exec.CommandContext

// DecodePCM runs ffmpeg and returns interleaved mono samples.
func (d FFmpegDecoder) DecodePCM(ctx context.Context, sourceRef string) ([]int16, int, error) {
	binaryName := d.Binary
	if binaryName == "" {
		binaryName = "ffmpeg"
	}
	rate := d.SampleRate
	if rate <= 0 {
		rate = 8000
	}

	cmd := commandContext(ctx, binaryName,
		"-i", sourceRef,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, 0, fmt.Errorf("ffmpeg decode %s: %w", sourceRef, err)
	}

	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}
	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}
	return samples, rate, nil
}

// Generator computes and caches peak arrays per source identity.
type Generator struct {
	decoder Decoder
	bins    int
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]Result
}

// NewGenerator builds a generator producing bins peaks per source.
func NewGenerator(decoder Decoder, bins int, logger *slog.Logger) *Generator {
	if bins <= 0 {
		bins = 200
	}
	return &Generator{
		decoder: decoder,
		bins:    bins,
		logger:  logging.WithComponent(logger, "waveform"),
		cache:   make(map[string]Result),
	}
}

// Peaks returns the peak array for the source, decoding it on first use.
// Decode failures are logged and degrade to a placeholder; callers never see
// an error.
func (g *Generator) Peaks(ctx context.Context, sourceRef string) Result {
	g.mu.Lock()
	if cached, ok := g.cache[sourceRef]; ok {
		g.mu.Unlock()
		return cached
	}
	g.mu.Unlock()

	result := g.generate(ctx, sourceRef)

	g.mu.Lock()
	g.cache[sourceRef] = result
	g.mu.Unlock()
	return result
}

func (g *Generator) generate(ctx context.Context, sourceRef string) Result {
	samples, rate, err := g.decoder.DecodePCM(ctx, sourceRef)
	if err != nil || len(samples) == 0 || rate <= 0 {
		if err != nil {
			g.logger.Warn("decode failed, using placeholder peaks",
				logging.String(logging.FieldSource, sourceRef),
				logging.Error(err),
			)
		}
		return placeholder(sourceRef, g.bins)
	}

	peaks := foldPeaks(samples, g.bins)
	return Result{
		Peaks:    peaks,
		Duration: float64(len(samples)) / float64(rate),
	}
}

// foldPeaks reduces samples to bins by taking the per-bin absolute maximum,
// then normalizes the whole array to 0..1.
func foldPeaks(samples []int16, bins int) []float64 {
	peaks := make([]float64, bins)
	perBin := len(samples) / bins
	if perBin == 0 {
		perBin = 1
	}
	var global float64
	for i := 0; i < bins; i++ {
		lo := i * perBin
		if lo >= len(samples) {
			break
		}
		hi := lo + perBin
		if hi > len(samples) {
			hi = len(samples)
		}
		var peak float64
		for _, s := range samples[lo:hi] {
			if v := math.Abs(float64(s)); v > peak {
				peak = v
			}
		}
		peaks[i] = peak
		if peak > global {
			global = peak
		}
	}
	if global > 0 {
		for i := range peaks {
			peaks[i] /= global
		}
	}
	return peaks
}

// placeholder returns plausible deterministic magnitudes seeded from the
// source reference so repeated renders are stable.
func placeholder(sourceRef string, bins int) Result {
	hash := fnv.New64a()
	hash.Write([]byte(sourceRef))
	state := hash.Sum64()
	if state == 0 {
		state = 0x9e3779b97f4a7c15
	}

	peaks := make([]float64, bins)
	for i := range peaks {
		// xorshift64 keeps the placeholder cheap and reproducible.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		peaks[i] = 0.2 + 0.6*float64(state%1000)/999
	}
	return Result{Peaks: peaks, Duration: 0, Placeholder: true}
}
