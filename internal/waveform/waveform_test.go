package waveform_test

import (
	"context"
	"errors"
	"testing"

	"cutroom/internal/logging"
	"cutroom/internal/waveform"
)

type stubDecoder struct {
	samples []int16
	rate    int
	err     error
	calls   int
}

func (d *stubDecoder) DecodePCM(_ context.Context, _ string) ([]int16, int, error) {
	d.calls++
	return d.samples, d.rate, d.err
}

func rampSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i % 2000)
	}
	return samples
}

func TestPeaksShapeAndNormalization(t *testing.T) {
	decoder := &stubDecoder{samples: rampSamples(16000), rate: 8000}
	gen := waveform.NewGenerator(decoder, 200, logging.NewNop())

	result := gen.Peaks(context.Background(), "/media/vo.wav")
	if len(result.Peaks) != 200 {
		t.Fatalf("expected 200 bins, got %d", len(result.Peaks))
	}
	if result.Duration != 2 {
		t.Fatalf("expected 2s duration, got %v", result.Duration)
	}
	if result.Placeholder {
		t.Fatal("real decode must not be marked placeholder")
	}
	var max float64
	for _, p := range result.Peaks {
		if p < 0 || p > 1 {
			t.Fatalf("peak %v outside 0..1", p)
		}
		if p > max {
			max = p
		}
	}
	if max != 1 {
		t.Fatalf("expected normalization to reach 1, got %v", max)
	}
}

func TestPeaksCachedPerSource(t *testing.T) {
	decoder := &stubDecoder{samples: rampSamples(8000), rate: 8000}
	gen := waveform.NewGenerator(decoder, 100, logging.NewNop())

	ctx := context.Background()
	gen.Peaks(ctx, "/media/a.wav")
	gen.Peaks(ctx, "/media/a.wav")
	if decoder.calls != 1 {
		t.Fatalf("expected one decode, got %d", decoder.calls)
	}
	gen.Peaks(ctx, "/media/b.wav")
	if decoder.calls != 2 {
		t.Fatalf("expected second decode for distinct source, got %d", decoder.calls)
	}
}

func TestDecodeFailureDegradesToPlaceholder(t *testing.T) {
	decoder := &stubDecoder{err: errors.New("no such stream")}
	gen := waveform.NewGenerator(decoder, 200, logging.NewNop())

	result := gen.Peaks(context.Background(), "/media/broken.mp4")
	if !result.Placeholder {
		t.Fatal("expected placeholder result")
	}
	if result.Duration != 0 {
		t.Fatalf("placeholder duration must be 0, got %v", result.Duration)
	}
	if len(result.Peaks) != 200 {
		t.Fatalf("placeholder must keep the bin count, got %d", len(result.Peaks))
	}
	for _, p := range result.Peaks {
		if p < 0.2 || p > 0.8 {
			t.Fatalf("placeholder magnitude %v outside plausible band", p)
		}
	}

	// Placeholder results are deterministic per source.
	again := gen.Peaks(context.Background(), "/media/broken.mp4")
	for i := range result.Peaks {
		if result.Peaks[i] != again.Peaks[i] {
			t.Fatal("placeholder must be stable across calls")
		}
	}
}

func TestEmptyDecodeDegrades(t *testing.T) {
	decoder := &stubDecoder{samples: nil, rate: 8000}
	gen := waveform.NewGenerator(decoder, 64, logging.NewNop())
	result := gen.Peaks(context.Background(), "/media/silent.wav")
	if !result.Placeholder {
		t.Fatal("empty decode must degrade to placeholder")
	}
}
