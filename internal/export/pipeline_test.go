package export_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"cutroom/internal/export"
	"cutroom/internal/logging"
	"cutroom/internal/services"
	"cutroom/internal/testsupport"
	"cutroom/internal/timeline"
)

// fakeBackend scripts backend behaviour per operation. Every successful
// operation writes its dest so artifact stat calls succeed.
type fakeBackend struct {
	mu            sync.Mutex
	calls         []string
	trimVideoErr  map[string]error // keyed by source
	trimAudioErr  map[string]error
	concatErr     error
	mixErr        error
	muxErr        error
	hasAudio      bool
	hasAudioErr   error
	copyGate      chan struct{}
	mixedTracks   int
	muxBlended    bool
	muxCalled     bool
	concatDetails []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		trimVideoErr: map[string]error{},
		trimAudioErr: map[string]error{},
	}
}

func (f *fakeBackend) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeBackend) TrimVideo(_ context.Context, source string, start, end float64, dest string) error {
	if err := f.trimVideoErr[source]; err != nil {
		return err
	}
	f.record("trim-video %s %.1f-%.1f", source, start, end)
	return os.WriteFile(dest, []byte("video"), 0o644)
}

func (f *fakeBackend) TrimAudio(_ context.Context, source string, start, end, volume float64, dest string) error {
	if err := f.trimAudioErr[source]; err != nil {
		return err
	}
	f.record("trim-audio %s %.1f-%.1f vol=%.2f", source, start, end, volume)
	return os.WriteFile(dest, []byte("audio"), 0o644)
}

func (f *fakeBackend) Concat(_ context.Context, segments []string, dest string) error {
	if f.concatErr != nil {
		return f.concatErr
	}
	f.mu.Lock()
	f.concatDetails = append([]string(nil), segments...)
	f.mu.Unlock()
	f.record("concat %d", len(segments))
	return os.WriteFile(dest, []byte("concat"), 0o644)
}

func (f *fakeBackend) MixAudio(_ context.Context, tracks []string, dest string) error {
	if f.mixErr != nil {
		return f.mixErr
	}
	f.mu.Lock()
	f.mixedTracks = len(tracks)
	f.mu.Unlock()
	f.record("mix %d", len(tracks))
	return os.WriteFile(dest, []byte("mix"), 0o644)
}

func (f *fakeBackend) HasAudio(context.Context, string) (bool, error) {
	return f.hasAudio, f.hasAudioErr
}

func (f *fakeBackend) Mux(_ context.Context, _, _ string, blendOriginal bool, dest string) error {
	if f.muxErr != nil {
		return f.muxErr
	}
	f.mu.Lock()
	f.muxCalled = true
	f.muxBlended = blendOriginal
	f.mu.Unlock()
	f.record("mux blend=%t", blendOriginal)
	return os.WriteFile(dest, []byte("final"), 0o644)
}

func (f *fakeBackend) Copy(_ context.Context, _, dest string) error {
	if f.copyGate != nil {
		<-f.copyGate
	}
	f.record("copy")
	return os.WriteFile(dest, []byte("copy"), 0o644)
}

func clipOf(source string, start, end, original float64) timeline.Clip {
	clip := timeline.NewClip(source, original, "")
	clip.StartTime = start
	clip.EndTime = end
	return clip
}

func trackOf(source string, start, end, original, volume float64) timeline.AudioTrack {
	track := timeline.NewAudioTrack(source, original, "")
	track.StartTime = start
	track.EndTime = end
	track.Volume = volume
	return track
}

type progressLog struct {
	mu     sync.Mutex
	values []int
}

func (p *progressLog) hook() func(int) {
	return func(v int) {
		p.mu.Lock()
		p.values = append(p.values, v)
		p.mu.Unlock()
	}
}

func (p *progressLog) snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.values...)
}

func assertMonotonicTo100(t *testing.T, values []int) {
	t.Helper()
	if len(values) == 0 {
		t.Fatal("expected progress callbacks")
	}
	prev := -1
	for _, v := range values {
		if v < prev {
			t.Fatalf("progress regressed: %v", values)
		}
		if v < 0 || v > 100 {
			t.Fatalf("progress out of range: %v", values)
		}
		prev = v
	}
	if values[len(values)-1] != 100 {
		t.Fatalf("progress must end at exactly 100, got %v", values)
	}
}

func runPipeline(t *testing.T, backend export.Backend, snap timeline.Snapshot) (*export.Pipeline, *export.Artifact, []int, error) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	variant := export.Variant{Kind: export.BackendReal, Backend: backend}
	pipeline := export.NewPipeline(cfg, variant, logging.NewNop())

	var progress progressLog
	run, err := pipeline.Export(context.Background(), snap, export.Hooks{OnProgress: progress.hook()})
	if err != nil {
		t.Fatalf("Export failed to start: %v", err)
	}
	artifact, runErr := run.Wait()
	return pipeline, artifact, progress.snapshot(), runErr
}

func TestExportNoAudioFastPath(t *testing.T) {
	backend := newFakeBackend()
	// 3 clips of trimmed lengths 30s/10s/10s and zero audio tracks.
	snap := timeline.Snapshot{Clips: []timeline.Clip{
		clipOf("/a.mp4", 0, 30, 60),
		clipOf("/b.mp4", 5, 15, 20),
		clipOf("/c.mp4", 0, 10, 10),
	}}

	pipeline, artifact, progress, err := runPipeline(t, backend, snap)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected artifact")
	}
	if pipeline.State() != export.StateSuccess {
		t.Fatalf("expected success state, got %s", pipeline.State())
	}
	assertMonotonicTo100(t, progress)

	if len(backend.concatDetails) != 3 {
		t.Fatalf("expected 3 concatenated segments, got %d", len(backend.concatDetails))
	}
	if backend.mixedTracks != 0 || backend.muxCalled {
		t.Fatal("audio mix and mux must be skipped entirely without tracks")
	}
	if artifact.ContentType != "video/mp4" {
		t.Fatalf("unexpected content type %q", artifact.ContentType)
	}
	if snap.TotalDuration() != 50 {
		t.Fatalf("sanity: trimmed total should be 50, got %v", snap.TotalDuration())
	}
}

func TestExportWithAudioMixesAndMuxes(t *testing.T) {
	backend := newFakeBackend()
	snap := timeline.Snapshot{
		Clips: []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)},
		AudioTracks: []timeline.AudioTrack{
			trackOf("/vo.wav", 0, 5, 5, 0.8),
			trackOf("/music.mp3", 0, 8, 8, 0.5),
		},
	}

	_, artifact, progress, err := runPipeline(t, backend, snap)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected artifact")
	}
	assertMonotonicTo100(t, progress)
	if backend.mixedTracks != 2 {
		t.Fatalf("expected 2 tracks mixed, got %d", backend.mixedTracks)
	}
	if !backend.muxCalled {
		t.Fatal("expected final mux")
	}
	if backend.muxBlended {
		t.Fatal("video without own audio must map directly, not blend")
	}
}

func TestExportBlendsWhenVideoCarriesAudio(t *testing.T) {
	backend := newFakeBackend()
	backend.hasAudio = true
	snap := timeline.Snapshot{
		Clips:       []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)},
		AudioTracks: []timeline.AudioTrack{trackOf("/vo.wav", 0, 5, 5, 1)},
	}

	_, _, _, err := runPipeline(t, backend, snap)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !backend.muxBlended {
		t.Fatal("original audio must be blended, not replaced")
	}
}

func TestExportSkipsUnreadableTrack(t *testing.T) {
	backend := newFakeBackend()
	backend.trimAudioErr["/broken.wav"] = errors.New("unreadable")
	snap := timeline.Snapshot{
		Clips: []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)},
		AudioTracks: []timeline.AudioTrack{
			trackOf("/broken.wav", 0, 5, 5, 1),
			trackOf("/ok.wav", 0, 8, 8, 1),
		},
	}

	_, artifact, progress, err := runPipeline(t, backend, snap)
	if err != nil {
		t.Fatalf("a single unreadable track must not abort: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected artifact")
	}
	assertMonotonicTo100(t, progress)
	if backend.mixedTracks != 1 {
		t.Fatalf("expected surviving track count 1, got %d", backend.mixedTracks)
	}
}

func TestExportAllTracksFailedFallsBackToNoAudio(t *testing.T) {
	backend := newFakeBackend()
	backend.trimAudioErr["/a.wav"] = errors.New("unreadable")
	backend.trimAudioErr["/b.wav"] = errors.New("unreadable")
	snap := timeline.Snapshot{
		Clips: []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)},
		AudioTracks: []timeline.AudioTrack{
			trackOf("/a.wav", 0, 5, 5, 1),
			trackOf("/b.wav", 0, 5, 5, 1),
		},
	}

	_, artifact, progress, err := runPipeline(t, backend, snap)
	if err != nil {
		t.Fatalf("all-failed tracks must fall back, not abort: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected artifact")
	}
	assertMonotonicTo100(t, progress)
	if backend.mixedTracks != 0 || backend.muxCalled {
		t.Fatal("fallback must skip mix and mux")
	}
}

func TestExportClipFailureIsFatal(t *testing.T) {
	backend := newFakeBackend()
	backend.trimVideoErr["/b.mp4"] = errors.New("read error")
	snap := timeline.Snapshot{Clips: []timeline.Clip{
		clipOf("/a.mp4", 0, 10, 10),
		clipOf("/b.mp4", 0, 10, 10),
	}}

	pipeline, artifact, _, err := runPipeline(t, backend, snap)
	if err == nil {
		t.Fatal("clip isolation failure must abort the export")
	}
	if artifact != nil {
		t.Fatal("no artifact may be exposed on failure")
	}
	if pipeline.State() != export.StateError {
		t.Fatalf("expected error state, got %s", pipeline.State())
	}

	// Failed exports return to Idle through explicit reset and can retry.
	if resetErr := pipeline.Reset(); resetErr != nil {
		t.Fatalf("Reset failed: %v", resetErr)
	}
	if pipeline.State() != export.StateIdle {
		t.Fatalf("expected idle after reset, got %s", pipeline.State())
	}
}

func TestExportMuxFailureRemovesPartialOutput(t *testing.T) {
	backend := newFakeBackend()
	backend.muxErr = errors.New("container error")
	cfg := testsupport.NewConfig(t)
	pipeline := export.NewPipeline(cfg, export.Variant{Kind: export.BackendReal, Backend: backend}, logging.NewNop())

	snap := timeline.Snapshot{
		Clips:       []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)},
		AudioTracks: []timeline.AudioTrack{trackOf("/vo.wav", 0, 5, 5, 1)},
	}
	run, err := pipeline.Export(context.Background(), snap, export.Hooks{})
	if err != nil {
		t.Fatalf("Export failed to start: %v", err)
	}
	if _, runErr := run.Wait(); runErr == nil {
		t.Fatal("mux failure must abort")
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err == nil && len(entries) != 0 {
		t.Fatalf("partial artifacts must not remain: %v", entries)
	}
}

func TestSecondExportRejectedWhileProcessing(t *testing.T) {
	backend := newFakeBackend()
	backend.copyGate = make(chan struct{})
	cfg := testsupport.NewConfig(t)
	pipeline := export.NewPipeline(cfg, export.Variant{Kind: export.BackendReal, Backend: backend}, logging.NewNop())
	snap := timeline.Snapshot{Clips: []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)}}

	run, err := pipeline.Export(context.Background(), snap, export.Hooks{})
	if err != nil {
		t.Fatalf("Export failed to start: %v", err)
	}

	// The first run is parked inside the finalize step, so the pipeline is
	// still Processing.
	if _, second := pipeline.Export(context.Background(), snap, export.Hooks{}); !errors.Is(second, services.ErrBusy) {
		t.Fatalf("expected busy error, got %v", second)
	}

	close(backend.copyGate)
	if _, runErr := run.Wait(); runErr != nil {
		t.Fatalf("first export failed: %v", runErr)
	}
}

func TestDiscardSuppressesResult(t *testing.T) {
	backend := newFakeBackend()
	cfg := testsupport.NewConfig(t)
	pipeline := export.NewPipeline(cfg, export.Variant{Kind: export.BackendReal, Backend: backend}, logging.NewNop())
	snap := timeline.Snapshot{Clips: []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)}}

	backend.copyGate = make(chan struct{})
	succeeded := false
	run, err := pipeline.Export(context.Background(), snap, export.Hooks{
		OnSuccess: func(export.Artifact) { succeeded = true },
	})
	if err != nil {
		t.Fatalf("Export failed to start: %v", err)
	}
	// Discard while the run is parked mid-flight, then let it finish.
	run.Discard()
	close(backend.copyGate)
	artifact, _ := run.Wait()

	if succeeded {
		t.Fatal("discarded run must not fire OnSuccess")
	}
	if artifact != nil {
		t.Fatal("discarded run must drop its artifact")
	}
	entries, readErr := os.ReadDir(cfg.OutputDir)
	if readErr == nil && len(entries) != 0 {
		t.Fatalf("discarded artifact must be deleted: %v", entries)
	}
}

func TestEmptyTimelineRejected(t *testing.T) {
	backend := newFakeBackend()
	_, _, _, err := runPipeline(t, backend, timeline.Snapshot{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIntermediatesReleasedAfterRun(t *testing.T) {
	backend := newFakeBackend()
	cfg := testsupport.NewConfig(t)
	pipeline := export.NewPipeline(cfg, export.Variant{Kind: export.BackendReal, Backend: backend}, logging.NewNop())
	snap := timeline.Snapshot{Clips: []timeline.Clip{clipOf("/a.mp4", 0, 10, 10)}}

	run, err := pipeline.Export(context.Background(), snap, export.Hooks{})
	if err != nil {
		t.Fatalf("Export failed to start: %v", err)
	}
	if _, runErr := run.Wait(); runErr != nil {
		t.Fatalf("export failed: %v", runErr)
	}

	entries, err := os.ReadDir(cfg.StagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("workspace %s must be removed after the run", entry.Name())
		}
		if !strings.HasSuffix(entry.Name(), ".lock") {
			t.Fatalf("unexpected staging leftover %s", entry.Name())
		}
	}
}

func TestSimulatedSummaryCoversOnlyCurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	variant := export.Variant{Kind: export.BackendMock, Backend: export.NewMockBackend(0)}
	pipeline := export.NewPipeline(cfg, variant, logging.NewNop())
	snap := timeline.Snapshot{Clips: []timeline.Clip{
		clipOf("/a.mp4", 0, 10, 10),
		clipOf("/b.mp4", 0, 10, 10),
	}}

	runOnce := func() string {
		t.Helper()
		run, err := pipeline.Export(context.Background(), snap, export.Hooks{})
		if err != nil {
			t.Fatalf("Export failed to start: %v", err)
		}
		artifact, runErr := run.Wait()
		if runErr != nil {
			t.Fatalf("export failed: %v", runErr)
		}
		data, err := os.ReadFile(artifact.Path)
		if err != nil {
			t.Fatalf("read artifact: %v", err)
		}
		return string(data)
	}

	first := runOnce()
	if err := pipeline.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	second := runOnce()

	for _, body := range []string{first, second} {
		if !strings.Contains(body, "clips: 2\n") {
			t.Fatalf("summary must describe one run:\n%s", body)
		}
		if !strings.Contains(body, "total video duration: 20.0s") {
			t.Fatalf("summary must describe one run:\n%s", body)
		}
	}
}
