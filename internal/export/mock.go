package export

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// MockBackend simulates the media backend when no codec engine is present.
// Operations are deterministic: each writes a small placeholder artifact and
// the final mux or copy summarizes the edit (clip count and total trimmed
// duration) instead of producing a real transcode.
type MockBackend struct {
	opDelay time.Duration

	mu            sync.Mutex
	clipCount     int
	trackCount    int
	videoDuration float64
}

// NewMockBackend builds a simulated backend pacing each operation by
// opDelay.
func NewMockBackend(opDelay time.Duration) *MockBackend {
	return &MockBackend{opDelay: opDelay}
}

func (m *MockBackend) pace(ctx context.Context) error {
	if m.opDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.opDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *MockBackend) TrimVideo(ctx context.Context, source string, start, end float64, dest string) error {
	if err := m.pace(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.clipCount++
	m.videoDuration += end - start
	m.mu.Unlock()
	return os.WriteFile(dest, []byte(fmt.Sprintf("mock trim %s [%.3f-%.3f]\n", source, start, end)), 0o644)
}

func (m *MockBackend) TrimAudio(ctx context.Context, source string, start, end, volume float64, dest string) error {
	if err := m.pace(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.trackCount++
	m.mu.Unlock()
	return os.WriteFile(dest, []byte(fmt.Sprintf("mock audio %s [%.3f-%.3f] vol=%.2f\n", source, start, end, volume)), 0o644)
}

func (m *MockBackend) Concat(ctx context.Context, segments []string, dest string) error {
	if err := m.pace(ctx); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(fmt.Sprintf("mock concat of %d segments\n", len(segments))), 0o644)
}

func (m *MockBackend) MixAudio(ctx context.Context, tracks []string, dest string) error {
	if err := m.pace(ctx); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(fmt.Sprintf("mock mix of %d tracks\n", len(tracks))), 0o644)
}

// HasAudio always reports false for simulated artifacts, so mock runs take
// the direct mapping path.
func (m *MockBackend) HasAudio(ctx context.Context, path string) (bool, error) {
	return false, ctx.Err()
}

func (m *MockBackend) Mux(ctx context.Context, videoPath, audioPath string, blendOriginal bool, dest string) error {
	if err := m.pace(ctx); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(m.summary()), 0o644)
}

func (m *MockBackend) Copy(ctx context.Context, src, dest string) error {
	if err := m.pace(ctx); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(m.summary()), 0o644)
}

// summary renders the placeholder artifact body and resets the tallies, so
// each artifact describes exactly the run that produced it even when the
// backend is reused across retries.
func (m *MockBackend) summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	b.WriteString("CUTROOM SIMULATED EXPORT\n")
	fmt.Fprintf(&b, "clips: %d\n", m.clipCount)
	fmt.Fprintf(&b, "audio tracks: %d\n", m.trackCount)
	fmt.Fprintf(&b, "total video duration: %.1fs\n", m.videoDuration)
	m.clipCount = 0
	m.trackCount = 0
	m.videoDuration = 0
	return b.String()
}

var _ Backend = (*MockBackend)(nil)
