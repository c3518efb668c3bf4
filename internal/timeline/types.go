package timeline

import (
	"github.com/google/uuid"
)

// MinSegmentSeconds is the shortest playable segment after a trim.
const MinSegmentSeconds = 0.1

// CutMarginSeconds is the minimum distance a cut point must keep from both
// segment edges.
const CutMarginSeconds = 0.5

// Clip is a trimmed reference into a video source. StartTime and EndTime are
// play-range bounds within the source; the underlying media is never touched.
type Clip struct {
	ID               string
	SourceRef        string
	StartTime        float64
	EndTime          float64
	OriginalDuration float64
	Title            string
}

// TrimmedDuration returns the playable length of the clip.
func (c Clip) TrimmedDuration() float64 {
	return c.EndTime - c.StartTime
}

// AudioTrack is a trimmed, volume-scaled reference into an audio source,
// independent of the video clips.
type AudioTrack struct {
	ID               string
	SourceRef        string
	StartTime        float64
	EndTime          float64
	OriginalDuration float64
	Volume           float64
	Title            string
}

// TrimmedDuration returns the playable length of the track.
func (t AudioTrack) TrimmedDuration() float64 {
	return t.EndTime - t.StartTime
}

// CutKind selects which list a pending cut targets.
type CutKind string

const (
	KindClip  CutKind = "clip"
	KindAudio CutKind = "audio"
)

// PendingCut is an armed, not yet committed split. At most one exists at a
// time; it is cleared whenever its target disappears or its bounds stop
// satisfying the cut margin.
type PendingCut struct {
	TargetID string
	Kind     CutKind
	Time     float64
}

// Snapshot is an immutable deep copy of the timeline state, safe to hand to
// the export pipeline or the playback mapper while the model keeps mutating.
type Snapshot struct {
	Clips       []Clip
	AudioTracks []AudioTrack
	PendingCut  *PendingCut
}

// TotalDuration returns the concatenated trimmed duration of all clips.
func (s Snapshot) TotalDuration() float64 {
	var total float64
	for _, clip := range s.Clips {
		total += clip.TrimmedDuration()
	}
	return total
}

// NewClip creates a clip spanning the full source duration.
func NewClip(sourceRef string, originalDuration float64, title string) Clip {
	if originalDuration < 0 {
		originalDuration = 0
	}
	if title == "" {
		title = TitleFromSource(sourceRef)
	}
	return Clip{
		ID:               uuid.NewString(),
		SourceRef:        sourceRef,
		StartTime:        0,
		EndTime:          originalDuration,
		OriginalDuration: originalDuration,
		Title:            title,
	}
}

// NewAudioTrack creates a track spanning the full source duration at unity
// volume.
func NewAudioTrack(sourceRef string, originalDuration float64, title string) AudioTrack {
	if originalDuration < 0 {
		originalDuration = 0
	}
	if title == "" {
		title = TitleFromSource(sourceRef)
	}
	return AudioTrack{
		ID:               uuid.NewString(),
		SourceRef:        sourceRef,
		StartTime:        0,
		EndTime:          originalDuration,
		OriginalDuration: originalDuration,
		Volume:           1,
		Title:            title,
	}
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
