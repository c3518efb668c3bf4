// Package playback maps global virtual-timeline time onto (clip, local
// source time) pairs. A Mapper is derived from one snapshot and must be
// rebuilt after every timeline mutation; it is never cached across changes.
package playback

import (
	"cutroom/internal/timeline"
)

// Position is the result of locating a global time on the timeline.
type Position struct {
	Clip      timeline.Clip
	ClipIndex int
	// LocalTime is the source-relative time inside the active clip.
	LocalTime float64
	// AtClipEnd reports that the local time reached the clip's trim end.
	// The trim end is a hard playback ceiling regardless of the source
	// media's own duration: the host must advance to the next clip or halt.
	AtClipEnd bool
	// EndOfTimeline reports the end-of-timeline clamp: the requested time
	// was at or past the total duration.
	EndOfTimeline bool
}

// Mapper translates global timeline time using the trimmed durations of an
// ordered clip list.
type Mapper struct {
	clips  []timeline.Clip
	starts []float64
	total  float64
}

// NewMapper builds a mapper from a snapshot.
func NewMapper(snap timeline.Snapshot) *Mapper {
	m := &Mapper{
		clips:  snap.Clips,
		starts: make([]float64, len(snap.Clips)),
	}
	var cursor float64
	for i, clip := range snap.Clips {
		m.starts[i] = cursor
		cursor += clip.TrimmedDuration()
	}
	m.total = cursor
	return m
}

// TotalDuration returns the concatenated trimmed duration.
func (m *Mapper) TotalDuration() float64 {
	return m.total
}

// Locate resolves a global time to the active clip and its local source
// time. Times past the total duration clamp to the last clip's end rather
// than failing. The boolean result is false only for an empty timeline.
func (m *Mapper) Locate(globalTime float64) (Position, bool) {
	if len(m.clips) == 0 {
		return Position{}, false
	}
	if globalTime < 0 {
		globalTime = 0
	}

	if globalTime >= m.total {
		last := len(m.clips) - 1
		clip := m.clips[last]
		return Position{
			Clip:          clip,
			ClipIndex:     last,
			LocalTime:     clip.EndTime,
			AtClipEnd:     true,
			EndOfTimeline: true,
		}, true
	}

	index := len(m.clips) - 1
	for i, start := range m.starts {
		if globalTime < start+m.clips[i].TrimmedDuration() {
			index = i
			break
		}
	}

	clip := m.clips[index]
	local := globalTime - m.starts[index] + clip.StartTime
	if local > clip.EndTime {
		local = clip.EndTime
	}
	return Position{
		Clip:      clip,
		ClipIndex: index,
		LocalTime: local,
		AtClipEnd: local >= clip.EndTime,
	}, true
}

// ClipStart returns the global time at which the clip at index begins.
func (m *Mapper) ClipStart(index int) (float64, bool) {
	if index < 0 || index >= len(m.starts) {
		return 0, false
	}
	return m.starts[index], true
}
