package timeline

import (
	"log/slog"

	"github.com/google/uuid"

	"cutroom/internal/logging"
)

// Model is the authoritative timeline state. It is a single-writer structure:
// all mutations must come from one goroutine (the host's event loop). Invalid
// input is clamped or ignored rather than rejected; a mutation never fails.
type Model struct {
	clips       []Clip
	audioTracks []AudioTrack
	pendingCut  *PendingCut

	gestureActive bool

	subscribers []subscriber
	nextSubID   int

	logger *slog.Logger
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewModel creates an empty timeline.
func NewModel(logger *slog.Logger) *Model {
	return &Model{logger: logging.WithComponent(logger, "timeline")}
}

// Subscribe registers a change listener invoked synchronously, in
// registration order, after every mutation. The returned function removes
// the listener.
func (m *Model) Subscribe(fn func(Snapshot)) func() {
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns an immutable deep copy of the current state.
func (m *Model) Snapshot() Snapshot {
	snap := Snapshot{
		Clips:       append([]Clip(nil), m.clips...),
		AudioTracks: append([]AudioTrack(nil), m.audioTracks...),
	}
	if m.pendingCut != nil {
		cut := *m.pendingCut
		snap.PendingCut = &cut
	}
	return snap
}

// Initialize replaces the timeline state wholesale. Used once at session
// start; any pending cut is discarded.
func (m *Model) Initialize(clips []Clip, audioTracks []AudioTrack) {
	m.clips = append([]Clip(nil), clips...)
	m.audioTracks = append([]AudioTrack(nil), audioTracks...)
	m.pendingCut = nil
	m.notify()
}

// AddClip appends a clip to the playback order.
func (m *Model) AddClip(clip Clip) {
	m.clips = append(m.clips, clip)
	m.notify()
}

// RemoveClip deletes the clip by ID. Unknown IDs are a no-op.
func (m *Model) RemoveClip(id string) {
	index := m.clipIndex(id)
	if index < 0 {
		return
	}
	m.clips = append(m.clips[:index], m.clips[index+1:]...)
	m.revalidatePendingCut()
	m.notify()
}

// ReorderClips moves the clip at oldIndex to newIndex with array-move
// semantics. Out-of-range indices are a no-op.
func (m *Model) ReorderClips(oldIndex, newIndex int) {
	if oldIndex < 0 || oldIndex >= len(m.clips) || newIndex < 0 || newIndex >= len(m.clips) || oldIndex == newIndex {
		return
	}
	clip := m.clips[oldIndex]
	m.clips = append(m.clips[:oldIndex], m.clips[oldIndex+1:]...)
	m.clips = append(m.clips[:newIndex], append([]Clip{clip}, m.clips[newIndex:]...)...)
	m.notify()
}

// UpdateClipTrim applies a trim with permissive clamping: start is clamped to
// [0, originalDuration], end to [start+0.1, originalDuration].
func (m *Model) UpdateClipTrim(id string, start, end float64) {
	index := m.clipIndex(id)
	if index < 0 {
		return
	}
	clip := &m.clips[index]
	clip.StartTime, clip.EndTime = clampTrim(start, end, clip.OriginalDuration)
	m.revalidatePendingCut()
	m.notify()
}

// RestoreClipOriginalDuration resets the clip to its full source range.
func (m *Model) RestoreClipOriginalDuration(id string) {
	index := m.clipIndex(id)
	if index < 0 {
		return
	}
	m.clips[index].StartTime = 0
	m.clips[index].EndTime = m.clips[index].OriginalDuration
	m.revalidatePendingCut()
	m.notify()
}

// CutClip splits the clip at atTime when the cut point keeps the 0.5 s margin
// from both edges; otherwise the call is a no-op. The original is replaced at
// its index by two contiguous clips sharing its source. Reports whether the
// cut was applied.
func (m *Model) CutClip(id string, atTime float64) bool {
	index := m.clipIndex(id)
	if index < 0 {
		return false
	}
	clip := m.clips[index]
	if !cutAllowed(clip.StartTime, clip.EndTime, atTime) {
		m.logger.Debug("cut rejected", logging.String("clip", id), logging.Float64("at", atTime))
		return false
	}

	left := clip
	left.ID = uuid.NewString()
	left.EndTime = atTime
	right := clip
	right.ID = uuid.NewString()
	right.StartTime = atTime

	m.clips = append(m.clips[:index], append([]Clip{left, right}, m.clips[index+1:]...)...)
	m.revalidatePendingCut()
	m.notify()
	return true
}

// AddAudioTrack appends a track to the audio list.
func (m *Model) AddAudioTrack(track AudioTrack) {
	m.audioTracks = append(m.audioTracks, track)
	m.notify()
}

// RemoveAudioTrack deletes the track by ID. Unknown IDs are a no-op.
func (m *Model) RemoveAudioTrack(id string) {
	index := m.audioIndex(id)
	if index < 0 {
		return
	}
	m.audioTracks = append(m.audioTracks[:index], m.audioTracks[index+1:]...)
	m.revalidatePendingCut()
	m.notify()
}

// DuplicateAudioTrack deep-copies the track, assigns a fresh ID, and inserts
// the copy directly after the original.
func (m *Model) DuplicateAudioTrack(id string) {
	index := m.audioIndex(id)
	if index < 0 {
		return
	}
	copied := m.audioTracks[index]
	copied.ID = uuid.NewString()
	m.audioTracks = append(m.audioTracks[:index+1], append([]AudioTrack{copied}, m.audioTracks[index+1:]...)...)
	m.notify()
}

// UpdateAudioTrim mirrors UpdateClipTrim for the audio list.
func (m *Model) UpdateAudioTrim(id string, start, end float64) {
	index := m.audioIndex(id)
	if index < 0 {
		return
	}
	track := &m.audioTracks[index]
	track.StartTime, track.EndTime = clampTrim(start, end, track.OriginalDuration)
	m.revalidatePendingCut()
	m.notify()
}

// RestoreAudioOriginalDuration resets the track to its full source range.
func (m *Model) RestoreAudioOriginalDuration(id string) {
	index := m.audioIndex(id)
	if index < 0 {
		return
	}
	m.audioTracks[index].StartTime = 0
	m.audioTracks[index].EndTime = m.audioTracks[index].OriginalDuration
	m.revalidatePendingCut()
	m.notify()
}

// SetAudioVolume updates the track volume, clamped to [0, 1].
func (m *Model) SetAudioVolume(id string, volume float64) {
	index := m.audioIndex(id)
	if index < 0 {
		return
	}
	m.audioTracks[index].Volume = clamp(volume, 0, 1)
	m.notify()
}

// CutAudio mirrors CutClip for the audio list. Both halves keep the original
// volume.
func (m *Model) CutAudio(id string, atTime float64) bool {
	index := m.audioIndex(id)
	if index < 0 {
		return false
	}
	track := m.audioTracks[index]
	if !cutAllowed(track.StartTime, track.EndTime, atTime) {
		m.logger.Debug("cut rejected", logging.String("track", id), logging.Float64("at", atTime))
		return false
	}

	left := track
	left.ID = uuid.NewString()
	left.EndTime = atTime
	right := track
	right.ID = uuid.NewString()
	right.StartTime = atTime

	m.audioTracks = append(m.audioTracks[:index], append([]AudioTrack{left, right}, m.audioTracks[index+1:]...)...)
	m.revalidatePendingCut()
	m.notify()
	return true
}

// SetCutSelection arms a cut, overwriting any prior selection. Selections
// outside the margin band are ignored so a stray click cannot arm an
// unexecutable cut.
func (m *Model) SetCutSelection(targetID string, atTime float64, kind CutKind) {
	start, end, ok := m.targetBounds(targetID, kind)
	if !ok || !cutAllowed(start, end, atTime) {
		return
	}
	m.pendingCut = &PendingCut{TargetID: targetID, Kind: kind, Time: atTime}
	m.notify()
}

// ExecuteCutSelection commits the armed cut and clears the selection.
// Reports whether a cut was applied.
func (m *Model) ExecuteCutSelection() bool {
	cut := m.pendingCut
	if cut == nil {
		return false
	}
	m.pendingCut = nil
	switch cut.Kind {
	case KindAudio:
		return m.CutAudio(cut.TargetID, cut.Time)
	default:
		return m.CutClip(cut.TargetID, cut.Time)
	}
}

// ClearCutSelection discards the armed cut without mutating any segment.
func (m *Model) ClearCutSelection() {
	if m.pendingCut == nil {
		return
	}
	m.pendingCut = nil
	m.notify()
}

// PendingCut returns a copy of the armed cut, if any.
func (m *Model) PendingCut() *PendingCut {
	if m.pendingCut == nil {
		return nil
	}
	cut := *m.pendingCut
	return &cut
}

// Clips returns a copy of the ordered clip list.
func (m *Model) Clips() []Clip {
	return append([]Clip(nil), m.clips...)
}

// AudioTracks returns a copy of the ordered audio list.
func (m *Model) AudioTracks() []AudioTrack {
	return append([]AudioTrack(nil), m.audioTracks...)
}

func (m *Model) clipIndex(id string) int {
	for i, clip := range m.clips {
		if clip.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) audioIndex(id string) int {
	for i, track := range m.audioTracks {
		if track.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) targetBounds(id string, kind CutKind) (start, end float64, ok bool) {
	switch kind {
	case KindAudio:
		if index := m.audioIndex(id); index >= 0 {
			return m.audioTracks[index].StartTime, m.audioTracks[index].EndTime, true
		}
	default:
		if index := m.clipIndex(id); index >= 0 {
			return m.clips[index].StartTime, m.clips[index].EndTime, true
		}
	}
	return 0, 0, false
}

// revalidatePendingCut clears the armed cut when its target vanished or its
// current bounds no longer keep the margin around the cut point.
func (m *Model) revalidatePendingCut() {
	cut := m.pendingCut
	if cut == nil {
		return
	}
	start, end, ok := m.targetBounds(cut.TargetID, cut.Kind)
	if !ok || !cutAllowed(start, end, cut.Time) {
		m.pendingCut = nil
	}
}

func (m *Model) notify() {
	if len(m.subscribers) == 0 {
		return
	}
	snap := m.Snapshot()
	for _, sub := range m.subscribers {
		sub.fn(snap)
	}
}

func clampTrim(start, end, originalDuration float64) (float64, float64) {
	start = clamp(start, 0, originalDuration)
	minEnd := start + MinSegmentSeconds
	if end < minEnd {
		end = minEnd
	}
	// The minimum segment length wins over the source bound for sources
	// shorter than 0.1 s.
	end = clamp(end, minEnd, originalDuration)
	if end < minEnd {
		end = minEnd
	}
	return start, end
}

func cutAllowed(start, end, atTime float64) bool {
	return atTime >= start+CutMarginSeconds && atTime <= end-CutMarginSeconds
}
