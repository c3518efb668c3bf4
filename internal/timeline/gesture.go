package timeline

import (
	"cutroom/internal/services"
)

// TrimEdge selects which handle of a segment a trim gesture drags.
type TrimEdge string

const (
	TrimStart TrimEdge = "start"
	TrimEnd   TrimEdge = "end"
)

// TrimGesture is an exclusive drag session over one segment's trim handle.
// Every Move applies a live, clamped trim; there is no deferred commit.
type TrimGesture struct {
	model       *Model
	kind        CutKind
	id          string
	edge        TrimEdge
	zoom        float64
	anchorStart float64
	anchorEnd   float64
	done        bool
}

// BeginTrimGesture starts a trim drag for the segment. zoom is the host's
// pixels-per-second scale used to translate pixel deltas into seconds. Only
// one gesture session may be active at a time.
func (m *Model) BeginTrimGesture(kind CutKind, id string, edge TrimEdge, zoom float64) (*TrimGesture, error) {
	if m.gestureActive {
		return nil, services.Wrap(services.ErrBusy, "timeline", "trim gesture", "another gesture session is active", nil)
	}
	start, end, ok := m.targetBounds(id, kind)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "timeline", "trim gesture", "unknown segment "+id, nil)
	}
	if zoom <= 0 {
		zoom = 1
	}
	m.gestureActive = true
	return &TrimGesture{
		model:       m,
		kind:        kind,
		id:          id,
		edge:        edge,
		zoom:        zoom,
		anchorStart: start,
		anchorEnd:   end,
	}, nil
}

// Move applies the accumulated pixel delta from the gesture origin. The
// resulting trim is clamped by the model on every update.
func (g *TrimGesture) Move(pixelDelta float64) {
	if g.done {
		return
	}
	seconds := pixelDelta / g.zoom
	start, end := g.anchorStart, g.anchorEnd
	if g.edge == TrimStart {
		start += seconds
	} else {
		end += seconds
	}
	if g.kind == KindAudio {
		g.model.UpdateAudioTrim(g.id, start, end)
	} else {
		g.model.UpdateClipTrim(g.id, start, end)
	}
}

// End releases the session. Further Move calls are ignored.
func (g *TrimGesture) End() {
	if g.done {
		return
	}
	g.done = true
	g.model.gestureActive = false
}

// ReorderGesture is an exclusive drag session that moves one clip through the
// playback order, applying each intermediate position live.
type ReorderGesture struct {
	model   *Model
	current int
	done    bool
}

// BeginReorderGesture starts a reorder drag for the clip at index.
func (m *Model) BeginReorderGesture(index int) (*ReorderGesture, error) {
	if m.gestureActive {
		return nil, services.Wrap(services.ErrBusy, "timeline", "reorder gesture", "another gesture session is active", nil)
	}
	if index < 0 || index >= len(m.clips) {
		return nil, services.Wrap(services.ErrValidation, "timeline", "reorder gesture", "index out of range", nil)
	}
	m.gestureActive = true
	return &ReorderGesture{model: m, current: index}, nil
}

// Move drags the clip to the given index, clamped to the list bounds.
func (g *ReorderGesture) Move(toIndex int) {
	if g.done {
		return
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if last := len(g.model.clips) - 1; toIndex > last {
		toIndex = last
	}
	if toIndex == g.current {
		return
	}
	g.model.ReorderClips(g.current, toIndex)
	g.current = toIndex
}

// End releases the session.
func (g *ReorderGesture) End() {
	if g.done {
		return
	}
	g.done = true
	g.model.gestureActive = false
}
