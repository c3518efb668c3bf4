// Package timeline holds the non-destructive clip and audio-track model
// behind the editor. The model is single-writer: all mutations come from the
// host's event loop, invalid input is clamped or ignored, and subscribers are
// notified synchronously after every change. Splits are armed through a
// two-phase cut selection so one stray click cannot irreversibly divide
// media.
package timeline
