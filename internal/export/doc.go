// Package export assembles a timeline snapshot into one output artifact
// through a staged media walk: per-clip isolation, concatenation, audio
// isolation and mixing, and a final mux. Progress is reported as
// non-decreasing integers ending at exactly 100; a missing codec engine
// degrades to a deterministic simulated run rather than failing the
// feature. Cancellation is discard-on-completion: in-flight backend work
// finishes, its result is dropped.
package export
