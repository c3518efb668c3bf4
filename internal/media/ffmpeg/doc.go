// Package ffmpeg implements the export pipeline's media backend on top of
// the ffmpeg and ffprobe binaries. Trims and concatenation prefer stream
// copy; mixing uses amix with longest-duration semantics.
package ffmpeg
