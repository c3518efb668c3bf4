// Package ffprobe wraps the ffprobe binary for container inspection. The
// export pipeline uses it to measure durations and to decide whether a
// concatenated artifact carries its own audio.
package ffprobe
