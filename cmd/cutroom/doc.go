// Command cutroom is the CLI front end for the timeline editor engine:
// project management, timeline inspection, waveform previews, and the
// export pipeline.
package main
