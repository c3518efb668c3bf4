package ffprobe

import (
	"encoding/json"
	"testing"
)

func TestHasAudio(t *testing.T) {
	payload := `{
		"streams": [
			{"index": 0, "codec_type": "video", "codec_name": "h264"},
			{"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2}
		],
		"format": {"filename": "clip.mp4", "nb_streams": 2, "duration": "42.5"}
	}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected one video stream, got %d", result.VideoStreamCount())
	}
	if result.DurationSeconds() != 42.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestNoAudio(t *testing.T) {
	payload := `{
		"streams": [{"index": 0, "codec_type": "video", "codec_name": "h264"}],
		"format": {"filename": "silent.mp4", "nb_streams": 1, "duration": ""}
	}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.HasAudio() {
		t.Fatal("expected no audio stream")
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected 0 duration, got %v", result.DurationSeconds())
	}
}
