package clip

import (
	"context"
	"errors"
)

// ErrSourceTooShort indicates the source video is too short to yield any
// usable clip (under one second of footage).
var ErrSourceTooShort = errors.New("source video shorter than one second")

// DurationProber reports a video file's playable duration in seconds.
// Implementations fail soft: probing errors yield 0.0, never an error the
// caller must branch on — a zero duration always reads as "too short".
type DurationProber interface {
	Duration(ctx context.Context, path string) float64
}

// Extractor cuts a bounded-length sub-clip from a source video.
//
// When the source is at least targetDuration seconds long the clip starts at
// a randomized offset and lasts exactly targetDuration. When the source is
// shorter, the whole file becomes the clip (relocated, not copied) and the
// reported duration is the source's true duration. Sources under one second
// fail with ErrSourceTooShort.
type Extractor interface {
	Extract(ctx context.Context, inputPath, outputPath string, targetDuration float64) (string, float64, error)
}

// Fingerprinter derives the content-based dedup key for a clip file.
// An error or empty fingerprint means the content could not be assessed;
// the dedup index treats such clips as duplicates.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (string, error)
}
