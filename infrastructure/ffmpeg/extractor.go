package ffmpeg

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog"

	"clip-curator/domain/clip"
	"clip-curator/infrastructure/logging"
)

// Extractor implements clip.Extractor using ffmpeg stream-copy cuts
type Extractor struct {
	ffmpegPath string
	runner     CommandRunner
	prober     clip.DurationProber
	rng        *rand.Rand
	logger     zerolog.Logger
}

// ExtractorOption is a functional option for configuring Extractor
type ExtractorOption func(*Extractor)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) ExtractorOption {
	return func(e *Extractor) {
		e.ffmpegPath = path
	}
}

// WithExtractorCommandRunner sets a custom command runner (for testing)
func WithExtractorCommandRunner(runner CommandRunner) ExtractorOption {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// WithRand sets the random source used for start offsets (for testing)
func WithRand(rng *rand.Rand) ExtractorOption {
	return func(e *Extractor) {
		e.rng = rng
	}
}

// NewExtractor creates a new FFmpeg-based clip extractor. The prober is
// used to size the source before choosing a cut window.
func NewExtractor(prober clip.DurationProber, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
		prober:     prober,
		logger:     logging.WithComponent("extractor"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract implements clip.Extractor.
//
// Sources at least targetDuration seconds long are cut with a stream copy
// starting at a uniformly random offset. Shorter sources become the clip
// wholesale: the input file is renamed into place and the true duration is
// reported, never padded. Sources under one second fail.
func (e *Extractor) Extract(ctx context.Context, inputPath, outputPath string, targetDuration float64) (string, float64, error) {
	total := e.prober.Duration(ctx, inputPath)

	if total < targetDuration {
		if total < 1 {
			return "", 0, clip.ErrSourceTooShort
		}
		if err := os.Rename(inputPath, outputPath); err != nil {
			return "", 0, fmt.Errorf("relocate short source: %w", err)
		}
		e.logger.Debug().Str("output", outputPath).Float64("duration", total).Msg("kept whole source as clip")
		return outputPath, total, nil
	}

	start := e.randFloat() * (total - targetDuration)

	args := []string{
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", targetDuration),
		"-i", inputPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	if err := e.runner.Run(ctx, e.ffmpegPath, args...); err != nil {
		return "", 0, fmt.Errorf("ffmpeg clip extraction failed: %w", err)
	}

	e.logger.Debug().
		Str("output", outputPath).
		Float64("start", start).
		Float64("duration", targetDuration).
		Msg("extracted clip")

	return outputPath, targetDuration, nil
}

func (e *Extractor) randFloat() float64 {
	if e.rng != nil {
		return e.rng.Float64()
	}
	return rand.Float64()
}

// VerifyInstalled checks that ffmpeg is available
func (e *Extractor) VerifyInstalled(ctx context.Context) error {
	_, err := e.runner.Output(ctx, e.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Extractor implements clip.Extractor
var _ clip.Extractor = (*Extractor)(nil)
