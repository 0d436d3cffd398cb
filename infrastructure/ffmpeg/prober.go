package ffmpeg

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"

	"clip-curator/domain/clip"
	"clip-curator/infrastructure/logging"
)

// Prober implements clip.DurationProber using ffprobe
type Prober struct {
	ffprobePath string
	runner      CommandRunner
	logger      zerolog.Logger
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		p.ffprobePath = path
	}
}

// WithProberCommandRunner sets a custom command runner (for testing)
func WithProberCommandRunner(runner CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based duration prober
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
		logger:      logging.WithComponent("prober"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// probeResult matches the ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Duration implements clip.DurationProber. It reports the declared duration
// of the first video stream in seconds. Any probing failure yields 0.0 with
// a warning; callers treat that as "too short".
func (p *Prober) Duration(ctx context.Context, path string) float64 {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	output, err := p.runner.Output(ctx, p.ffprobePath, args...)
	if err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("ffprobe failed")
		return 0
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("unparseable ffprobe output")
		return 0
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil && d > 0 {
			return d
		}
		// Some containers only declare duration at format level.
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && d > 0 {
			return d
		}
		p.logger.Warn().Str("path", path).Msg("video stream without usable duration")
		return 0
	}

	p.logger.Warn().Str("path", path).Msg("no video stream found")
	return 0
}

// VerifyInstalled checks that ffprobe is available
func (p *Prober) VerifyInstalled(ctx context.Context) error {
	_, err := p.runner.Output(ctx, p.ffprobePath, "-version")
	return err
}

// Ensure Prober implements clip.DurationProber
var _ clip.DurationProber = (*Prober)(nil)
