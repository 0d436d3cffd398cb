package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"clip-curator/domain/acquisition"
	"clip-curator/domain/clip"
	"clip-curator/infrastructure/config"
	"clip-curator/infrastructure/logging"
)

// CommandRunner defines the interface for running external commands
// This allows mocking yt-dlp invocations in tests
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Run executes a command and returns any error
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// YTDLPScraper implements acquisition.Scraper by shelling out to yt-dlp.
// Search and download run as two phases: a metadata-only probe of the
// search results, duration filtering, then per-video downloads.
type YTDLPScraper struct {
	ytdlpPath string
	cfg       config.ScraperConfig
	runner    CommandRunner
	logger    zerolog.Logger
}

// YTDLPOption is a functional option for configuring YTDLPScraper
type YTDLPOption func(*YTDLPScraper)

// WithYTDLPPath sets a custom yt-dlp executable path
func WithYTDLPPath(path string) YTDLPOption {
	return func(s *YTDLPScraper) {
		s.ytdlpPath = path
	}
}

// WithYTDLPCommandRunner sets a custom command runner (for testing)
func WithYTDLPCommandRunner(runner CommandRunner) YTDLPOption {
	return func(s *YTDLPScraper) {
		s.runner = runner
	}
}

// NewYTDLPScraper creates a yt-dlp backed YouTube scraper
func NewYTDLPScraper(cfg config.ScraperConfig, opts ...YTDLPOption) *YTDLPScraper {
	s := &YTDLPScraper{
		ytdlpPath: "yt-dlp",
		cfg:       cfg,
		runner:    &ExecCommandRunner{},
		logger:    logging.WithComponent("scraper").With().Str("source", "youtube").Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name implements acquisition.Scraper
func (s *YTDLPScraper) Name() string {
	return "youtube"
}

// searchResult matches the yt-dlp -J playlist output structure
type searchResult struct {
	Entries []searchEntry `json:"entries"`
}

type searchEntry struct {
	ID         string  `json:"id"`
	WebpageURL string  `json:"webpage_url"`
	Duration   float64 `json:"duration"`
}

// SearchAndDownload implements acquisition.Scraper
func (s *YTDLPScraper) SearchAndDownload(ctx context.Context, keyword string, downloadDir string) ([]clip.CandidateVideo, error) {
	s.logger.Info().Str("keyword", keyword).Msg("fetching search metadata")

	query := fmt.Sprintf("%s:%s", s.cfg.SearchPrefix, keyword)
	output, err := s.runner.Output(ctx, s.ytdlpPath,
		"-J",
		"--ignore-errors",
		"--socket-timeout", "30",
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search for %q failed: %w", keyword, err)
	}

	var result searchResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse yt-dlp search output for %q: %w", keyword, err)
	}

	var suitable []searchEntry
	for _, entry := range result.Entries {
		if entry.ID == "" || entry.WebpageURL == "" {
			continue
		}
		if entry.Duration > 0 && entry.Duration <= float64(s.cfg.MaxVideoDuration) {
			suitable = append(suitable, entry)
		}
	}
	if len(suitable) > s.cfg.DownloadLimitPerKeyword {
		suitable = suitable[:s.cfg.DownloadLimitPerKeyword]
	}

	s.logger.Info().
		Str("keyword", keyword).
		Int("suitable", len(suitable)).
		Int("max_duration", s.cfg.MaxVideoDuration).
		Msg("downloading suitable videos")

	var downloaded []clip.CandidateVideo
	for _, entry := range suitable {
		candidate := clip.CandidateVideo{
			ID:          entry.ID,
			Keyword:     keyword,
			Source:      s.Name(),
			OriginalURL: entry.WebpageURL,
		}
		candidate.Filepath = filepath.Join(downloadDir, candidate.RawFilename(".mp4"))

		// A leftover file from a prior run counts as downloaded.
		if fileExists(candidate.Filepath) {
			s.logger.Debug().Str("id", entry.ID).Msg("already downloaded, skipping")
			downloaded = append(downloaded, candidate)
			continue
		}

		err := s.runner.Run(ctx, s.ytdlpPath,
			"-f", "bestvideo[ext=mp4][height<=720]+bestaudio[ext=m4a]/best[ext=mp4]/best",
			"-o", candidate.Filepath,
			"--no-warnings",
			"--quiet",
			entry.WebpageURL,
		)
		if err != nil {
			s.logger.Error().Err(err).Str("url", entry.WebpageURL).Msg("download failed")
			continue
		}
		if !fileExists(candidate.Filepath) {
			s.logger.Warn().Str("id", entry.ID).Msg("download produced no file")
			continue
		}

		downloaded = append(downloaded, candidate)
	}

	return downloaded, nil
}

// VerifyInstalled checks that yt-dlp is available
func (s *YTDLPScraper) VerifyInstalled(ctx context.Context) error {
	if _, err := s.runner.Output(ctx, s.ytdlpPath, "--version"); err != nil {
		return fmt.Errorf("yt-dlp not found or not executable: %w", err)
	}
	return nil
}

// Ensure YTDLPScraper implements acquisition.Scraper
var _ acquisition.Scraper = (*YTDLPScraper)(nil)
