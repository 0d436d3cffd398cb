package scraper

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"clip-curator/domain/acquisition"
	"clip-curator/domain/clip"
	"clip-curator/infrastructure/logging"
)

// LocalDirScraper implements acquisition.Scraper over a directory of
// already-saved video files. Files must follow the raw filename convention;
// only those whose keyword segment matches the requested keyword are
// returned. Useful for offline runs and for feeding the pipeline from a
// pre-existing collection.
type LocalDirScraper struct {
	sourceDir string
	logger    zerolog.Logger
}

// NewLocalDirScraper creates a scraper reading from sourceDir
func NewLocalDirScraper(sourceDir string) *LocalDirScraper {
	return &LocalDirScraper{
		sourceDir: sourceDir,
		logger:    logging.WithComponent("scraper").With().Str("source", "local").Logger(),
	}
}

// Name implements acquisition.Scraper
func (s *LocalDirScraper) Name() string {
	return "local"
}

// SearchAndDownload implements acquisition.Scraper. Matching files are
// linked (or copied by rename) into downloadDir under their own names when
// they are not already there.
func (s *LocalDirScraper) SearchAndDownload(ctx context.Context, keyword string, downloadDir string) ([]clip.CandidateVideo, error) {
	entries, err := os.ReadDir(s.sourceDir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var found []clip.CandidateVideo
	for _, name := range names {
		candidate, err := clip.ParseRawFilename(name)
		if err != nil {
			continue
		}
		if !strings.EqualFold(candidate.Keyword, keyword) {
			continue
		}

		src := filepath.Join(s.sourceDir, name)
		dst := filepath.Join(downloadDir, name)
		if src != dst {
			if err := copyIntoPlace(src, dst); err != nil {
				s.logger.Error().Err(err).Str("file", name).Msg("could not stage local video")
				continue
			}
		}

		// Keep the source parsed from the filename so the processed-video
		// key stays stable when the staged file is replayed later.
		candidate.Filepath = dst
		found = append(found, candidate)
	}

	s.logger.Info().Str("keyword", keyword).Int("found", len(found)).Msg("staged local videos")
	return found, nil
}

func copyIntoPlace(src, dst string) error {
	if fileExists(dst) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Ensure LocalDirScraper implements acquisition.Scraper
var _ acquisition.Scraper = (*LocalDirScraper)(nil)
