package report

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"clip-curator/domain/clip"
	"clip-curator/infrastructure/logging"
)

// Service finalizes a collection run: the CSV dataset index, the markdown
// summary report, and the optional zip archive of the dataset directory.
type Service struct {
	logger zerolog.Logger
}

// NewService creates a new report service
func NewService() *Service {
	return &Service{logger: logging.WithComponent("report")}
}

// WriteIndex writes the dataset index as CSV, one row per accepted clip.
func (s *Service) WriteIndex(records []clip.ClipRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"clip_id", "tag", "duration", "source", "keyword", "source_url", "fingerprint"}); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ClipID,
			r.Tag,
			strconv.FormatFloat(r.Duration, 'f', 2, 64),
			r.Source,
			r.Keyword,
			r.OriginalURL,
			r.Fingerprint,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write index row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush index: %w", err)
	}

	s.logger.Info().Str("path", path).Int("clips", len(records)).Msg("dataset index written")
	return nil
}

// WriteReport renders the markdown collection report.
func (s *Service) WriteReport(records []clip.ClipRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := RenderReport(f, records); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("collection report written")
	return nil
}

// Archive zips the dataset directory into <archiveName>.zip next to it.
// Paths inside the archive are relative to the dataset root.
func (s *Service) Archive(datasetDir, archiveName string) (string, error) {
	archivePath := archiveName + ".zip"

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	var files []string
	err = filepath.WalkDir(datasetDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		zw.Close()
		return "", fmt.Errorf("walk dataset: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		rel, err := filepath.Rel(datasetDir, path)
		if err != nil {
			zw.Close()
			return "", err
		}
		if err := addToZip(zw, path, filepath.ToSlash(rel)); err != nil {
			zw.Close()
			return "", fmt.Errorf("archive %s: %w", rel, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	s.logger.Info().Str("path", archivePath).Int("files", len(files)).Msg("dataset archived")
	return archivePath, nil
}

func addToZip(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
