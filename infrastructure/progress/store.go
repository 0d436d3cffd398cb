package progress

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clip-curator/domain/curation"
)

// File names inside the progress directory. All are line-oriented text,
// read fully into memory at startup.
const (
	hashesFile       = "hashes.txt"
	clipCounterFile  = "clip_counter.txt"
	videoCounterFile = "video_counter.txt"
	scrapedFile      = "scraped_keywords.txt"
	videosFile       = "processed_videos.txt"
)

// Store is the durable, restart-surviving progress record. Counters are
// overwritten atomically on each checkpoint; the sets are append-only logs.
type Store struct {
	dir string
}

// NewStore creates a progress store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Load implements curation.Store. Missing files default to zeros and empty
// sets so a fresh run starts cleanly.
func (s *Store) Load() (*curation.State, []string, error) {
	clipCounter, err := s.readCounter(clipCounterFile)
	if err != nil {
		return nil, nil, err
	}
	videoCounter, err := s.readCounter(videoCounterFile)
	if err != nil {
		return nil, nil, err
	}
	videos, err := s.readLines(videosFile)
	if err != nil {
		return nil, nil, err
	}
	scraped, err := s.readLines(scrapedFile)
	if err != nil {
		return nil, nil, err
	}
	hashes, err := s.readLines(hashesFile)
	if err != nil {
		return nil, nil, err
	}

	return curation.NewState(clipCounter, videoCounter, videos, scraped), hashes, nil
}

// SaveClipCounter implements curation.Store
func (s *Store) SaveClipCounter(n int) error {
	return s.writeAtomic(clipCounterFile, []byte(strconv.Itoa(n)+"\n"))
}

// SaveVideoCounter implements curation.Store
func (s *Store) SaveVideoCounter(n int) error {
	return s.writeAtomic(videoCounterFile, []byte(strconv.Itoa(n)+"\n"))
}

// AppendFingerprint implements curation.Store
func (s *Store) AppendFingerprint(fp string) error {
	return s.appendLine(hashesFile, fp)
}

// AppendProcessedVideo implements curation.Store
func (s *Store) AppendProcessedVideo(key string) error {
	return s.appendLine(videosFile, key)
}

// AppendScrapedKey implements curation.Store
func (s *Store) AppendScrapedKey(source, keyword string) error {
	return s.appendLine(scrapedFile, source+":"+keyword)
}

func (s *Store) readCounter(name string) (int, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter in %s: %w", name, err)
	}
	return n, nil
}

func (s *Store) readLines(name string) ([]string, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}
	return lines, nil
}

func (s *Store) appendLine(name, line string) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", name, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return f.Sync()
}

// writeAtomic writes a whole file via temp-then-rename so a crash never
// leaves a truncated counter behind.
func (s *Store) writeAtomic(name string, data []byte) error {
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".progress-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", name, err)
	}
	return nil
}

// Ensure Store implements curation.Store
var _ curation.Store = (*Store)(nil)
