package filesystem

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// videoExtensions are the container types the pipeline recognizes when
// scanning directories.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".mov":  true,
}

// Checker provides the filesystem operations the curation pipeline needs
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the file size in bytes, or 0 when the file is missing
func (c *Checker) Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Move relocates a file, creating the destination's parent directory
func (c *Checker) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

// Remove deletes a file, ignoring already-missing files
func (c *Checker) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoveAll deletes a directory tree
func (c *Checker) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// ListVideos returns the video files directly under dir, sorted by name.
// A missing directory yields an empty list.
func (c *Checker) ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var videos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			videos = append(videos, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(videos)
	return videos, nil
}

// CountClips counts verified clip files under the dataset root, one level
// of tag directories deep.
func (c *Checker) CountClips(datasetDir string) (int, error) {
	entries, err := os.ReadDir(datasetDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		tagEntries, err := os.ReadDir(filepath.Join(datasetDir, e.Name()))
		if err != nil {
			return 0, err
		}
		for _, te := range tagEntries {
			if !te.IsDir() && videoExtensions[strings.ToLower(filepath.Ext(te.Name()))] {
				count++
			}
		}
	}
	return count, nil
}
