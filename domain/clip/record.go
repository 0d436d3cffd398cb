package clip

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ClipRecord describes one accepted dataset clip. Created exactly once per
// accepted candidate; the clip file itself plus the fingerprint log entry
// are its durable representation.
type ClipRecord struct {
	ClipID      string
	Path        string
	Tag         string
	Duration    float64
	Source      string
	Keyword     string
	OriginalURL string
	Fingerprint string
}

// ClipID formats a monotonic counter value as a zero-padded clip id.
func ClipID(counter int) string {
	return fmt.Sprintf("clip_%04d", counter)
}

// NormalizeTag derives the dataset category folder name from a search
// keyword by replacing spaces with underscores.
func NormalizeTag(keyword string) string {
	return strings.ReplaceAll(strings.TrimSpace(keyword), " ", "_")
}

// ClipPath returns the dataset-relative location for a clip:
// {dataset_root}/{tag}/clip_NNNN.{ext}
func ClipPath(datasetRoot, tag, clipID, ext string) string {
	return filepath.Join(datasetRoot, tag, clipID+ext)
}
