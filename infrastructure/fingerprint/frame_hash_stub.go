//go:build !detection

package fingerprint

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"clip-curator/domain/clip"
)

// FrameHasher is the fallback fingerprinter when GoCV/OpenCV is not
// available. It still fingerprints content, not paths: the hash is taken
// over the file bytes, so it catches exact re-downloads but not re-encodes.
type FrameHasher struct{}

// NewFrameHasher creates a file-content fingerprinter
func NewFrameHasher() *FrameHasher {
	return &FrameHasher{}
}

// Fingerprint implements clip.Fingerprinter
func (h *FrameHasher) Fingerprint(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open video %s: %w", path, err)
	}
	defer f.Close()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("hash video %s: %w", path, err)
	}

	return fmt.Sprintf("%x", sum.Sum(nil)[:16]), nil
}

// Ensure FrameHasher implements clip.Fingerprinter
var _ clip.Fingerprinter = (*FrameHasher)(nil)
