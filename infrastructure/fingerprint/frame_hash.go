//go:build detection

package fingerprint

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"clip-curator/domain/clip"
	"clip-curator/infrastructure/logging"
)

const (
	sampleFrames = 4
	hashSide     = 8
)

// FrameHasher implements clip.Fingerprinter with a perceptual average hash:
// a handful of frames sampled evenly across the clip, each reduced to an
// 8x8 grayscale thumbnail whose per-pixel brightness against the frame mean
// yields 64 bits. The per-frame hashes concatenate into the fingerprint, so
// identical content fingerprints identically regardless of file name or
// location.
type FrameHasher struct {
	logger zerolog.Logger
}

// NewFrameHasher creates a new perceptual frame hasher
func NewFrameHasher() *FrameHasher {
	return &FrameHasher{logger: logging.WithComponent("fingerprint")}
}

// Fingerprint implements clip.Fingerprinter
func (h *FrameHasher) Fingerprint(ctx context.Context, path string) (fp string, err error) {
	defer func() {
		if r := recover(); r != nil {
			fp = ""
			err = fmt.Errorf("fingerprinting %s failed: %v", path, r)
		}
	}()

	capture, openErr := gocv.VideoCaptureFile(path)
	if openErr != nil {
		return "", fmt.Errorf("open video %s: %w", path, openErr)
	}
	defer capture.Close()

	frameCount := int(capture.Get(gocv.VideoCaptureFrameCount))
	if frameCount < sampleFrames {
		return "", fmt.Errorf("video %s has too few frames to fingerprint", path)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	thumb := gocv.NewMat()
	defer thumb.Close()

	for i := 0; i < sampleFrames; i++ {
		// Sample at the center of each of sampleFrames equal spans.
		idx := frameCount * (2*i + 1) / (2 * sampleFrames)
		capture.Set(gocv.VideoCapturePosFrames, float64(idx))
		if !capture.Read(&frame) || frame.Empty() {
			return "", fmt.Errorf("could not read frame %d of %s", idx, path)
		}

		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
		gocv.Resize(gray, &thumb, image.Pt(hashSide, hashSide), 0, 0, gocv.InterpolationArea)

		fp += fmt.Sprintf("%016x", averageHash(thumb))
	}

	return fp, nil
}

// averageHash folds an 8x8 grayscale thumbnail into 64 bits, one per pixel,
// set when the pixel is brighter than the thumbnail mean.
func averageHash(thumb gocv.Mat) uint64 {
	var sum int
	for r := 0; r < hashSide; r++ {
		for c := 0; c < hashSide; c++ {
			sum += int(thumb.GetUCharAt(r, c))
		}
	}
	mean := uint8(sum / (hashSide * hashSide))

	var bits uint64
	for r := 0; r < hashSide; r++ {
		for c := 0; c < hashSide; c++ {
			bits <<= 1
			if thumb.GetUCharAt(r, c) > mean {
				bits |= 1
			}
		}
	}
	return bits
}

// Ensure FrameHasher implements clip.Fingerprinter
var _ clip.Fingerprinter = (*FrameHasher)(nil)
