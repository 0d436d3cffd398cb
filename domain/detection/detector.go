package detection

import "context"

// WatermarkDetector decides whether a video likely carries a persistent
// overlay burned into a fixed screen position.
type WatermarkDetector interface {
	// HasWatermark reports the verdict for the given video file. It never
	// errors: assessment failures resolve to the policy constants below.
	HasWatermark(ctx context.Context, path string) bool
}

// Verdict policy for the cases where the detector cannot produce a real
// measurement. These are deliberate, tested defaults rather than incidental
// fallthrough behavior.
const (
	// VerdictUnassessable admits the candidate when there is not enough
	// signal to judge: unreadable container, under two seconds of footage,
	// fewer than MinMatches usable features, or no homography.
	VerdictUnassessable = false

	// VerdictOnFailure rejects the candidate when analysis was underway and
	// failed unexpectedly. When in doubt, keep the dataset clean.
	VerdictOnFailure = true
)

const (
	// DefaultStaticThreshold is the static-area fraction above which a
	// watermark is reported.
	DefaultStaticThreshold = 0.05

	// MaxFeatures caps ORB keypoint detection per frame.
	MaxFeatures = 1000

	// MinMatches is the minimum number of descriptors on each frame, and of
	// mutual matches between them, needed before alignment is attempted.
	MinMatches = 10

	// RansacReprojThreshold is the RANSAC reprojection threshold in pixels
	// used for homography estimation.
	RansacReprojThreshold = 5.0

	// DiffThreshold is the grayscale intensity delta above which a pixel
	// counts as changed between the two aligned frames.
	DiffThreshold = 20
)
