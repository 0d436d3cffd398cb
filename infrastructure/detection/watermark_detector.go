//go:build detection

package detection

import (
	"context"
	"image"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"clip-curator/domain/detection"
	"clip-curator/infrastructure/logging"
)

// WatermarkDetector implements detection.WatermarkDetector using GoCV
// cross-frame feature alignment.
//
// Two frames are sampled two well-separated timestamps apart, aligned via an
// ORB-feature homography, and differenced. A true watermark stays put after
// camera/scene motion has been compensated away, so a large static fraction
// between the aligned frames signals a persistent overlay. Ordinary static
// backgrounds move with the estimated camera motion and are de-aligned out
// of the static mask.
type WatermarkDetector struct {
	staticThreshold float64
	logger          zerolog.Logger
}

// WatermarkDetectorOption is a functional option for configuring WatermarkDetector
type WatermarkDetectorOption func(*WatermarkDetector)

// WithStaticThreshold overrides the static-area fraction above which a
// watermark is reported
func WithStaticThreshold(threshold float64) WatermarkDetectorOption {
	return func(d *WatermarkDetector) {
		if threshold > 0 {
			d.staticThreshold = threshold
		}
	}
}

// NewWatermarkDetector creates a new alignment-based watermark detector
func NewWatermarkDetector(opts ...WatermarkDetectorOption) *WatermarkDetector {
	d := &WatermarkDetector{
		staticThreshold: detection.DefaultStaticThreshold,
		logger:          logging.WithComponent("watermark"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// HasWatermark implements detection.WatermarkDetector
func (d *WatermarkDetector) HasWatermark(ctx context.Context, path string) (verdict bool) {
	// Analysis failure mid-flight rejects the candidate; err on the side of
	// a clean dataset.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("path", path).Msg("watermark analysis failed")
			verdict = detection.VerdictOnFailure
		}
	}()

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		d.logger.Warn().Err(err).Str("path", path).Msg("cannot open video")
		return detection.VerdictUnassessable
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	frameCount := capture.Get(gocv.VideoCaptureFrameCount)

	// Need at least two seconds of footage to sample well-separated frames.
	if fps <= 0 || frameCount < 2*fps {
		d.logger.Warn().Str("path", path).Msg("too short or invalid metadata for watermark detection")
		return detection.VerdictUnassessable
	}

	frameA := gocv.NewMat()
	defer frameA.Close()
	frameB := gocv.NewMat()
	defer frameB.Close()

	// Frame A at t ~ 1s, frame B at t ~ duration - 1s.
	capture.Set(gocv.VideoCapturePosFrames, fps)
	if !capture.Read(&frameA) || frameA.Empty() {
		d.logger.Warn().Str("path", path).Msg("could not read early frame")
		return detection.VerdictUnassessable
	}
	capture.Set(gocv.VideoCapturePosFrames, frameCount-fps-1)
	if !capture.Read(&frameB) || frameB.Empty() {
		d.logger.Warn().Str("path", path).Msg("could not read late frame")
		return detection.VerdictUnassessable
	}

	grayA := gocv.NewMat()
	defer grayA.Close()
	grayB := gocv.NewMat()
	defer grayB.Close()
	gocv.CvtColor(frameA, &grayA, gocv.ColorBGRToGray)
	gocv.CvtColor(frameB, &grayB, gocv.ColorBGRToGray)

	return d.compareFrames(path, grayA, grayB)
}

// compareFrames aligns grayB onto grayA and reports whether the static
// region between them exceeds the configured threshold.
func (d *WatermarkDetector) compareFrames(path string, grayA, grayB gocv.Mat) bool {
	orb := gocv.NewORBWithParams(detection.MaxFeatures, 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	kpA, desA := orb.DetectAndCompute(grayA, mask)
	defer desA.Close()
	kpB, desB := orb.DetectAndCompute(grayB, mask)
	defer desB.Close()

	if desA.Empty() || desB.Empty() || desA.Rows() < detection.MinMatches || desB.Rows() < detection.MinMatches {
		d.logger.Warn().Str("path", path).Msg("not enough features to compare frames")
		return detection.VerdictUnassessable
	}

	// Mutual nearest-neighbor matching over binary descriptors.
	matcher := gocv.NewBFMatcherWithParams(gocv.NormHamming, true)
	defer matcher.Close()

	matches := matcher.Match(desA, desB)
	if len(matches) < detection.MinMatches {
		d.logger.Info().Str("path", path).Int("matches", len(matches)).Msg("not enough matches to align frames")
		return detection.VerdictUnassessable
	}

	// Homography mapping frame B's points onto frame A's.
	srcPts := gocv.NewMatWithSize(len(matches), 1, gocv.MatTypeCV64FC2)
	defer srcPts.Close()
	dstPts := gocv.NewMatWithSize(len(matches), 1, gocv.MatTypeCV64FC2)
	defer dstPts.Close()

	for i, m := range matches {
		ptA := kpA[m.QueryIdx]
		ptB := kpB[m.TrainIdx]
		srcPts.SetDoubleAt(i, 0, ptB.X)
		srcPts.SetDoubleAt(i, 1, ptB.Y)
		dstPts.SetDoubleAt(i, 0, ptA.X)
		dstPts.SetDoubleAt(i, 1, ptA.Y)
	}

	inliers := gocv.NewMat()
	defer inliers.Close()

	homography := gocv.FindHomography(srcPts, &dstPts, gocv.HomographyMethodRANSAC, detection.RansacReprojThreshold, &inliers, 2000, 0.995)
	defer homography.Close()

	if homography.Empty() {
		d.logger.Warn().Str("path", path).Msg("could not compute homography")
		return detection.VerdictUnassessable
	}

	aligned := gocv.NewMat()
	defer aligned.Close()
	gocv.WarpPerspective(grayB, &aligned, homography, image.Pt(grayA.Cols(), grayA.Rows()))

	fraction := staticFraction(grayA, aligned)
	if fraction > d.staticThreshold {
		d.logger.Info().Str("path", path).Float64("static_fraction", fraction).Msg("potential watermark detected")
		return true
	}

	return false
}

// staticFraction reports the share of pixels whose intensity delta between
// the two aligned frames stays at or below the change threshold.
func staticFraction(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	static := gocv.NewMat()
	defer static.Close()
	gocv.Threshold(diff, &static, float32(detection.DiffThreshold), 255, gocv.ThresholdBinaryInv)

	total := static.Rows() * static.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(static)) / float64(total)
}

// Ensure WatermarkDetector implements detection.WatermarkDetector
var _ detection.WatermarkDetector = (*WatermarkDetector)(nil)
