//go:build !detection

package detection

import (
	"context"

	"github.com/rs/zerolog"

	"clip-curator/domain/detection"
	"clip-curator/infrastructure/logging"
)

// WatermarkDetector is a stub when GoCV/OpenCV is not available
type WatermarkDetector struct {
	logger zerolog.Logger
}

// WatermarkDetectorOption is a functional option for configuring WatermarkDetector
type WatermarkDetectorOption func(*WatermarkDetector)

// WithStaticThreshold is a no-op in stub mode
func WithStaticThreshold(threshold float64) WatermarkDetectorOption {
	return func(d *WatermarkDetector) {}
}

// NewWatermarkDetector creates a stub detector (requires building with -tags=detection)
func NewWatermarkDetector(opts ...WatermarkDetectorOption) *WatermarkDetector {
	return &WatermarkDetector{logger: logging.WithComponent("watermark")}
}

// HasWatermark always reports the unassessable verdict in stub mode
func (d *WatermarkDetector) HasWatermark(ctx context.Context, path string) bool {
	d.logger.Warn().Str("path", path).Msg("watermark detection not available: build with '-tags=detection' and install OpenCV/GoCV")
	return detection.VerdictUnassessable
}

// Ensure WatermarkDetector implements detection.WatermarkDetector
var _ detection.WatermarkDetector = (*WatermarkDetector)(nil)
