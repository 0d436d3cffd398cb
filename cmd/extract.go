package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clip-curator/domain/clip"
	"clip-curator/infrastructure/ffmpeg"
)

var (
	extractSourcePath string
	extractOutputPath string
	extractDuration   float64
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Cut a single clip from a video at a random offset",
	Long: `Extract a clip of the given duration from a source video, starting at a
uniformly random offset, using a stream copy (no re-encoding). A source
shorter than the requested duration becomes the clip wholesale.

Example:
  clip-curator extract --source input.mp4 --output clip.mp4 --duration 5`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractSourcePath, "source", "", "Path to source video file (required)")
	extractCmd.Flags().StringVar(&extractOutputPath, "output", "", "Path for the extracted clip (required)")
	extractCmd.Flags().Float64Var(&extractDuration, "duration", 5, "Clip duration in seconds")
	extractCmd.MarkFlagRequired("source")
	extractCmd.MarkFlagRequired("output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	prober := ffmpeg.NewProber()
	extractor := ffmpeg.NewExtractor(prober)
	return RunExtractWithDependencies(cmd.Context(), extractor, extractSourcePath, extractOutputPath, extractDuration, os.Stdout)
}

// RunExtractWithDependencies runs the extract command with injected dependencies (for testing)
func RunExtractWithDependencies(
	ctx context.Context,
	extractor clip.Extractor,
	sourcePath string,
	outputPath string,
	duration float64,
	output io.Writer,
) error {
	if verifiable, ok := extractor.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}

	fmt.Fprintf(output, "Extracting %.1fs clip from %s...\n", duration, sourcePath)

	path, actual, err := extractor.Extract(ctx, sourcePath, outputPath, duration)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Successfully created: %s (%.2fs)\n", path, actual)
	return nil
}
