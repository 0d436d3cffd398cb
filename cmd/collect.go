package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	appcuration "clip-curator/application/curation"
	appreport "clip-curator/application/report"
	"clip-curator/domain/acquisition"
	"clip-curator/infrastructure/config"
	"clip-curator/infrastructure/detection"
	"clip-curator/infrastructure/ffmpeg"
	"clip-curator/infrastructure/filesystem"
	"clip-curator/infrastructure/fingerprint"
	"clip-curator/infrastructure/progress"
	"clip-curator/infrastructure/scraper"
)

var (
	collectSkipArchive bool
	collectLocalSource string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the full collection pipeline until the clip target is met",
	Long: `Run the resumable collection pipeline: replay leftover raw downloads,
acquire more candidates per configured source and keyword, gate each one
(duration, watermark, dedup), and cut accepted clips into the dataset.

Interrupting the run is safe; the next invocation picks up from the last
checkpoint. When the target is met, the dataset index, report, and archive
are written.

Example:
  clip-curator collect
  clip-curator collect --local-source /data/prefetched`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().BoolVar(&collectSkipArchive, "skip-archive", false, "Do not zip the dataset after a completed run")
	collectCmd.Flags().StringVar(&collectLocalSource, "local-source", "", "Also acquire from a directory of pre-downloaded videos")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded; ensure config/config.yaml exists or run 'clip-curator setup'")
	}

	store, err := progress.NewStore(cfg.Paths.ProgressDir)
	if err != nil {
		return err
	}

	prober := ffmpeg.NewProber()
	if err := prober.VerifyInstalled(cmd.Context()); err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}

	var scrapers []acquisition.Scraper
	for _, name := range cfg.Scraper.ActiveScrapers {
		switch name {
		case "youtube":
			scrapers = append(scrapers, scraper.NewYTDLPScraper(cfg.Scraper))
		case "local":
			if collectLocalSource == "" {
				return fmt.Errorf("scraper %q requires --local-source", name)
			}
			scrapers = append(scrapers, scraper.NewLocalDirScraper(collectLocalSource))
		default:
			return fmt.Errorf("unknown scraper %q in active_scrapers", name)
		}
	}
	if collectLocalSource != "" && !containsScraper(scrapers, "local") {
		scrapers = append(scrapers, scraper.NewLocalDirScraper(collectLocalSource))
	}

	fs := filesystem.NewChecker()
	extractor := ffmpeg.NewExtractor(prober)
	detector := detection.NewWatermarkDetector(
		detection.WithStaticThreshold(cfg.Processing.WatermarkThreshold / 100),
	)
	hasher := fingerprint.NewFrameHasher()

	if err := os.MkdirAll(cfg.Paths.DownloadsDir, 0o755); err != nil {
		return fmt.Errorf("create downloads directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.DatasetDir, 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	service := appcuration.NewService(prober, detector, extractor, hasher, store, fs, scrapers, cfg)
	return RunCollectWithService(cmd.Context(), service, fs, cfg, collectSkipArchive, os.Stdout)
}

// RunCollectWithService runs collection with an injected service (for testing)
func RunCollectWithService(
	ctx context.Context,
	service *appcuration.Service,
	fs *filesystem.Checker,
	cfg *config.Config,
	skipArchive bool,
	output io.Writer,
) error {
	result, err := service.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Run complete: %d clips total (%d new), %d videos downloaded\n",
		result.ClipCount, len(result.Accepted), result.VideoCount)

	if len(result.Accepted) == 0 {
		fmt.Fprintln(output, "No new clips were added to the dataset.")
		return nil
	}

	reporter := appreport.NewService()
	if err := reporter.WriteIndex(result.Accepted, cfg.Paths.IndexFile); err != nil {
		return err
	}
	fmt.Fprintf(output, "Index:   %s\n", cfg.Paths.IndexFile)

	if err := reporter.WriteReport(result.Accepted, cfg.Paths.ReportFile); err != nil {
		return err
	}
	fmt.Fprintf(output, "Report:  %s\n", cfg.Paths.ReportFile)

	if result.TargetMet && !cfg.Processing.KeepRawDownloads {
		if err := fs.RemoveAll(cfg.Paths.DownloadsDir); err != nil {
			fmt.Fprintf(output, "Warning: could not clean up %s: %v\n", cfg.Paths.DownloadsDir, err)
		}
	}

	if result.TargetMet && !skipArchive && cfg.Paths.ArchiveName != "" {
		archivePath, err := reporter.Archive(cfg.Paths.DatasetDir, cfg.Paths.ArchiveName)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "Archive: %s\n", archivePath)
	}

	return nil
}

func containsScraper(scrapers []acquisition.Scraper, name string) bool {
	for _, s := range scrapers {
		if s.Name() == name {
			return true
		}
	}
	return false
}
