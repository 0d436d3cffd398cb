//go:build integration

package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	appcuration "clip-curator/application/curation"
	"clip-curator/domain/acquisition"
	"clip-curator/domain/clip"
	"clip-curator/domain/curation"
	"clip-curator/infrastructure/config"
)

// mockProber serves durations keyed by the raw file's base name
type mockProber struct {
	durations map[string]float64
}

func (m *mockProber) Duration(_ context.Context, path string) float64 {
	return m.durations[filepath.Base(path)]
}

// mockDetector flags watermarks by base name
type mockDetector struct {
	watermarked map[string]bool
}

func (m *mockDetector) HasWatermark(_ context.Context, path string) bool {
	return m.watermarked[filepath.Base(path)]
}

// mockExtractor always succeeds and returns the requested duration
type mockExtractor struct{}

func (m *mockExtractor) Extract(_ context.Context, _, output string, target float64) (string, float64, error) {
	return output, target, nil
}

// mockFingerprinter hashes by path unless forced to a shared value
type mockFingerprinter struct {
	shared bool
}

func (m *mockFingerprinter) Fingerprint(_ context.Context, path string) (string, error) {
	if m.shared {
		return "sharedfingerprint", nil
	}
	return "fp-" + filepath.Base(path), nil
}

// memStore is an in-memory progress store
type memStore struct {
	clipCounter  int
	videoCounter int
	processed    []string
	scraped      []string
	fingerprints []string
}

func (m *memStore) Load() (*curation.State, []string, error) {
	return curation.NewState(m.clipCounter, m.videoCounter, m.processed, m.scraped), m.fingerprints, nil
}

func (m *memStore) SaveClipCounter(n int) error { m.clipCounter = n; return nil }

func (m *memStore) SaveVideoCounter(n int) error { m.videoCounter = n; return nil }

func (m *memStore) AppendFingerprint(fp string) error {
	m.fingerprints = append(m.fingerprints, fp)
	return nil
}

func (m *memStore) AppendProcessedVideo(key string) error {
	m.processed = append(m.processed, key)
	return nil
}

func (m *memStore) AppendScrapedKey(source, keyword string) error {
	m.scraped = append(m.scraped, source+":"+keyword)
	return nil
}

// mockFS tracks downloads and clip placements in memory
type mockFS struct {
	videos []string
	moves  [][2]string
}

func (f *mockFS) Exists(string) bool { return false }

func (f *mockFS) Move(src, dst string) error {
	f.moves = append(f.moves, [2]string{src, dst})
	return nil
}

func (f *mockFS) Remove(string) error { return nil }

func (f *mockFS) ListVideos(string) ([]string, error) { return f.videos, nil }

func (f *mockFS) CountClips(string) (int, error) { return 0, nil }

// mockScraper serves canned candidates per keyword
type mockScraper struct {
	batches map[string][]clip.CandidateVideo
}

func (m *mockScraper) Name() string { return "youtube" }

func (m *mockScraper) SearchAndDownload(_ context.Context, keyword, downloadDir string) ([]clip.CandidateVideo, error) {
	return m.batches[keyword], nil
}

// curationContext holds test state for curation scenarios
type curationContext struct {
	cfg           *config.Config
	prober        *mockProber
	detector      *mockDetector
	fingerprinter *mockFingerprinter
	store         *memStore
	fs            *mockFS
	scraper       *mockScraper
	result        *appcuration.Result
	err           error
}

// SharedCurationContext is reset before each scenario via Before hook
var SharedCurationContext *curationContext

func getCurationContext() *curationContext {
	return SharedCurationContext
}

func InitializeCurationScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedCurationContext = &curationContext{
			cfg: &config.Config{
				Paths: config.PathsConfig{
					DownloadsDir: "raw",
					DatasetDir:   "dataset",
				},
				Processing: config.ProcessingConfig{
					ClipDuration:      5,
					MinClipDuration:   2,
					VideoMarginFactor: 1.5,
					DetectWatermarks:  true,
				},
				Scraper: config.ScraperConfig{Keywords: []string{"cat jumping"}},
			},
			prober:        &mockProber{durations: make(map[string]float64)},
			detector:      &mockDetector{watermarked: make(map[string]bool)},
			fingerprinter: &mockFingerprinter{},
			store:         &memStore{},
			fs:            &mockFS{},
			scraper:       &mockScraper{batches: make(map[string][]clip.CandidateVideo)},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedCurationContext = nil
		return c, nil
	})

	ctx.Step(`^the clip target is (\d+)$`, theClipTargetIs)
	ctx.Step(`^a downloaded video "([^"]*)" with duration (\d+)$`, aDownloadedVideoWithDuration)
	ctx.Step(`^the video "([^"]*)" carries a watermark$`, theVideoCarriesAWatermark)
	ctx.Step(`^every video shares the same content fingerprint$`, everyVideoSharesTheSameContentFingerprint)
	ctx.Step(`^(\d+) clips were already collected in a previous run$`, clipsWereAlreadyCollected)
	ctx.Step(`^searching "([^"]*)" yields a video "([^"]*)" with duration (\d+)$`, searchingYieldsAVideo)
	ctx.Step(`^I run a collection pass$`, iRunACollectionPass)
	ctx.Step(`^the dataset should contain (\d+) clips$`, theDatasetShouldContainClips)
	ctx.Step(`^the clip target should be met$`, theClipTargetShouldBeMet)
	ctx.Step(`^the clip target should not be met$`, theClipTargetShouldNotBeMet)
	ctx.Step(`^clip "([^"]*)" should be filed under tag "([^"]*)"$`, clipShouldBeFiledUnderTag)
	ctx.Step(`^no new clips should be produced$`, noNewClipsShouldBeProduced)
}

func theClipTargetIs(target int) error {
	c := getCurationContext()
	c.cfg.Processing.TargetClipCount = target
	return nil
}

func aDownloadedVideoWithDuration(name string, duration int) error {
	c := getCurationContext()
	c.fs.videos = append(c.fs.videos, filepath.Join(c.cfg.Paths.DownloadsDir, name))
	c.prober.durations[name] = float64(duration)
	return nil
}

func theVideoCarriesAWatermark(name string) error {
	c := getCurationContext()
	c.detector.watermarked[name] = true
	return nil
}

func everyVideoSharesTheSameContentFingerprint() error {
	getCurationContext().fingerprinter.shared = true
	return nil
}

func clipsWereAlreadyCollected(count int) error {
	getCurationContext().store.clipCounter = count
	return nil
}

func searchingYieldsAVideo(keyword, id string, duration int) error {
	c := getCurationContext()
	candidate := clip.CandidateVideo{
		ID:          id,
		Keyword:     keyword,
		Source:      "youtube",
		OriginalURL: "https://example.com/" + id,
	}
	name := candidate.RawFilename(".mp4")
	candidate.Filepath = filepath.Join(c.cfg.Paths.DownloadsDir, name)
	c.prober.durations[name] = float64(duration)
	c.scraper.batches[keyword] = append(c.scraper.batches[keyword], candidate)
	if !containsKeyword(c.cfg.Scraper.Keywords, keyword) {
		c.cfg.Scraper.Keywords = append(c.cfg.Scraper.Keywords, keyword)
	}
	return nil
}

func iRunACollectionPass() error {
	c := getCurationContext()
	service := appcuration.NewService(
		c.prober,
		c.detector,
		&mockExtractor{},
		c.fingerprinter,
		c.store,
		c.fs,
		[]acquisition.Scraper{c.scraper},
		c.cfg,
	)
	c.result, c.err = service.Run(context.Background())
	if c.err != nil {
		return fmt.Errorf("unexpected error: %v", c.err)
	}
	return nil
}

func theDatasetShouldContainClips(count int) error {
	c := getCurationContext()
	if c.result.ClipCount != count {
		return fmt.Errorf("expected %d clips, got %d", count, c.result.ClipCount)
	}
	return nil
}

func theClipTargetShouldBeMet() error {
	if c := getCurationContext(); !c.result.TargetMet {
		return fmt.Errorf("expected the clip target to be met, got %d clips", c.result.ClipCount)
	}
	return nil
}

func theClipTargetShouldNotBeMet() error {
	if c := getCurationContext(); c.result.TargetMet {
		return fmt.Errorf("expected the clip target to be unmet, got %d clips", c.result.ClipCount)
	}
	return nil
}

func clipShouldBeFiledUnderTag(clipID, tag string) error {
	c := getCurationContext()
	want := filepath.Join(c.cfg.Paths.DatasetDir, tag, clipID+".mp4")
	for _, move := range c.fs.moves {
		if move[1] == want {
			return nil
		}
	}
	return fmt.Errorf("no placement to %q recorded, moves: %v", want, c.fs.moves)
}

func noNewClipsShouldBeProduced() error {
	c := getCurationContext()
	if len(c.result.Accepted) != 0 {
		return fmt.Errorf("expected no new clips, got %d", len(c.result.Accepted))
	}
	return nil
}

func containsKeyword(keywords []string, keyword string) bool {
	for _, k := range keywords {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}
