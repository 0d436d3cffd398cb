package curation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clip-curator/domain/acquisition"
	"clip-curator/domain/clip"
	"clip-curator/domain/curation"
	"clip-curator/infrastructure/config"
)

type mockProber struct {
	durations map[string]float64
	fallback  float64
}

func (m *mockProber) Duration(_ context.Context, path string) float64 {
	if d, ok := m.durations[path]; ok {
		return d
	}
	return m.fallback
}

type mockDetector struct {
	watermarked map[string]bool
	calls       []string
}

func (m *mockDetector) HasWatermark(_ context.Context, path string) bool {
	m.calls = append(m.calls, path)
	return m.watermarked[path]
}

type mockExtractor struct {
	durations map[string]float64
	errFor    map[string]error
	calls     []string
}

func (m *mockExtractor) Extract(_ context.Context, input, output string, target float64) (string, float64, error) {
	m.calls = append(m.calls, input)
	if err := m.errFor[input]; err != nil {
		return "", 0, err
	}
	if d, ok := m.durations[input]; ok {
		return output, d, nil
	}
	return output, target, nil
}

type mockFingerprinter struct {
	byPath map[string]string
	err    error
}

func (m *mockFingerprinter) Fingerprint(_ context.Context, path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if fp, ok := m.byPath[path]; ok {
		return fp, nil
	}
	return "fp-" + filepath.Base(path), nil
}

type memStore struct {
	clipCounter  int
	videoCounter int
	processed    []string
	scraped      []string
	fingerprints []string
	clipSaves    []int
	videoSaves   []int
}

var _ curation.Store = (*memStore)(nil)

func (m *memStore) Load() (*curation.State, []string, error) {
	return curation.NewState(m.clipCounter, m.videoCounter, m.processed, m.scraped), m.fingerprints, nil
}

func (m *memStore) SaveClipCounter(n int) error {
	m.clipCounter = n
	m.clipSaves = append(m.clipSaves, n)
	return nil
}

func (m *memStore) SaveVideoCounter(n int) error {
	m.videoCounter = n
	m.videoSaves = append(m.videoSaves, n)
	return nil
}

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

type fakeFS struct {
	videos    []string
	clipCount int
	moves     [][2]string
	removed   []string
}

var _ FileOps = (*fakeFS)(nil)

func (f *fakeFS) Exists(string) bool { return false }

func (f *fakeFS) Move(src, dst string) error {
	f.moves = append(f.moves, [2]string{src, dst})
	return nil
}

func (f *fakeFS) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func (f *fakeFS) ListVideos(string) ([]string, error) { return f.videos, nil }

func (f *fakeFS) CountClips(string) (int, error) { return f.clipCount, nil }

type mockScraper struct {
	name    string
	batches map[string][]clip.CandidateVideo
	errFor  map[string]error
	calls   []string
}

var _ acquisition.Scraper = (*mockScraper)(nil)

func (m *mockScraper) Name() string { return m.name }

func (m *mockScraper) SearchAndDownload(_ context.Context, keyword, _ string) ([]clip.CandidateVideo, error) {
	m.calls = append(m.calls, keyword)
	if err := m.errFor[keyword]; err != nil {
		return nil, err
	}
	return m.batches[keyword], nil
}

type harness struct {
	prober        *mockProber
	detector      *mockDetector
	extractor     *mockExtractor
	fingerprinter *mockFingerprinter
	store         *memStore
	fs            *fakeFS
	scraper       *mockScraper
	cfg           *config.Config
}

func newHarness(target int, keywords ...string) *harness {
	if len(keywords) == 0 {
		keywords = []string{"cat jumping"}
	}
	return &harness{
		prober:        &mockProber{fallback: 30},
		detector:      &mockDetector{watermarked: map[string]bool{}},
		extractor:     &mockExtractor{durations: map[string]float64{}, errFor: map[string]error{}},
		fingerprinter: &mockFingerprinter{byPath: map[string]string{}},
		store:         &memStore{},
		fs:            &fakeFS{},
		scraper:       &mockScraper{name: "youtube", batches: map[string][]clip.CandidateVideo{}, errFor: map[string]error{}},
		cfg: &config.Config{
			Paths: config.PathsConfig{
				DownloadsDir: "raw",
				DatasetDir:   "dataset",
			},
			Processing: config.ProcessingConfig{
				ClipDuration:      5,
				MinClipDuration:   2,
				TargetClipCount:   target,
				VideoMarginFactor: 1.5,
				DetectWatermarks:  true,
			},
			Scraper: config.ScraperConfig{Keywords: keywords},
		},
	}
}

func (h *harness) service() *Service {
	return NewService(h.prober, h.detector, h.extractor, h.fingerprinter, h.store, h.fs, []acquisition.Scraper{h.scraper}, h.cfg)
}

func (h *harness) candidate(keyword, id string) clip.CandidateVideo {
	c := clip.CandidateVideo{ID: id, Source: "youtube", Keyword: keyword, OriginalURL: "https://example.com/" + id}
	c.Filepath = filepath.Join("raw", c.RawFilename(".mp4"))
	return c
}

func trimmedPath(id string) string {
	return filepath.Join("raw", "trimmed_"+id+".mp4")
}

func TestRunTargetAlreadyMetDoesNothing(t *testing.T) {
	h := newHarness(3)
	h.store.clipCounter = 3
	h.fs.videos = []string{filepath.Join("raw", "youtube_cat_jumping_a1.mp4")}
	h.scraper.batches["cat jumping"] = []clip.CandidateVideo{h.candidate("cat jumping", "b2")}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TargetMet {
		t.Error("expected target to be reported as met")
	}
	if res.ClipCount != 3 {
		t.Errorf("ClipCount = %d, want 3", res.ClipCount)
	}
	if len(h.extractor.calls) != 0 {
		t.Errorf("expected no extractions, got %v", h.extractor.calls)
	}
	if len(h.scraper.calls) != 0 {
		t.Errorf("expected no scraping, got %v", h.scraper.calls)
	}
}

func TestRunAdoptsHigherOnDiskClipCount(t *testing.T) {
	h := newHarness(3)
	h.store.clipCounter = 1
	h.fs.clipCount = 3

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TargetMet {
		t.Error("expected target met after adopting on-disk count")
	}
	if h.store.clipCounter != 3 {
		t.Errorf("persisted clip counter = %d, want 3", h.store.clipCounter)
	}
}

func TestReplayAcceptsLeftoverDownloads(t *testing.T) {
	h := newHarness(2)
	h.fs.videos = []string{
		filepath.Join("raw", "notes.mp4"), // does not match the naming convention
		filepath.Join("raw", "youtube_cat_jumping_a1.mp4"),
		filepath.Join("raw", "youtube_cat_jumping_b2.mp4"),
	}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TargetMet || res.ClipCount != 2 {
		t.Fatalf("ClipCount = %d, TargetMet = %v, want 2/true", res.ClipCount, res.TargetMet)
	}
	if len(res.Accepted) != 2 {
		t.Fatalf("Accepted = %d records, want 2", len(res.Accepted))
	}
	if res.Accepted[0].ClipID != "clip_0000" || res.Accepted[1].ClipID != "clip_0001" {
		t.Errorf("clip ids = %q, %q", res.Accepted[0].ClipID, res.Accepted[1].ClipID)
	}
	if res.Accepted[0].Tag != "cat_jumping" {
		t.Errorf("tag = %q, want cat_jumping", res.Accepted[0].Tag)
	}
	wantDest := filepath.Join("dataset", "cat_jumping", "clip_0000.mp4")
	if len(h.fs.moves) == 0 || h.fs.moves[0][1] != wantDest {
		t.Errorf("first move = %v, want dest %q", h.fs.moves, wantDest)
	}
	if len(h.extractor.calls) != 2 {
		t.Errorf("extractor calls = %v, malformed filename should have been skipped", h.extractor.calls)
	}
	if len(h.store.processed) != 2 || h.store.processed[0] != "youtube_a1" {
		t.Errorf("processed keys = %v", h.store.processed)
	}
	if len(h.store.fingerprints) != 2 {
		t.Errorf("fingerprint log = %v, want 2 entries", h.store.fingerprints)
	}
	if len(h.scraper.calls) != 0 {
		t.Errorf("scraper should not run once replay meets the target, got %v", h.scraper.calls)
	}
}

func TestRejectsSourceBelowMinimumDuration(t *testing.T) {
	h := newHarness(1)
	path := filepath.Join("raw", "youtube_cat_jumping_a1.mp4")
	h.fs.videos = []string{path}
	h.prober.durations = map[string]float64{path: 1}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 0 || res.TargetMet {
		t.Errorf("ClipCount = %d, TargetMet = %v, want rejection", res.ClipCount, res.TargetMet)
	}
	if len(h.extractor.calls) != 0 {
		t.Errorf("short source must not reach extraction, got %v", h.extractor.calls)
	}
}

func TestRejectsWatermarkedSource(t *testing.T) {
	h := newHarness(1)
	path := filepath.Join("raw", "youtube_cat_jumping_a1.mp4")
	h.fs.videos = []string{path}
	h.detector.watermarked[path] = true

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 0 {
		t.Errorf("ClipCount = %d, want 0", res.ClipCount)
	}
	if len(h.extractor.calls) != 0 {
		t.Errorf("watermarked source must not reach extraction, got %v", h.extractor.calls)
	}
}

func TestWatermarkCheckSkippedWhenDisabled(t *testing.T) {
	h := newHarness(1)
	h.cfg.Processing.DetectWatermarks = false
	path := filepath.Join("raw", "youtube_cat_jumping_a1.mp4")
	h.fs.videos = []string{path}
	h.detector.watermarked[path] = true

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 1 {
		t.Errorf("ClipCount = %d, want 1", res.ClipCount)
	}
	if len(h.detector.calls) != 0 {
		t.Errorf("detector should not be consulted when disabled, got %v", h.detector.calls)
	}
}

func TestExtractionFailureRejectsCandidate(t *testing.T) {
	h := newHarness(1)
	path := filepath.Join("raw", "youtube_cat_jumping_a1.mp4")
	h.fs.videos = []string{path}
	h.extractor.errFor[path] = errors.New("stream copy failed")

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 0 {
		t.Errorf("ClipCount = %d, want 0", res.ClipCount)
	}
	if len(h.fs.moves) != 0 {
		t.Errorf("no clip should be placed, got moves %v", h.fs.moves)
	}
	if len(h.store.processed) != 0 {
		t.Errorf("failed candidate must not be marked processed, got %v", h.store.processed)
	}
}

func TestTrimmedClipBelowMinimumIsDiscarded(t *testing.T) {
	h := newHarness(1)
	path := filepath.Join("raw", "youtube_cat_jumping_a1.mp4")
	h.fs.videos = []string{path}
	h.extractor.durations[path] = 1

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 0 {
		t.Errorf("ClipCount = %d, want 0", res.ClipCount)
	}
	if want := trimmedPath("a1"); len(h.fs.removed) != 1 || h.fs.removed[0] != want {
		t.Errorf("removed = %v, want [%s]", h.fs.removed, want)
	}
}

func TestDuplicateFingerprintIsRejected(t *testing.T) {
	h := newHarness(2)
	h.fs.videos = []string{
		filepath.Join("raw", "youtube_cat_jumping_a1.mp4"),
		filepath.Join("raw", "youtube_cat_jumping_b2.mp4"),
	}
	h.fingerprinter.byPath[trimmedPath("a1")] = "deadbeef"
	h.fingerprinter.byPath[trimmedPath("b2")] = "deadbeef"

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 1 {
		t.Errorf("ClipCount = %d, want 1", res.ClipCount)
	}
	if len(h.store.fingerprints) != 1 || h.store.fingerprints[0] != "deadbeef" {
		t.Errorf("fingerprint log = %v, want one deadbeef entry", h.store.fingerprints)
	}
	if want := trimmedPath("b2"); len(h.fs.removed) != 1 || h.fs.removed[0] != want {
		t.Errorf("removed = %v, want [%s]", h.fs.removed, want)
	}
}

func TestFingerprintFailureTreatedAsDuplicate(t *testing.T) {
	h := newHarness(1)
	h.fs.videos = []string{filepath.Join("raw", "youtube_cat_jumping_a1.mp4")}
	h.fingerprinter.err = errors.New("no frames")

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ClipCount != 0 {
		t.Errorf("ClipCount = %d, want 0", res.ClipCount)
	}
	if want := trimmedPath("a1"); len(h.fs.removed) != 1 || h.fs.removed[0] != want {
		t.Errorf("removed = %v, want [%s]", h.fs.removed, want)
	}
}

func TestAcquireDownloadsUntilTargetMet(t *testing.T) {
	h := newHarness(3, "cats", "dogs")
	short := h.candidate("cats", "c1")
	h.scraper.batches["cats"] = []clip.CandidateVideo{short, h.candidate("cats", "c2")}
	h.scraper.batches["dogs"] = []clip.CandidateVideo{h.candidate("dogs", "d1"), h.candidate("dogs", "d2")}
	h.prober.durations = map[string]float64{short.Filepath: 1}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TargetMet || res.ClipCount != 3 {
		t.Fatalf("ClipCount = %d, TargetMet = %v, want 3/true", res.ClipCount, res.TargetMet)
	}
	if res.VideoCount != 4 {
		t.Errorf("VideoCount = %d, want 4", res.VideoCount)
	}
	if len(h.store.videoSaves) != 2 || h.store.videoSaves[0] != 2 || h.store.videoSaves[1] != 4 {
		t.Errorf("video counter checkpoints = %v, want [2 4]", h.store.videoSaves)
	}
	wantScraped := []string{"youtube:cats", "youtube:dogs"}
	if len(h.store.scraped) != 2 || h.store.scraped[0] != wantScraped[0] || h.store.scraped[1] != wantScraped[1] {
		t.Errorf("scraped keys = %v, want %v", h.store.scraped, wantScraped)
	}
}

func TestScraperFailureMovesToNextKeyword(t *testing.T) {
	h := newHarness(1, "cats", "dogs")
	h.scraper.errFor["cats"] = errors.New("rate limited")
	h.scraper.batches["dogs"] = []clip.CandidateVideo{h.candidate("dogs", "d1")}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TargetMet || res.ClipCount != 1 {
		t.Fatalf("ClipCount = %d, TargetMet = %v, want 1/true", res.ClipCount, res.TargetMet)
	}
	if len(h.store.scraped) != 1 || h.store.scraped[0] != "youtube:dogs" {
		t.Errorf("failed combination must not be marked scraped, got %v", h.store.scraped)
	}
	if len(h.store.videoSaves) != 1 {
		t.Errorf("video counter checkpoints = %v, want one", h.store.videoSaves)
	}
}

func TestVideoTargetRaisedOnPlateau(t *testing.T) {
	h := newHarness(2, "cats", "dogs")
	h.cfg.Processing.VideoMarginFactor = 1.0
	h.prober.fallback = 1 // every download too short to yield a clip
	h.scraper.batches["cats"] = []clip.CandidateVideo{h.candidate("cats", "c1"), h.candidate("cats", "c2")}
	h.scraper.batches["dogs"] = []clip.CandidateVideo{h.candidate("dogs", "d1"), h.candidate("dogs", "d2")}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.TargetMet {
		t.Fatal("target should not be met")
	}
	if res.VideoCount != 4 {
		t.Errorf("VideoCount = %d, want 4", res.VideoCount)
	}
	// 2 -> 3 after the first batch plateaus, 3 -> 4 after the second.
	if res.VideoTarget != 4 {
		t.Errorf("VideoTarget = %d, want 4", res.VideoTarget)
	}
}

func TestResumeAfterInterruption(t *testing.T) {
	h := newHarness(1, "cats")
	c1 := h.candidate("cats", "c1")
	c2 := h.candidate("cats", "c2")
	h.scraper.batches["cats"] = []clip.CandidateVideo{c1, c2}

	res, err := h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if !res.TargetMet || res.ClipCount != 1 {
		t.Fatalf("first run: ClipCount = %d, TargetMet = %v, want 1/true", res.ClipCount, res.TargetMet)
	}

	// Second run against the same store with a raised target. Both raw files
	// are still on disk; the already-accepted one is rejected as a duplicate.
	h.cfg.Processing.TargetClipCount = 2
	h.fs.videos = []string{c1.Filepath, c2.Filepath}

	res, err = h.service().Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !res.TargetMet || res.ClipCount != 2 {
		t.Fatalf("second run: ClipCount = %d, TargetMet = %v, want 2/true", res.ClipCount, res.TargetMet)
	}
	if len(res.Accepted) != 1 || res.Accepted[0].ClipID != "clip_0001" {
		t.Errorf("second run accepted = %+v, want one clip_0001 record", res.Accepted)
	}
	if len(h.store.fingerprints) != 2 {
		t.Errorf("fingerprint log = %v, want 2 distinct entries", h.store.fingerprints)
	}
	seen := map[string]bool{}
	for _, fp := range h.store.fingerprints {
		if seen[fp] {
			t.Errorf("fingerprint %q accepted twice", fp)
		}
		seen[fp] = true
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	h := newHarness(1)
	h.fs.videos = []string{filepath.Join("raw", "youtube_cat_jumping_a1.mp4")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.service().Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
