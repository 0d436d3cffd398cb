package curation

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/rs/zerolog"

	"clip-curator/domain/acquisition"
	"clip-curator/domain/clip"
	"clip-curator/domain/curation"
	"clip-curator/domain/detection"
	"clip-curator/infrastructure/config"
	"clip-curator/infrastructure/logging"
)

// FileOps abstracts the filesystem operations the orchestrator needs
type FileOps interface {
	Exists(path string) bool
	Move(src, dst string) error
	Remove(path string) error
	ListVideos(dir string) ([]string, error)
	CountClips(datasetDir string) (int, error)
}

// Service drives the full curation run: per-candidate gating, progress
// checkpointing, and target-driven acquisition.
type Service struct {
	prober        clip.DurationProber
	detector      detection.WatermarkDetector
	extractor     clip.Extractor
	fingerprinter clip.Fingerprinter
	store         curation.Store
	fs            FileOps
	scrapers      []acquisition.Scraper
	cfg           *config.Config
	logger        zerolog.Logger

	state            *curation.State
	dedup            *curation.DedupIndex
	targetVideoCount int
	records          []clip.ClipRecord
}

// NewService creates a new curation service
func NewService(
	prober clip.DurationProber,
	detector detection.WatermarkDetector,
	extractor clip.Extractor,
	fingerprinter clip.Fingerprinter,
	store curation.Store,
	fs FileOps,
	scrapers []acquisition.Scraper,
	cfg *config.Config,
) *Service {
	return &Service{
		prober:        prober,
		detector:      detector,
		extractor:     extractor,
		fingerprinter: fingerprinter,
		store:         store,
		fs:            fs,
		scrapers:      scrapers,
		cfg:           cfg,
		logger:        logging.WithComponent("curation"),
	}
}

// Result summarizes a completed run
type Result struct {
	// Accepted lists the clips accepted during this run, in order.
	Accepted []clip.ClipRecord

	// ClipCount is the total number of verified clips, including clips from
	// prior runs.
	ClipCount int

	// VideoCount is the total number of downloaded videos across runs.
	VideoCount int

	// VideoTarget is the adaptive download target after any margin raises.
	VideoTarget int

	// TargetMet reports whether the clip target was reached.
	TargetMet bool
}

// Run executes one resumable collection pass. It can be interrupted at any
// point and re-invoked; committed progress is never reprocessed once the
// clip target is met.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if err := s.initState(); err != nil {
		return nil, err
	}

	target := s.cfg.Processing.TargetClipCount
	if s.state.ClipCounter >= target {
		s.logger.Info().Int("clips", s.state.ClipCounter).Int("target", target).Msg("clip target already satisfied")
		return s.result(), nil
	}

	s.targetVideoCount = int(math.Ceil(float64(target) * s.cfg.Processing.VideoMarginFactor))
	if s.targetVideoCount < target {
		s.targetVideoCount = target
	}

	if err := s.replayExisting(ctx); err != nil {
		return nil, err
	}
	if s.targetMet() {
		return s.result(), nil
	}

	if err := s.acquireMore(ctx); err != nil {
		return nil, err
	}

	res := s.result()
	if !res.TargetMet {
		s.logger.Warn().
			Int("clips", res.ClipCount).
			Int("target", target).
			Msg("all source and keyword combinations exhausted before reaching target")
	}
	return res, nil
}

// initState loads durable progress and reconciles the clip counter against
// the clips actually on disk. The counter only moves up: the disk count
// wins when the progress directory was lost, the counter wins when clips
// were archived away.
func (s *Service) initState() error {
	state, hashes, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	s.state = state
	s.dedup = curation.NewDedupIndex(hashes, s.store)

	existing, err := s.fs.CountClips(s.cfg.Paths.DatasetDir)
	if err != nil {
		return fmt.Errorf("count existing clips: %w", err)
	}
	if existing > s.state.ClipCounter {
		s.logger.Info().Int("on_disk", existing).Int("counter", s.state.ClipCounter).Msg("adopting on-disk clip count")
		s.state.ClipCounter = existing
		if err := s.store.SaveClipCounter(existing); err != nil {
			return fmt.Errorf("checkpoint clip counter: %w", err)
		}
	}

	s.logger.Info().
		Int("clips", s.state.ClipCounter).
		Int("videos", s.state.VideoCounter).
		Int("fingerprints", s.dedup.Len()).
		Msg("progress loaded")
	return nil
}

// replayExisting runs the per-video pipeline over raw downloads left over
// from a prior interrupted run.
func (s *Service) replayExisting(ctx context.Context) error {
	files, err := s.fs.ListVideos(s.cfg.Paths.DownloadsDir)
	if err != nil {
		return fmt.Errorf("scan downloads: %w", err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		candidate, err := clip.ParseRawFilename(path)
		if err != nil {
			s.logger.Warn().Str("path", path).Msg("unrecognized raw filename, skipping")
			continue
		}

		if s.state.VideoProcessed(candidate.Key()) && s.targetMet() {
			continue
		}

		s.processCandidate(ctx, candidate)
		if err := s.store.SaveClipCounter(s.state.ClipCounter); err != nil {
			return fmt.Errorf("checkpoint clip counter: %w", err)
		}
		if s.targetMet() {
			return nil
		}
	}
	return nil
}

// acquireMore iterates source x keyword combinations, downloading fresh
// candidates and feeding them through the pipeline until the clip target is
// met or the combinations run out.
func (s *Service) acquireMore(ctx context.Context) error {
	for _, scraper := range s.scrapers {
		for _, keyword := range s.cfg.Scraper.Keywords {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.targetMet() {
				return nil
			}
			// Already-scraped combinations are replayed while the clip
			// target is unmet: previously fetched results can still yield
			// more distinct clips.
			if s.state.ScrapeDone(scraper.Name(), keyword) && s.targetMet() {
				continue
			}

			batch, err := scraper.SearchAndDownload(ctx, keyword, s.cfg.Paths.DownloadsDir)
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("source", scraper.Name()).
					Str("keyword", keyword).
					Msg("acquisition failed, moving to next keyword")
				continue
			}

			s.state.VideoCounter += len(batch)
			if err := s.store.SaveVideoCounter(s.state.VideoCounter); err != nil {
				return fmt.Errorf("checkpoint video counter: %w", err)
			}
			s.state.MarkScrapeDone(scraper.Name(), keyword)
			if err := s.store.AppendScrapedKey(scraper.Name(), keyword); err != nil {
				return fmt.Errorf("checkpoint scrape key: %w", err)
			}

			for _, candidate := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				if s.state.VideoProcessed(candidate.Key()) && s.targetMet() {
					continue
				}
				s.processCandidate(ctx, candidate)
				if err := s.store.SaveClipCounter(s.state.ClipCounter); err != nil {
					return fmt.Errorf("checkpoint clip counter: %w", err)
				}
				if s.targetMet() {
					return nil
				}
			}

			// Downloads plateaued below the clip target: the assumed yield
			// rate was too optimistic, so widen the margin and keep going.
			if s.state.VideoCounter >= s.targetVideoCount && !s.targetMet() {
				s.targetVideoCount = s.targetVideoCount * 3 / 2
				s.logger.Info().
					Int("video_count", s.state.VideoCounter).
					Int("new_target", s.targetVideoCount).
					Msg("raising video target by 50%")
			}
		}
	}
	return nil
}

// processCandidate runs one candidate through the gates: duration check,
// watermark check, extraction, dedup. Any failure, expected or not, rejects
// the candidate without aborting the run.
func (s *Service) processCandidate(ctx context.Context, candidate clip.CandidateVideo) (accepted bool) {
	log := s.logger.With().
		Str("source", candidate.Source).
		Str("id", candidate.ID).
		Str("keyword", candidate.Keyword).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("candidate processing failed, rejecting")
			accepted = false
		}
	}()

	total := s.prober.Duration(ctx, candidate.Filepath)
	if total < s.cfg.Processing.MinClipDuration {
		log.Info().Float64("duration", total).Msg("rejected: too short")
		return false
	}

	if s.cfg.Processing.DetectWatermarks && s.detector.HasWatermark(ctx, candidate.Filepath) {
		log.Info().Msg("rejected: watermark detected")
		return false
	}

	ext := filepath.Ext(candidate.Filepath)
	tmpPath := filepath.Join(s.cfg.Paths.DownloadsDir, "trimmed_"+candidate.ID+ext)

	_, duration, err := s.extractor.Extract(ctx, candidate.Filepath, tmpPath, s.cfg.Processing.ClipDuration)
	if err != nil {
		log.Warn().Err(err).Msg("rejected: extraction failed")
		return false
	}
	if duration < s.cfg.Processing.MinClipDuration {
		log.Info().Float64("duration", duration).Msg("rejected: clip below minimum duration")
		s.discard(tmpPath)
		return false
	}

	fp, err := s.fingerprinter.Fingerprint(ctx, tmpPath)
	if err != nil {
		log.Warn().Err(err).Msg("fingerprinting failed")
		fp = ""
	}
	if s.dedup.IsDuplicate(fp) {
		log.Info().Str("fingerprint", fp).Msg("rejected: duplicate content")
		s.discard(tmpPath)
		return false
	}

	clipID := clip.ClipID(s.state.ClipCounter)
	tag := clip.NormalizeTag(candidate.Keyword)
	finalPath := clip.ClipPath(s.cfg.Paths.DatasetDir, tag, clipID, ext)

	if err := s.fs.Move(tmpPath, finalPath); err != nil {
		log.Error().Err(err).Str("dest", finalPath).Msg("rejected: could not place clip")
		s.discard(tmpPath)
		return false
	}
	if err := s.dedup.Record(fp); err != nil {
		log.Error().Err(err).Msg("could not persist fingerprint")
	}

	s.state.ClipCounter++
	s.state.MarkVideoProcessed(candidate.Key())
	if err := s.store.AppendProcessedVideo(candidate.Key()); err != nil {
		log.Error().Err(err).Msg("could not persist processed video id")
	}

	s.records = append(s.records, clip.ClipRecord{
		ClipID:      clipID,
		Path:        finalPath,
		Tag:         tag,
		Duration:    duration,
		Source:      candidate.Source,
		Keyword:     candidate.Keyword,
		OriginalURL: candidate.OriginalURL,
		Fingerprint: fp,
	})

	log.Info().Str("clip_id", clipID).Float64("duration", duration).Msg("accepted clip")
	return true
}

func (s *Service) discard(path string) {
	if err := s.fs.Remove(path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("could not remove rejected clip")
	}
}

func (s *Service) targetMet() bool {
	return s.state.ClipCounter >= s.cfg.Processing.TargetClipCount
}

func (s *Service) result() *Result {
	return &Result{
		Accepted:    s.records,
		ClipCount:   s.state.ClipCounter,
		VideoCount:  s.state.VideoCounter,
		VideoTarget: s.targetVideoCount,
		TargetMet:   s.targetMet(),
	}
}
