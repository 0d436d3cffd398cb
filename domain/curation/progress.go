package curation

// State is the durable progress of a collection run: counters plus the sets
// of already-handled work units. It is loaded once at startup and mutated
// through the orchestrator, with every mutation checkpointed synchronously
// so a crash loses at most the in-flight candidate.
type State struct {
	ClipCounter  int
	VideoCounter int

	processedVideos map[string]struct{}
	scrapedKeys     map[string]struct{}
}

// NewState builds a State from previously persisted values. Nil slices are
// fine and yield an empty (fresh-run) state.
func NewState(clipCounter, videoCounter int, processedVideos, scrapedKeys []string) *State {
	s := &State{
		ClipCounter:     clipCounter,
		VideoCounter:    videoCounter,
		processedVideos: make(map[string]struct{}, len(processedVideos)),
		scrapedKeys:     make(map[string]struct{}, len(scrapedKeys)),
	}
	for _, v := range processedVideos {
		s.processedVideos[v] = struct{}{}
	}
	for _, k := range scrapedKeys {
		s.scrapedKeys[k] = struct{}{}
	}
	return s
}

// VideoProcessed reports whether the candidate with the given key has
// already been handled in a prior run.
func (s *State) VideoProcessed(key string) bool {
	_, ok := s.processedVideos[key]
	return ok
}

// MarkVideoProcessed records a candidate key in memory. The caller is
// responsible for persisting the same key through the store.
func (s *State) MarkVideoProcessed(key string) {
	s.processedVideos[key] = struct{}{}
}

// ScrapeDone reports whether the given source:keyword combination has
// already yielded a download batch.
func (s *State) ScrapeDone(source, keyword string) bool {
	_, ok := s.scrapedKeys[scrapeKey(source, keyword)]
	return ok
}

// MarkScrapeDone records a source:keyword combination in memory.
func (s *State) MarkScrapeDone(source, keyword string) {
	s.scrapedKeys[scrapeKey(source, keyword)] = struct{}{}
}

func scrapeKey(source, keyword string) string {
	return source + ":" + keyword
}

// Store is the durable backing for State and the fingerprint log. Every
// method checkpoints immediately; none buffers.
type Store interface {
	// Load reads all persisted progress, defaulting to zeros and empty sets
	// when nothing has been written yet.
	Load() (*State, []string, error)

	// SaveClipCounter atomically overwrites the persisted clip counter.
	SaveClipCounter(n int) error

	// SaveVideoCounter atomically overwrites the persisted video counter.
	SaveVideoCounter(n int) error

	// AppendFingerprint adds one fingerprint to the dedup log.
	AppendFingerprint(fp string) error

	// AppendProcessedVideo adds one candidate key to the per-video log.
	AppendProcessedVideo(key string) error

	// AppendScrapedKey adds one source:keyword token to the scrape log.
	AppendScrapedKey(source, keyword string) error
}
