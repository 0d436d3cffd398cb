package curation

// FingerprintLog is the durable side of the dedup index: an append-only log
// of accepted fingerprints.
type FingerprintLog interface {
	AppendFingerprint(fp string) error
}

// DedupIndex maps clip fingerprints to "already present". Membership is
// exact-match only; the fingerprint is content-derived but no similarity
// search is performed.
type DedupIndex struct {
	seen map[string]struct{}
	log  FingerprintLog
}

// NewDedupIndex builds an index over previously accepted fingerprints.
func NewDedupIndex(known []string, log FingerprintLog) *DedupIndex {
	idx := &DedupIndex{
		seen: make(map[string]struct{}, len(known)),
		log:  log,
	}
	for _, fp := range known {
		if fp != "" {
			idx.seen[fp] = struct{}{}
		}
	}
	return idx
}

// IsDuplicate reports whether a clip with this fingerprint was already
// accepted. An empty fingerprint means the content could not be assessed
// and is treated as a duplicate: unknown content is never trusted to be
// unique.
func (d *DedupIndex) IsDuplicate(fp string) bool {
	if fp == "" {
		return true
	}
	_, ok := d.seen[fp]
	return ok
}

// Record accepts a fingerprint into the index and appends it to the durable
// log. The in-memory set is updated even if the log write fails, so the
// current run never double-accepts.
func (d *DedupIndex) Record(fp string) error {
	d.seen[fp] = struct{}{}
	return d.log.AppendFingerprint(fp)
}

// Len reports the number of distinct accepted fingerprints.
func (d *DedupIndex) Len() int {
	return len(d.seen)
}
