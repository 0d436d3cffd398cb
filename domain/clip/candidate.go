package clip

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CandidateVideo is a locally saved, not-yet-verified video file together
// with the metadata the acquisition side knows about it.
type CandidateVideo struct {
	ID          string
	Filepath    string
	Keyword     string
	Source      string
	OriginalURL string
}

// Key returns the durable identity used by the progress store to mark this
// candidate as processed. Two downloads of the same platform video collapse
// onto the same key.
func (c CandidateVideo) Key() string {
	return c.Source + "_" + c.ID
}

// RawFilename returns the on-disk name the acquisition side uses for this
// candidate: {source}_{keyword with underscores}_{id}.ext
func (c CandidateVideo) RawFilename(ext string) string {
	return fmt.Sprintf("%s_%s_%s%s", c.Source, strings.ReplaceAll(c.Keyword, " ", "_"), c.ID, ext)
}

// ParseRawFilename recovers a CandidateVideo from a raw download filename.
// The name must have at least three underscore-delimited segments: the first
// is the source, the last is the video id, and everything in between is the
// keyword.
func ParseRawFilename(path string) (CandidateVideo, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return CandidateVideo{}, fmt.Errorf("filename %q does not match {source}_{keyword}_{id} convention", base)
	}

	return CandidateVideo{
		ID:       parts[len(parts)-1],
		Filepath: path,
		Keyword:  strings.Join(parts[1:len(parts)-1], " "),
		Source:   parts[0],
	}, nil
}
