package acquisition

import (
	"context"

	"clip-curator/domain/clip"
)

// Scraper is the capability the curation core expects from an acquisition
// collaborator: given a keyword, return metadata for video files already
// saved under downloadDir. Network details, rate limiting, and search-result
// parsing live entirely behind this interface.
type Scraper interface {
	// Name identifies the source this scraper pulls from ("youtube",
	// "tiktok", ...). It becomes the source segment of raw filenames.
	Name() string

	// SearchAndDownload fetches up to the configured per-keyword limit of
	// videos matching keyword into downloadDir and returns their metadata.
	SearchAndDownload(ctx context.Context, keyword string, downloadDir string) ([]clip.CandidateVideo, error)
}
