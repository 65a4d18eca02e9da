// Package subtitles defines the subtitle-fetching capability: scanning a
// path into a video identity and searching providers for matching
// subtitles. The routing/writing core consumes only the Fetcher
// interface; provider protocols stay behind it.
package subtitles

import (
	"context"

	"github.com/ofir123/go-subs/pkg/core/language"
)

// Video identifies a scanned video file. Downstream code treats it as an
// opaque handle: providers read whichever fields help them match, the
// writer only needs Path.
type Video struct {
	Path     string
	Name     string // base file name
	Size     int64
	OSDbHash string // empty when the file is too small to hash

	// Parsed from the release name; zero values when parsing fails.
	Title   string
	Year    int
	Season  int
	Episode int
}

// CacheKey returns a stable identity for provider-response caching.
func (v *Video) CacheKey() string {
	if v.OSDbHash != "" {
		return v.OSDbHash
	}
	return v.Name
}

// IsEpisode reports whether the release name parsed as a TV episode.
func (v *Video) IsEpisode() bool {
	return v.Season > 0 && v.Episode > 0
}

// Candidate is a single subtitle search result. Content stays nil until
// the subtitle is actually downloaded; a candidate whose download yields
// nothing is skipped by the writer, never saved empty.
type Candidate struct {
	Provider  string            `json:"provider"`
	Language  language.Language `json:"language"`
	Release   string            `json:"release"`
	FileID    string            `json:"file_id"` // provider-specific download handle
	Format    string            `json:"format"`  // subtitle extension, e.g. "srt"
	HashMatch bool              `json:"hash_match"`
	Downloads int               `json:"downloads"`

	Content []byte `json:"-"`
}

// Fetcher is the capability the pipeline consumes.
type Fetcher interface {
	// Scan classifies a filesystem path as a video. A non-video path
	// fails with errors.ErrNotAVideo; callers skip the file and continue.
	Scan(path string) (*Video, error)

	// Search finds the best subtitle per requested language, restricted
	// to the named providers (nil means all registered providers, in
	// registry order). Returned candidates carry downloaded content.
	Search(ctx context.Context, video *Video, langs []language.Language, providers []string) ([]Candidate, error)
}

// Provider is one external subtitle source the searcher can query.
type Provider interface {
	Name() string

	// Search returns candidate subtitles for one language, without
	// content. errors.ErrNoResults means the search worked but matched
	// nothing.
	Search(ctx context.Context, video *Video, lang language.Language) ([]Candidate, error)

	// Download fetches the subtitle bytes for a candidate this provider
	// returned.
	Download(ctx context.Context, c *Candidate) ([]byte, error)
}
