package subtitles

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ofir123/go-subs/internal/cache"
	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
	"github.com/ofir123/go-subs/pkg/core/language"
)

// Searcher implements Fetcher over a registry of providers, picking the
// best available subtitle per requested language.
type Searcher struct {
	registry *Registry
	cache    *cache.Cache // nil disables caching
	logger   *logrus.Logger
}

var _ Fetcher = (*Searcher)(nil)

// NewSearcher creates a Searcher. The cache may be nil.
func NewSearcher(registry *Registry, c *cache.Cache, logger *logrus.Logger) *Searcher {
	return &Searcher{registry: registry, cache: c, logger: logger}
}

// Search queries the selected providers for each language in turn and
// returns at most one downloaded candidate per language, in request
// order. Individual provider failures are logged and skipped; Search
// itself fails only when every queried provider failed and nothing was
// found.
func (s *Searcher) Search(ctx context.Context, video *Video, langs []language.Language, providerNames []string) ([]Candidate, error) {
	providers := s.registry.Select(providerNames)

	var results []Candidate
	var searches, failures int
	var lastErr error

	for _, lang := range langs {
		var candidates []Candidate
		for _, p := range providers {
			searches++
			found, err := s.providerSearch(ctx, p, video, lang)
			if err != nil {
				failures++
				lastErr = err
				s.logger.WithError(err).Warnf("Provider %s failed searching %s subtitles for %s",
					p.Name(), lang.Name(), video.Name)
				continue
			}
			candidates = append(candidates, found...)
		}

		best := s.pickAndDownload(ctx, candidates, lang, video)
		if best != nil {
			results = append(results, *best)
		} else {
			s.logger.Infof("No %s subtitles found for %s", lang.Name(), video.Name)
		}
	}

	if len(results) == 0 && searches > 0 && failures == searches {
		return nil, fmt.Errorf("all subtitle providers failed: %w", lastErr)
	}
	return results, nil
}

// providerSearch runs one provider query, going through the response
// cache when one is configured. "No results" is cached too, as an empty
// list.
func (s *Searcher) providerSearch(ctx context.Context, p Provider, video *Video, lang language.Language) ([]Candidate, error) {
	key := fmt.Sprintf("%s/%s/%s", p.Name(), video.CacheKey(), lang.Code3())

	if s.cache != nil {
		var cached []Candidate
		hit, err := s.cache.Get(key, &cached)
		if err != nil {
			s.logger.WithError(err).Debugf("Cache lookup failed for %s", key)
		} else if hit {
			s.logger.Debugf("Cache hit for %s (%d candidates)", key, len(cached))
			return cached, nil
		}
	}

	found, err := p.Search(ctx, video, lang)
	if errors.Is(err, coreErrors.ErrNoResults) {
		found, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(key, found); err != nil {
			s.logger.WithError(err).Debugf("Cache store failed for %s", key)
		}
	}
	return found, nil
}

// pickAndDownload orders candidates (movie-hash matches first, then by
// download count; provider order breaks ties) and downloads the first one
// that actually yields content.
func (s *Searcher) pickAndDownload(ctx context.Context, candidates []Candidate, lang language.Language, video *Video) *Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].HashMatch != candidates[j].HashMatch {
			return candidates[i].HashMatch
		}
		return candidates[i].Downloads > candidates[j].Downloads
	})

	for i := range candidates {
		c := candidates[i]
		providers := s.registry.Select([]string{c.Provider})
		if len(providers) == 0 {
			continue
		}
		content, err := providers[0].Download(ctx, &c)
		if err != nil {
			s.logger.WithError(err).Warnf("Failed downloading %s subtitle %q from %s, trying next",
				lang.Name(), c.Release, c.Provider)
			continue
		}
		c.Content = content
		s.logger.Debugf("Downloaded %s subtitle %q from %s for %s",
			lang.Name(), c.Release, c.Provider, video.Name)
		return &c
	}
	return nil
}
