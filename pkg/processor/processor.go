// Package processor runs the subtitle pipeline: scan a video, route each
// requested language to its providers, search, and save the results next
// to the video. All per-file failures are contained here so one bad file
// never aborts a directory walk.
package processor

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/reverse"
	"github.com/ofir123/go-subs/pkg/core/routing"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
)

// Writer persists downloaded candidates for a video.
type Writer interface {
	Save(video *subtitles.Video, candidates []subtitles.Candidate) ([]string, error)
}

// Options tune a Processor.
type Options struct {
	// Preferences routes languages to their preferred providers.
	Preferences routing.Preferences
	// Providers restricts every search to these provider names.
	Providers []string
	// Backwards reverses non-ASCII text in every saved subtitle.
	Backwards bool
}

// Processor handles the per-file pipeline and directory traversal.
type Processor struct {
	fetcher subtitles.Fetcher
	writer  Writer
	opts    Options
	logger  *log.Logger
}

// New creates a Processor.
func New(fetcher subtitles.Fetcher, writer Writer, opts Options, logger *log.Logger) *Processor {
	return &Processor{
		fetcher: fetcher,
		writer:  writer,
		opts:    opts,
		logger:  logger,
	}
}

// FindSubtitles runs the pipeline on a file or directory path.
func (p *Processor) FindSubtitles(ctx context.Context, path string, langs []language.Language, isDir bool) ([]string, error) {
	if isDir {
		return p.FindDirectorySubtitles(ctx, path, langs)
	}
	return p.FindFileSubtitles(ctx, path, langs), nil
}

// FindFileSubtitles finds and saves subtitles for one video file,
// returning the created subtitle paths. Every failure is recoverable at
// this level: non-videos are skipped quietly, provider and write errors
// are logged and swallowed.
func (p *Processor) FindFileSubtitles(ctx context.Context, path string, langs []language.Language) []string {
	video, err := p.fetcher.Scan(path)
	if errors.Is(err, coreErrors.ErrNotAVideo) {
		p.logger.Debugf("Not a video file: %s. Moving on...", path)
		return nil
	}
	if err != nil {
		p.logger.WithError(err).Warnf("Failed to scan %s. Moving on...", path)
		return nil
	}

	p.logger.Infof("Searching subtitles for file: %s", path)

	routed, defaults := routing.Partition(langs, p.opts.Preferences, p.opts.Providers)

	var candidates []subtitles.Candidate
	for _, q := range routed {
		found, err := p.fetcher.Search(ctx, video, []language.Language{q.Language}, q.Providers)
		if err != nil {
			p.logger.WithError(err).Errorf("Error while searching %s subtitles for %s. Moving on...",
				q.Language.Name(), video.Name)
			continue
		}
		candidates = append(candidates, found...)
	}
	if len(defaults) > 0 {
		found, err := p.fetcher.Search(ctx, video, defaults, p.opts.Providers)
		if err != nil {
			p.logger.WithError(err).Errorf("Error while searching subtitles for %s. Moving on...", video.Name)
		} else {
			candidates = append(candidates, found...)
		}
	}

	if len(candidates) == 0 {
		p.logger.Infof("No subtitles were found for %s. Moving on...", video.Name)
		return nil
	}
	p.logger.Infof("Found %d subtitles for %s. Saving files...", len(candidates), video.Name)

	saved, err := p.writer.Save(video, candidates)
	if err != nil {
		// One bad write shouldn't abort the walk; the files saved before
		// the failure are still reported.
		p.logger.WithError(err).Errorf("Failed saving subtitles for %s. Moving on...", video.Name)
	}

	if p.opts.Backwards {
		p.reverseSaved(saved)
	}
	return saved
}

// FindDirectorySubtitles finds subtitles for every video under root,
// including nested sub-directories, aggregating the created paths in
// traversal order.
func (p *Processor) FindDirectorySubtitles(ctx context.Context, root string, langs []language.Language) ([]string, error) {
	p.logger.Infof("Searching subtitles for directory: %s", root)

	var results []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			p.logger.Warnf("Error accessing path %q: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		results = append(results, p.FindFileSubtitles(ctx, path, langs)...)
		return nil
	})
	return results, err
}

// reverseSaved flips right-to-left text in the saved files.
func (p *Processor) reverseSaved(paths []string) {
	for _, path := range paths {
		p.logger.Infof("Reversing non-English strings in %s...", path)
		if err := reverse.File(path); err != nil {
			p.logger.WithError(err).Errorf("Failed reversing %s", path)
		}
	}
}
