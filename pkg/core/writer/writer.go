// Package writer persists downloaded subtitles next to their video file.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
)

// Writer saves subtitle candidates beside their source video.
type Writer struct {
	logger *logrus.Logger
}

// New creates a Writer.
func New(logger *logrus.Logger) *Writer {
	return &Writer{logger: logger}
}

// SubtitlePath computes where a subtitle for the given video and language
// is saved: the video path with its extension replaced by
// ".<lang>.<format>" (e.g. movie.mkv -> movie.heb.srt).
func SubtitlePath(videoPath string, lang language.Language, format string) string {
	if format == "" {
		format = "srt"
	}
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return base + "." + lang.Code3() + "." + format
}

// Save writes the candidates in order, one file per language. Candidates
// without content are skipped, and so is any candidate for a language
// already saved in this pass (first-seen wins). Bytes are written
// verbatim, overwriting whatever is at the destination. Returns the
// created paths; a write failure stops the pass and is reported with the
// paths saved so far.
func (w *Writer) Save(video *subtitles.Video, candidates []subtitles.Candidate) ([]string, error) {
	var saved []string
	savedLanguages := make(map[language.Language]bool)

	for _, c := range candidates {
		if len(c.Content) == 0 {
			w.logger.Debugf("Skipping %s subtitle %q: no content", c.Language.Name(), c.Release)
			continue
		}
		if savedLanguages[c.Language] {
			w.logger.Debugf("Skipping %s subtitle %q: language already saved", c.Language.Name(), c.Release)
			continue
		}

		path := SubtitlePath(video.Path, c.Language, c.Format)
		w.logger.Infof("Saving %s subtitle from %s to: %s", c.Language.Name(), c.Provider, path)
		if err := os.WriteFile(path, c.Content, 0644); err != nil {
			return saved, fmt.Errorf("failed to write subtitle %q: %w", path, err)
		}

		savedLanguages[c.Language] = true
		saved = append(saved, path)
	}
	return saved, nil
}
