package subtitles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"

	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
)

// Known video extensions
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".m4v": true, ".mpg": true, ".mpeg": true, ".webm": true,
	".ts": true,
}

// Scan classifies path as a video file and builds its identity: size,
// OSDb hash and whatever the release name parses into. Non-video paths
// (wrong extension, directories, missing files) fail with ErrNotAVideo.
func (s *Searcher) Scan(path string) (*Video, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%q: %w", path, coreErrors.ErrNotAVideo)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !videoExtensions[ext] {
		return nil, fmt.Errorf("%q: %w", path, coreErrors.ErrNotAVideo)
	}

	video := &Video{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
	}

	hash, _, err := OSDbHash(path)
	if err != nil {
		// Sample files and stubs are smaller than the two hash chunks.
		// Providers can still match by name, so the scan goes on.
		s.logger.WithError(err).Debugf("Skipping movie hash for %s", video.Name)
	} else {
		video.OSDbHash = hash
	}

	parsed, err := ptn.Parse(video.Name)
	if err != nil {
		s.logger.Warnf("Failed to parse video filename %q: %v", video.Name, err)
		base := strings.TrimSuffix(video.Name, ext)
		video.Title = strings.ReplaceAll(base, ".", " ")
	} else {
		video.Title = parsed.Title
		video.Year = parsed.Year
		video.Season = parsed.Season
		video.Episode = parsed.Episode
	}

	return video, nil
}
