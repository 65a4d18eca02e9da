// Package providers assembles the concrete provider clients into a
// registry, keeping the wiring (IMDb resolver, credentials) in one place.
package providers

import (
	"github.com/sirupsen/logrus"

	"github.com/ofir123/go-subs/pkg/core/imdb"
	"github.com/ofir123/go-subs/pkg/core/providers/opensubtitles"
	"github.com/ofir123/go-subs/pkg/core/providers/wizdom"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
)

// Config carries provider credentials.
type Config struct {
	OpenSubtitles opensubtitles.Config
}

// NewRegistry builds the default provider registry. The order here is
// the default search order when the user restricts nothing.
func NewRegistry(cfg Config, logger *logrus.Logger) *subtitles.Registry {
	resolver := imdb.NewClient(logger)
	return subtitles.NewRegistry(
		opensubtitles.NewClient(cfg.OpenSubtitles, logger),
		wizdom.NewClient(resolver, logger),
	)
}
