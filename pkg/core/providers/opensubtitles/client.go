// Package opensubtitles implements the subtitle provider backed by the
// OpenSubtitles REST API (api.opensubtitles.com).
package opensubtitles

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ofir123/go-subs/internal/httpclient"
	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
)

const (
	// Name is the provider's registry name.
	Name = "opensubtitles"

	DefaultBaseURL   = "https://api.opensubtitles.com/api/v1"
	DefaultUserAgent = "go-subs v1.0"
)

// Config carries the OpenSubtitles credentials. Downloads require a
// registered account; search works with just the API key.
type Config struct {
	APIKey   string
	Username string
	Password string
	BaseURL  string // defaults to DefaultBaseURL
}

// Client manages communication with the OpenSubtitles API.
type Client struct {
	http   *httpclient.Client
	logger *logrus.Logger

	username string
	password string

	loginMu  sync.Mutex
	loggedIn bool
}

var _ subtitles.Provider = (*Client)(nil)

// NewClient creates an OpenSubtitles provider client.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:     httpclient.New(baseURL, cfg.APIKey, DefaultUserAgent),
		logger:   logger,
		username: cfg.Username,
		password: cfg.Password,
	}
}

// Name implements subtitles.Provider.
func (c *Client) Name() string { return Name }

// --- API structs ---

type searchParams struct {
	Languages     string `url:"languages,omitempty"`
	Moviehash     string `url:"moviehash,omitempty"`
	Query         string `url:"query,omitempty"`
	Year          int    `url:"year,omitempty"`
	SeasonNumber  int    `url:"season_number,omitempty"`
	EpisodeNumber int    `url:"episode_number,omitempty"`
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
	Data       []struct {
		ID         string `json:"id"`
		Attributes struct {
			Language       string  `json:"language"`
			DownloadCount  int     `json:"download_count"`
			MoviehashMatch bool    `json:"moviehash_match"`
			Release        string  `json:"release"`
			Format         string  `json:"format"`
			Ratings        float64 `json:"ratings"`
			Files          []struct {
				FileID   int    `json:"file_id"`
				FileName string `json:"file_name"`
			} `json:"files"`
		} `json:"attributes"`
	} `json:"data"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	Status int    `json:"status"`
}

type downloadRequest struct {
	FileID int `json:"file_id"`
}

type downloadResponse struct {
	Link      string `json:"link"`
	FileName  string `json:"file_name"`
	Remaining int    `json:"remaining"`
}

// --- Provider methods ---

// Search implements subtitles.Provider. It matches by movie hash when the
// video has one, plus the parsed release name.
func (c *Client) Search(ctx context.Context, video *subtitles.Video, lang language.Language) ([]subtitles.Candidate, error) {
	params := searchParams{
		Languages: lang.Code2(),
		Moviehash: video.OSDbHash,
		Query:     video.Title,
		Year:      video.Year,
	}
	if video.IsEpisode() {
		params.SeasonNumber = video.Season
		params.EpisodeNumber = video.Episode
	}

	var resp searchResponse
	if err := c.http.Get(ctx, "/subtitles", params, &resp); err != nil {
		return nil, fmt.Errorf("opensubtitles search failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, coreErrors.ErrNoResults
	}

	candidates := make([]subtitles.Candidate, 0, len(resp.Data))
	for _, sub := range resp.Data {
		if len(sub.Attributes.Files) == 0 {
			continue
		}
		format := strings.ToLower(sub.Attributes.Format)
		if format == "" {
			format = "srt"
		}
		candidates = append(candidates, subtitles.Candidate{
			Provider:  Name,
			Language:  lang,
			Release:   sub.Attributes.Release,
			FileID:    strconv.Itoa(sub.Attributes.Files[0].FileID),
			Format:    format,
			HashMatch: sub.Attributes.MoviehashMatch,
			Downloads: sub.Attributes.DownloadCount,
		})
	}
	if len(candidates) == 0 {
		return nil, coreErrors.ErrNoResults
	}
	return candidates, nil
}

// Download implements subtitles.Provider: request a temporary link for
// the candidate's file, then fetch the subtitle bytes from it.
func (c *Client) Download(ctx context.Context, candidate *subtitles.Candidate) ([]byte, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}

	fileID, err := strconv.Atoi(candidate.FileID)
	if err != nil {
		return nil, fmt.Errorf("invalid opensubtitles file ID %q: %w", candidate.FileID, err)
	}

	var resp downloadResponse
	if err := c.http.Post(ctx, "/download", downloadRequest{FileID: fileID}, &resp); err != nil {
		return nil, fmt.Errorf("opensubtitles download request failed: %w", err)
	}
	c.logger.Debugf("OpenSubtitles downloads remaining: %d", resp.Remaining)

	content, err := c.http.GetRaw(ctx, resp.Link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subtitle from download link: %w", err)
	}
	return content, nil
}

// ensureLogin authenticates once per process. Downloads need the JWT; the
// rest of the API only needs the key.
func (c *Client) ensureLogin(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if c.loggedIn {
		return nil
	}
	if c.username == "" || c.password == "" {
		return fmt.Errorf("%w: opensubtitles username/password not configured", coreErrors.ErrNotLoggedIn)
	}

	var resp loginResponse
	err := c.http.Post(ctx, "/login", loginRequest{Username: c.username, Password: c.password}, &resp)
	if err != nil {
		return fmt.Errorf("opensubtitles login failed: %w", err)
	}

	token := resp.Token
	c.http.SetAuthToken(&token)
	c.loggedIn = true
	c.logger.Debug("Logged in to OpenSubtitles")
	return nil
}
