// Package wizdom implements the subtitle provider backed by wizdom.xyz,
// a Hebrew subtitle site indexed by IMDb ID. Downloads arrive as a zip
// archive wrapping the actual srt file.
package wizdom

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
)

const (
	// Name is the provider's registry name.
	Name = "wizdom"

	DefaultBaseURL = "https://wizdom.xyz/api"
)

var hebrew = language.MustParse("heb")

// Resolver resolves a parsed title/year to an IMDb ID. The imdb package
// provides the real one.
type Resolver interface {
	Resolve(ctx context.Context, title string, year int) (string, error)
}

// Client manages communication with the wizdom API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	resolver   Resolver
	logger     *logrus.Logger
}

var _ subtitles.Provider = (*Client)(nil)

// NewClient creates a wizdom provider client.
func NewClient(resolver Resolver, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		resolver:   resolver,
		logger:     logger,
	}
}

// SetBaseURL overrides the API base URL (tests).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Name implements subtitles.Provider.
func (c *Client) Name() string { return Name }

// searchResult mirrors one entry of the wizdom search response.
type searchResult struct {
	ID          int    `json:"id"`
	VersionName string `json:"versioname"`
}

// Search implements subtitles.Provider. The site only carries Hebrew
// subtitles; any other language is an immediate no-result.
func (c *Client) Search(ctx context.Context, video *subtitles.Video, lang language.Language) ([]subtitles.Candidate, error) {
	if lang != hebrew {
		return nil, coreErrors.ErrNoResults
	}

	imdbID, err := c.resolver.Resolve(ctx, video.Title, video.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IMDb ID for %q: %w", video.Title, err)
	}
	if imdbID == "" {
		c.logger.Debugf("No IMDb ID found for %q, skipping wizdom", video.Title)
		return nil, coreErrors.ErrNoResults
	}

	searchURL := fmt.Sprintf("%s/search?action=by_id&imdb=%s", c.baseURL, imdbID)
	if video.IsEpisode() {
		searchURL += fmt.Sprintf("&season=%d&episode=%d", video.Season, video.Episode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create wizdom search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wizdom search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wizdom search returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode wizdom search response: %w", err)
	}
	if len(results) == 0 {
		return nil, coreErrors.ErrNoResults
	}

	// The site already orders results by match quality. Fake a descending
	// download count so that order survives the searcher's sort.
	candidates := make([]subtitles.Candidate, 0, len(results))
	for i, result := range results {
		candidates = append(candidates, subtitles.Candidate{
			Provider:  Name,
			Language:  lang,
			Release:   result.VersionName,
			FileID:    strconv.Itoa(result.ID),
			Format:    "srt",
			Downloads: len(results) - i,
		})
	}
	return candidates, nil
}

// Download implements subtitles.Provider: fetch the zip for the
// candidate's subtitle ID and extract the srt inside.
func (c *Client) Download(ctx context.Context, candidate *subtitles.Candidate) ([]byte, error) {
	downloadURL := fmt.Sprintf("%s/files/sub/%s", c.baseURL, candidate.FileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create wizdom download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wizdom download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wizdom download returned status %d", resp.StatusCode)
	}

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read wizdom download body: %w", err)
	}
	return extractSubtitle(archive)
}

// extractSubtitle pulls the first subtitle file out of the zip archive.
func extractSubtitle(archive []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("wizdom archive is not a valid zip: %w", err)
	}

	var fallback *zip.File
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(file.Name))
		if ext == ".srt" || ext == ".sub" || ext == ".ass" {
			return readZipFile(file)
		}
		if fallback == nil {
			fallback = file
		}
	}
	if fallback != nil {
		return readZipFile(fallback)
	}
	return nil, fmt.Errorf("wizdom archive contains no subtitle file")
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %q in archive: %w", file.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
