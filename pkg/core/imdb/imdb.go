// Package imdb resolves release titles to IMDb IDs through the
// unofficial IMDb suggestion API. Several subtitle sites (wizdom among
// them) index their catalogs by IMDb ID, so the lookup happens before
// their search.
package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// --- Structs for unofficial IMDB Suggestion API ---

// imdbSuggestionResponse mirrors the top-level structure.
type imdbSuggestionResponse struct {
	Version int                  `json:"v"`
	Query   string               `json:"q"`
	Data    []imdbSuggestionItem `json:"d"`
}

// imdbSuggestionItem mirrors the structure of individual suggestions.
// Note: Field names and existence can be inconsistent.
type imdbSuggestionItem struct {
	Label      string `json:"l"`            // Title
	ID         string `json:"id"`           // IMDb ID (e.g., "tt1234567")
	Year       int    `json:"y,omitempty"`  // Primary year field
	YearRange  string `json:"yr,omitempty"` // Sometimes used instead of 'y', "YYYY" or "YYYY-YYYY"
	ResultType string `json:"q,omitempty"`  // e.g., "feature", "TV series", "short"
}

// getYear tries to get the year from either 'y' or parses the start year from 'yr'.
func (item *imdbSuggestionItem) getYear() int {
	if item.Year != 0 {
		return item.Year
	}
	if item.YearRange != "" {
		parts := strings.Split(item.YearRange, "-")
		if len(parts) > 0 {
			if year, err := strconv.Atoi(parts[0]); err == nil {
				return year
			}
		}
	}
	return 0 // Year unknown/unparseable
}

// --- Client Implementation ---

const defaultBaseURL = "https://v3.sg.media-imdb.com"

// Client handles communication with the unofficial IMDB Suggestion API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new IMDB suggestion client.
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// SetBaseURL overrides the API base URL (tests).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Suggestion represents a simplified search result.
type Suggestion struct {
	ID    string // e.g., "tt1234567"
	Title string
	Year  int
}

// Search queries the unofficial IMDB suggestion API for titles matching
// query. The endpoint is undocumented and flaky, so every failure mode is
// non-fatal: the caller just gets an empty result list.
func (c *Client) Search(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) == 0 {
		return nil, nil
	}

	// e.g. https://v3.sg.media-imdb.com/suggestion/titles/t/tron.json
	firstLetter := string(query[0])
	apiURL := fmt.Sprintf("%s/suggestion/titles/%s/%s.json",
		c.baseURL, firstLetter, url.PathEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create imdb suggestion request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("IMDB suggestion request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnf("IMDB suggestion request returned non-OK status: %s", resp.Status)
		return nil, nil
	}

	var imdbResponse imdbSuggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&imdbResponse); err != nil {
		c.logger.WithError(err).Warn("Failed to decode IMDB suggestion response")
		return nil, nil
	}

	output := make([]Suggestion, 0, len(imdbResponse.Data))
	for _, item := range imdbResponse.Data {
		if item.ID == "" || !strings.HasPrefix(item.ID, "tt") || item.Label == "" {
			continue
		}
		output = append(output, Suggestion{
			ID:    item.ID,
			Title: item.Label,
			Year:  item.getYear(),
		})
	}
	return output, nil
}

// Resolve returns the IMDb ID best matching a parsed title/year pair: the
// first suggestion whose year matches, or just the first suggestion when
// no year is known.
func (c *Client) Resolve(ctx context.Context, title string, year int) (string, error) {
	suggestions, err := c.Search(ctx, title)
	if err != nil {
		return "", err
	}
	if len(suggestions) == 0 {
		return "", nil
	}
	if year > 0 {
		for _, s := range suggestions {
			if s.Year == year {
				return s.ID, nil
			}
		}
	}
	return suggestions[0].ID, nil
}
