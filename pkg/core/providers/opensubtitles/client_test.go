package opensubtitles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var testVideo = &subtitles.Video{
	Path:     "/movies/My.Movie.2023.1080p.mkv",
	Name:     "My.Movie.2023.1080p.mkv",
	OSDbHash: "8e245d9679d31e12",
	Title:    "My Movie",
	Year:     2023,
}

func TestClient_Search_MapsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subtitles" {
			t.Errorf("Expected path /subtitles, got %s", r.URL.Path)
		}
		if r.Header.Get("Api-Key") != "test-key" {
			t.Errorf("Expected Api-Key header 'test-key', got %q", r.Header.Get("Api-Key"))
		}
		query := r.URL.Query()
		if query.Get("languages") != "he" {
			t.Errorf("Expected languages=he, got %q", query.Get("languages"))
		}
		if query.Get("moviehash") != testVideo.OSDbHash {
			t.Errorf("Expected moviehash=%s, got %q", testVideo.OSDbHash, query.Get("moviehash"))
		}
		if query.Get("query") != "My Movie" {
			t.Errorf("Expected query='My Movie', got %q", query.Get("query"))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"total_count": 2,
			"data": [
				{"id": "1", "attributes": {
					"language": "he", "download_count": 120, "moviehash_match": true,
					"release": "My.Movie.2023.1080p", "format": "srt",
					"files": [{"file_id": 111, "file_name": "a.srt"}]}},
				{"id": "2", "attributes": {
					"language": "he", "download_count": 7, "moviehash_match": false,
					"release": "My.Movie.2023.720p", "format": "",
					"files": [{"file_id": 222, "file_name": "b.srt"}]}}
			]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, testLogger())

	candidates, err := client.Search(context.Background(), testVideo, language.MustParse("heb"))
	if err != nil {
		t.Fatalf("Search returned an unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].FileID != "111" || !candidates[0].HashMatch || candidates[0].Downloads != 120 {
		t.Errorf("First candidate mapped incorrectly: %+v", candidates[0])
	}
	if candidates[1].Format != "srt" {
		t.Errorf("Empty format should default to srt, got %q", candidates[1].Format)
	}
	if candidates[0].Provider != Name {
		t.Errorf("Expected provider %q, got %q", Name, candidates[0].Provider)
	}
}

func TestClient_Search_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count": 0, "data": []}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, testLogger())

	_, err := client.Search(context.Background(), testVideo, language.MustParse("eng"))
	if err != coreErrors.ErrNoResults {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
}

func TestClient_Download_LoginThenLinkFlow(t *testing.T) {
	var loginCalls int
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		loginCalls++
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode login body: %v", err)
		}
		if req["username"] != "user" || req["password"] != "pass" {
			t.Errorf("Unexpected credentials: %v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token": "jwt-token", "status": 200}`)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"link": "%s/content/file.srt", "file_name": "file.srt", "remaining": 99}`, server.URL)
	})
	mux.HandleFunc("/content/file.srt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "subtitle bytes")
	})

	client := NewClient(Config{
		APIKey: "k", Username: "user", Password: "pass", BaseURL: server.URL,
	}, testLogger())

	candidate := &subtitles.Candidate{Provider: Name, FileID: "111"}

	content, err := client.Download(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Download returned an unexpected error: %v", err)
	}
	if string(content) != "subtitle bytes" {
		t.Errorf("Unexpected content: %q", string(content))
	}

	// Second download reuses the session.
	if _, err := client.Download(context.Background(), candidate); err != nil {
		t.Fatalf("Second download failed: %v", err)
	}
	if loginCalls != 1 {
		t.Errorf("Expected exactly one login, got %d", loginCalls)
	}
}

func TestClient_Download_WithoutCredentials(t *testing.T) {
	client := NewClient(Config{APIKey: "k", BaseURL: "http://unused"}, testLogger())

	_, err := client.Download(context.Background(), &subtitles.Candidate{FileID: "1"})
	if err == nil {
		t.Fatal("Expected an error when credentials are missing")
	}
}
