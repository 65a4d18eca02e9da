package processor_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/ofir123/go-subs/pkg/core/routing"
	"github.com/ofir123/go-subs/pkg/core/subtitles"
	"github.com/ofir123/go-subs/pkg/core/writer"
	"github.com/ofir123/go-subs/pkg/processor"
)

var (
	heb = language.MustParse("heb")
	eng = language.MustParse("eng")
)

// --- Mocks for the fetcher and writer interfaces --- //

type searchCall struct {
	langs     []language.Language
	providers []string
}

type mockFetcher struct {
	ScanFunc   func(path string) (*subtitles.Video, error)
	SearchFunc func(ctx context.Context, video *subtitles.Video, langs []language.Language, providers []string) ([]subtitles.Candidate, error)

	searches []searchCall
}

var _ subtitles.Fetcher = (*mockFetcher)(nil)

func (m *mockFetcher) Scan(path string) (*subtitles.Video, error) {
	if m.ScanFunc != nil {
		return m.ScanFunc(path)
	}
	return scanByExtension(path)
}

func (m *mockFetcher) Search(ctx context.Context, video *subtitles.Video, langs []language.Language, providers []string) ([]subtitles.Candidate, error) {
	m.searches = append(m.searches, searchCall{langs: langs, providers: providers})
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, video, langs, providers)
	}
	return nil, nil
}

// scanByExtension is the default mock scan: .mkv files are videos,
// everything else isn't.
func scanByExtension(path string) (*subtitles.Video, error) {
	if !strings.HasSuffix(path, ".mkv") {
		return nil, coreErrors.ErrNotAVideo
	}
	return &subtitles.Video{Path: path, Name: filepath.Base(path)}, nil
}

type mockWriter struct {
	SaveFunc func(video *subtitles.Video, candidates []subtitles.Candidate) ([]string, error)
}

func (m *mockWriter) Save(video *subtitles.Video, candidates []subtitles.Candidate) ([]string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(video, candidates)
	}
	var paths []string
	for _, c := range candidates {
		paths = append(paths, writer.SubtitlePath(video.Path, c.Language, c.Format))
	}
	return paths, nil
}

// --- End Mocks --- //

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func oneCandidate(lang language.Language) []subtitles.Candidate {
	return []subtitles.Candidate{{
		Provider: "opensubtitles",
		Language: lang,
		Format:   "srt",
		Content:  []byte("content"),
	}}
}

func TestFindFileSubtitles_RoutedLanguagesQueriedBeforeDefaults(t *testing.T) {
	fetcher := &mockFetcher{
		SearchFunc: func(_ context.Context, _ *subtitles.Video, langs []language.Language, _ []string) ([]subtitles.Candidate, error) {
			return oneCandidate(langs[0]), nil
		},
	}
	opts := processor.Options{
		Preferences: routing.Preferences{heb: {"wizdom", "thewiz", "subscenter"}},
	}
	p := processor.New(fetcher, &mockWriter{}, opts, discardLogger())

	saved := p.FindFileSubtitles(context.Background(), "/movies/a.mkv", []language.Language{eng, heb})

	require.Len(t, fetcher.searches, 2)
	// heb goes first, restricted to its preferred providers.
	assert.Equal(t, []language.Language{heb}, fetcher.searches[0].langs)
	assert.Equal(t, []string{"wizdom", "thewiz", "subscenter"}, fetcher.searches[0].providers)
	// eng is queried afterwards with no restriction.
	assert.Equal(t, []language.Language{eng}, fetcher.searches[1].langs)
	assert.Nil(t, fetcher.searches[1].providers)

	require.Len(t, saved, 2)
	assert.Contains(t, saved[0], ".heb.")
	assert.Contains(t, saved[1], ".eng.")
}

func TestFindFileSubtitles_AllowListNarrowsRouting(t *testing.T) {
	fetcher := &mockFetcher{}
	opts := processor.Options{
		Preferences: routing.Preferences{heb: {"wizdom"}},
		Providers:   []string{"opensubtitles"},
	}
	p := processor.New(fetcher, &mockWriter{}, opts, discardLogger())

	p.FindFileSubtitles(context.Background(), "/movies/a.mkv", []language.Language{heb, eng})

	// heb's preference intersected with the allow-list is empty, so both
	// languages go out in a single default query against the allow-list.
	require.Len(t, fetcher.searches, 1)
	assert.Equal(t, []language.Language{heb, eng}, fetcher.searches[0].langs)
	assert.Equal(t, []string{"opensubtitles"}, fetcher.searches[0].providers)
}

func TestFindFileSubtitles_NonVideoIsSkippedQuietly(t *testing.T) {
	fetcher := &mockFetcher{}
	p := processor.New(fetcher, &mockWriter{}, processor.Options{}, discardLogger())

	saved := p.FindFileSubtitles(context.Background(), "/movies/readme.txt", []language.Language{eng})

	assert.Empty(t, saved)
	assert.Empty(t, fetcher.searches, "non-video files must not trigger a search")
}

func TestFindFileSubtitles_ScanErrorIsRecoverable(t *testing.T) {
	fetcher := &mockFetcher{
		ScanFunc: func(string) (*subtitles.Video, error) {
			return nil, errors.New("permission denied")
		},
	}
	p := processor.New(fetcher, &mockWriter{}, processor.Options{}, discardLogger())

	saved := p.FindFileSubtitles(context.Background(), "/movies/a.mkv", []language.Language{eng})

	assert.Empty(t, saved)
	assert.Empty(t, fetcher.searches)
}

func TestFindFileSubtitles_SearchFailureMeansZeroResults(t *testing.T) {
	fetcher := &mockFetcher{
		SearchFunc: func(context.Context, *subtitles.Video, []language.Language, []string) ([]subtitles.Candidate, error) {
			return nil, errors.New("all providers down")
		},
	}
	p := processor.New(fetcher, &mockWriter{}, processor.Options{}, discardLogger())

	saved := p.FindFileSubtitles(context.Background(), "/movies/a.mkv", []language.Language{eng})

	assert.Empty(t, saved)
}

func TestFindFileSubtitles_WriteFailureIsContained(t *testing.T) {
	fetcher := &mockFetcher{
		SearchFunc: func(_ context.Context, _ *subtitles.Video, langs []language.Language, _ []string) ([]subtitles.Candidate, error) {
			return oneCandidate(langs[0]), nil
		},
	}
	failing := &mockWriter{
		SaveFunc: func(*subtitles.Video, []subtitles.Candidate) ([]string, error) {
			return []string{"/movies/partial.eng.srt"}, errors.New("disk full")
		},
	}
	p := processor.New(fetcher, failing, processor.Options{}, discardLogger())

	saved := p.FindFileSubtitles(context.Background(), "/movies/a.mkv", []language.Language{eng})

	// The failure is logged, not propagated; partial results survive.
	assert.Equal(t, []string{"/movies/partial.eng.srt"}, saved)
}

func TestFindDirectorySubtitles_MixedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movie.mkv"), []byte("v"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0644))

	fetcher := &mockFetcher{
		SearchFunc: func(_ context.Context, _ *subtitles.Video, langs []language.Language, _ []string) ([]subtitles.Candidate, error) {
			return oneCandidate(langs[0]), nil
		},
	}
	p := processor.New(fetcher, &mockWriter{}, processor.Options{}, discardLogger())

	results, err := p.FindDirectorySubtitles(context.Background(), dir, []language.Language{eng})
	require.NoError(t, err)

	// Exactly one result: the video. The text file produced neither an
	// entry nor an error.
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "movie.eng.srt")
}

func TestFindDirectorySubtitles_RecursesInTraversalOrder(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "season1")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mkv"), []byte("v"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "b.mkv"), []byte("v"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "c.mkv"), []byte("v"), 0644))

	fetcher := &mockFetcher{
		SearchFunc: func(_ context.Context, _ *subtitles.Video, langs []language.Language, _ []string) ([]subtitles.Candidate, error) {
			return oneCandidate(langs[0]), nil
		},
	}
	p := processor.New(fetcher, &mockWriter{}, processor.Options{}, discardLogger())

	results, err := p.FindDirectorySubtitles(context.Background(), dir, []language.Language{eng})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Contains(t, results[0], "a.eng.srt")
	assert.Contains(t, results[1], filepath.Join("season1", "b.eng.srt"))
	assert.Contains(t, results[2], filepath.Join("season1", "c.eng.srt"))
}

func TestFindFileSubtitles_BackwardsReversesSavedFiles(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(videoPath, []byte("v"), 0644))

	srt := "1\n00:00:01,000 --> 00:00:02,000\nשלום\n"
	fetcher := &mockFetcher{
		SearchFunc: func(_ context.Context, _ *subtitles.Video, langs []language.Language, _ []string) ([]subtitles.Candidate, error) {
			return []subtitles.Candidate{{
				Provider: "wizdom",
				Language: langs[0],
				Format:   "srt",
				Content:  []byte(srt),
			}}, nil
		},
	}
	p := processor.New(fetcher, writer.New(discardLogger()), processor.Options{Backwards: true}, discardLogger())

	saved := p.FindFileSubtitles(context.Background(), videoPath, []language.Language{heb})
	require.Len(t, saved, 1)

	content, err := os.ReadFile(saved[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "םולש")
}

func TestFindSubtitles_DispatchesOnPathKind(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(videoPath, []byte("v"), 0644))

	fetcher := &mockFetcher{
		SearchFunc: func(_ context.Context, _ *subtitles.Video, langs []language.Language, _ []string) ([]subtitles.Candidate, error) {
			return oneCandidate(langs[0]), nil
		},
	}
	p := processor.New(fetcher, &mockWriter{}, processor.Options{}, discardLogger())

	fromDir, err := p.FindSubtitles(context.Background(), dir, []language.Language{eng}, true)
	require.NoError(t, err)
	fromFile, err := p.FindSubtitles(context.Background(), videoPath, []language.Language{eng}, false)
	require.NoError(t, err)

	assert.Equal(t, fromDir, fromFile)
}
