package language_test

import (
	"testing"

	"github.com/ofir123/go-subs/pkg/core/language"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NormalizesCodes(t *testing.T) {
	// Two- and three-letter forms of the same language must be equal.
	heb, err := language.Parse("heb")
	require.NoError(t, err)
	he, err := language.Parse("he")
	require.NoError(t, err)
	assert.Equal(t, heb, he)

	assert.Equal(t, "he", heb.Code2())
	assert.Equal(t, "heb", heb.Code3())
	assert.Equal(t, "Hebrew", heb.Name())
}

func TestParse_TrimsAndLowercases(t *testing.T) {
	lang, err := language.Parse("  ENG ")
	require.NoError(t, err)
	assert.Equal(t, "eng", lang.Code3())
	assert.Equal(t, "en", lang.Code2())
}

func TestParse_RejectsGarbage(t *testing.T) {
	_, err := language.Parse("not-a-language")
	assert.Error(t, err)

	_, err = language.Parse("")
	assert.Error(t, err)
}

func TestParseList_PreservesOrder(t *testing.T) {
	languages, err := language.ParseList([]string{"heb", "en", "spa"})
	require.NoError(t, err)
	require.Len(t, languages, 3)
	assert.Equal(t, "heb", languages[0].Code3())
	assert.Equal(t, "eng", languages[1].Code3())
	assert.Equal(t, "spa", languages[2].Code3())
}

func TestParseList_FailsOnFirstBadCode(t *testing.T) {
	_, err := language.ParseList([]string{"heb", "zz!"})
	assert.Error(t, err)
}

func TestLanguage_UsableAsMapKey(t *testing.T) {
	m := map[language.Language][]string{
		language.MustParse("heb"): {"wizdom"},
	}
	providers, ok := m[language.MustParse("he")]
	require.True(t, ok)
	assert.Equal(t, []string{"wizdom"}, providers)
}
