package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language identifies a single subtitle language. It is built from any
// ISO-639 code ("he", "heb", "en", "eng") and normalized once; values are
// immutable and comparable, so they are safe to use as map keys.
type Language struct {
	base language.Base
}

// Parse normalizes an ISO-639 code into a Language.
func Parse(code string) (Language, error) {
	base, err := language.ParseBase(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return Language{}, fmt.Errorf("unrecognized language code %q: %w", code, err)
	}
	return Language{base: base}, nil
}

// MustParse is Parse for static, known-good codes. It panics on bad input.
func MustParse(code string) Language {
	lang, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return lang
}

// ParseList parses a list of codes, preserving order.
func ParseList(codes []string) ([]Language, error) {
	languages := make([]Language, 0, len(codes))
	for _, code := range codes {
		lang, err := Parse(code)
		if err != nil {
			return nil, err
		}
		languages = append(languages, lang)
	}
	return languages, nil
}

// Code2 returns the two-letter ISO 639-1 code most provider APIs expect
// (e.g. "he"). Languages without a two-letter code fall back to the
// three-letter one.
func (l Language) Code2() string {
	return l.base.String()
}

// Code3 returns the three-letter ISO 639-3 code used in saved subtitle
// file names (e.g. "heb").
func (l Language) Code3() string {
	return l.base.ISO3()
}

// Name returns the English display name, for logs and user output.
func (l Language) Name() string {
	return display.English.Languages().Name(l.base)
}

func (l Language) String() string {
	return l.Code3()
}

// MarshalText encodes the language as its three-letter code, so Language
// round-trips through JSON (cached search results).
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.Code3()), nil
}

// UnmarshalText parses the stored code back into a Language.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
