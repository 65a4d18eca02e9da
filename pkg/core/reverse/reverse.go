// Package reverse flips right-to-left text in subtitle files. Some older
// TVs render Hebrew and Arabic subtitles left-to-right; storing the runs
// reversed makes them display correctly there.
package reverse

import (
	"fmt"
	"regexp"

	"github.com/asticode/go-astisub"
)

// nonASCIIRun matches runs of non-ASCII characters. ASCII text,
// numbers and timing punctuation stay in place; only foreign-script runs
// are flipped.
var nonASCIIRun = regexp.MustCompile(`[^\x00-\x7F]+`)

// File rewrites the subtitle file at path with every non-ASCII run in
// every line reversed.
func File(path string) error {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open subtitle file %q: %w", path, err)
	}

	for _, item := range subs.Items {
		for li := range item.Lines {
			for ti := range item.Lines[li].Items {
				item.Lines[li].Items[ti].Text = Text(item.Lines[li].Items[ti].Text)
			}
		}
	}

	if err := subs.Write(path); err != nil {
		return fmt.Errorf("failed to write reversed subtitle file %q: %w", path, err)
	}
	return nil
}

// Text reverses each non-ASCII run in s, leaving everything else alone.
func Text(s string) string {
	return nonASCIIRun.ReplaceAllStringFunc(s, reverseString)
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
