// Package routing decides which subtitle providers are queried for each
// requested language. Operators can pin known-good providers for specific
// languages (e.g. regional sites for a minority language) while everything
// else falls back to the default provider ordering.
package routing

import (
	"github.com/ofir123/go-subs/pkg/core/language"
)

// Preferences maps a language to its preferred providers, in priority
// order. A language missing from the map (or mapped to an empty list) has
// no preference. Built once from configuration and never mutated.
type Preferences map[language.Language][]string

// Query is a single provider-restricted search: one language against its
// own ordered provider list.
type Query struct {
	Language  language.Language
	Providers []string
}

// Partition splits the requested languages into routed queries and a
// default group.
//
// A language is routed when it still has a non-empty preferred-provider
// list after intersecting with the caller's allow-list (nil allow-list
// means no restriction). All other languages land in the default group,
// which is queried once against the allow-list as-is. A language whose
// preference list empties out after intersection falls through to the
// default group rather than being dropped.
//
// Routed queries keep the order languages were requested in; duplicate
// requested languages are collapsed to their first occurrence. The two
// groups are disjoint and together cover every requested language.
func Partition(langs []language.Language, prefs Preferences, allow []string) ([]Query, []language.Language) {
	var routed []Query
	var defaults []language.Language

	seen := make(map[language.Language]bool, len(langs))
	for _, lang := range langs {
		if seen[lang] {
			continue
		}
		seen[lang] = true

		providers := prefs[lang]
		if len(providers) > 0 && len(allow) > 0 {
			providers = intersect(providers, allow)
		}
		if len(providers) == 0 {
			defaults = append(defaults, lang)
			continue
		}
		routed = append(routed, Query{Language: lang, Providers: providers})
	}
	return routed, defaults
}

// intersect filters preferred down to the names present in allow,
// preserving preference order. The allow-list narrows a language's
// preferred set but never widens or reorders it.
func intersect(preferred, allow []string) []string {
	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[name] = true
	}
	var out []string
	for _, name := range preferred {
		if allowed[name] {
			out = append(out, name)
		}
	}
	return out
}
