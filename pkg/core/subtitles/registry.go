package subtitles

import (
	"fmt"

	coreErrors "github.com/ofir123/go-subs/pkg/core/errors"
)

// Registry holds the known providers in their default query order.
type Registry struct {
	order  []string
	byName map[string]Provider
}

// NewRegistry builds a registry. Provider order is the default search
// order when the caller supplies no restriction.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, exists := r.byName[p.Name()]; exists {
			continue
		}
		r.order = append(r.order, p.Name())
		r.byName[p.Name()] = p
	}
	return r
}

// Names lists the registered provider names in default order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Validate checks that every name is registered. Used on the CLI
// allow-list before any file work starts.
func (r *Registry) Validate(names []string) error {
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			return fmt.Errorf("%w: %q (known: %v)", coreErrors.ErrUnknownProvider, name, r.order)
		}
	}
	return nil
}

// Select resolves names to providers, preserving the given order. A nil
// or empty list selects every registered provider in default order.
// Unknown names are skipped; Validate catches them up front.
func (r *Registry) Select(names []string) []Provider {
	if len(names) == 0 {
		names = r.order
	}
	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		if p, ok := r.byName[name]; ok {
			providers = append(providers, p)
		}
	}
	return providers
}
