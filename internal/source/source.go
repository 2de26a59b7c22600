package source

import (
	"fmt"

	"newspulse/internal/ports"
)

// Registry keeps article sources in registration order. The first
// registered source is the primary one: its list-call failure is fatal to
// an ingest run, while supplementary sources degrade gracefully.
type Registry struct {
	ordered []ports.ArticleSource
	byName  map[string]ports.ArticleSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]ports.ArticleSource{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(src ports.ArticleSource) {
	if r.byName == nil {
		r.byName = map[string]ports.ArticleSource{}
	}
	if _, exists := r.byName[src.Name()]; !exists {
		r.ordered = append(r.ordered, src)
	} else {
		for i, existing := range r.ordered {
			if existing.Name() == src.Name() {
				r.ordered[i] = src
				break
			}
		}
	}
	r.byName[src.Name()] = src
}

// Sources returns all registered sources in registration order.
func (r *Registry) Sources() []ports.ArticleSource {
	return r.ordered
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.ArticleSource, error) {
	if src, ok := r.byName[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}
