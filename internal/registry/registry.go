// Package registry maintains the set of distinct tags known across the vault.
package registry

import (
	"log/slog"
	"sync"

	"github.com/starford/ansuz/internal/rewrite"
)

// TagSource supplies the per-document tag extraction results the registry is
// rebuilt from. Satisfied by *index.DB.
type TagSource interface {
	AllTags() ([]string, error)
}

// Registry holds the current distinct set of tag tokens, sentinel included,
// in order of first appearance. It is rebuilt wholesale on every Refresh —
// never patched incrementally — so deleted or edited documents cannot leave
// stale entries behind.
//
// Rewrite passes read a snapshot once per pass; a Refresh landing mid-pass
// affects the next pass only.
type Registry struct {
	source TagSource
	logger *slog.Logger

	mu   sync.RWMutex
	tags []string
}

// New creates a registry backed by the given tag source.
func New(source TagSource, logger *slog.Logger) *Registry {
	return &Registry{source: source, logger: logger, tags: []string{}}
}

// Refresh clears the registry and rebuilds it from the source's current
// extraction snapshot. Duplicates are suppressed; an empty collection yields
// an empty set. Idempotent for an unchanged source.
func (r *Registry) Refresh() error {
	raw, err := r.source.AllTags()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t == "" {
			continue
		}
		tag := string(rewrite.Sentinel) + t
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	r.mu.Lock()
	r.tags = tags
	r.mu.Unlock()

	r.logger.Debug("registry: refreshed", slog.Int("tags", len(tags)))
	return nil
}

// Tags returns a snapshot copy of the current tag set.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.tags))
	copy(out, r.tags)
	return out
}

// Size returns the number of distinct tags currently registered.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tags)
}
