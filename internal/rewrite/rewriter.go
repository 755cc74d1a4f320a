package rewrite

import (
	"context"
	"log/slog"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

// TagProvider supplies the current tag set for a pass. Satisfied by
// *registry.Registry.
type TagProvider interface {
	Tags() []string
}

// ScanReport summarises one full-vault scan.
type ScanReport struct {
	Scanned int `json:"scanned"`
	Tagged  int `json:"tagged"`
	Failed  int `json:"failed"`
}

// Rewriter applies rewrite passes to stored documents. Each pass reads the
// tag set exactly once, so a registry refresh landing mid-pass never mixes
// old and new sets within one document.
type Rewriter struct {
	store  storage.Provider
	db     *index.DB
	tags   TagProvider
	logger *slog.Logger

	// OnTagged, if set, is called after a document was rewritten and
	// persisted. Used to publish change events.
	OnTagged func(path string)
}

// NewRewriter creates a rewriter over the given storage, index, and tag source.
func NewRewriter(store storage.Provider, db *index.DB, tags TagProvider, logger *slog.Logger) *Rewriter {
	return &Rewriter{store: store, db: db, tags: tags, logger: logger}
}

// RewriteDocument runs one pass over a single stored document and persists
// the result only when the pass changed it. The write is whole-content and
// atomic; a document is never left partially rewritten.
func (rw *Rewriter) RewriteDocument(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	data, err := rw.store.Read(path)
	if err != nil {
		return false, err
	}

	out, changed := Apply(string(data), rw.tags.Tags())
	if !changed {
		return false, nil
	}

	if err := rw.store.Write(path, []byte(out)); err != nil {
		return false, err
	}
	if err := index.IndexFile(rw.db, path, []byte(out)); err != nil {
		rw.logger.Warn("rewrite: reindex failed", slog.String("path", path), slog.String("error", err.Error()))
	}

	rw.logger.Debug("rewrite: tagged", slog.String("path", path))
	if rw.OnTagged != nil {
		rw.OnTagged(path)
	}
	return true, nil
}

// ScanAll runs a rewrite pass over every .md document, strictly sequentially.
// A failing document is logged and skipped; the scan continues with the rest.
func (rw *Rewriter) ScanAll(ctx context.Context) (ScanReport, error) {
	metas, err := rw.store.List("")
	if err != nil {
		return ScanReport{}, err
	}

	rw.logger.Info("rewrite: scan started", slog.Int("documents", len(metas)))

	var report ScanReport
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		changed, err := rw.RewriteDocument(ctx, m.Path)
		if err != nil {
			report.Failed++
			rw.logger.Warn("rewrite: document failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if changed {
			report.Tagged++
		}
	}

	rw.logger.Info("rewrite: scan finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("tagged", report.Tagged),
		slog.Int("failed", report.Failed))
	return report, nil
}
