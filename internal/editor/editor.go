// Package editor holds the live editing buffers exposed over the API,
// standing in for a host editing surface.
package editor

import (
	"sync"

	"github.com/starford/ansuz/internal/apperr"
)

// Buffers is the table of open live-editing buffers, keyed by session id.
// Content get/set is synchronous; OnChange fires after every content change
// so the caller can debounce a rewrite pass.
type Buffers struct {
	mu   sync.RWMutex
	bufs map[string]string

	// OnChange, if set, is called with the buffer id after SetContent.
	OnChange func(id string)
	// OnClose, if set, is called with the buffer id after Close.
	OnClose func(id string)
}

// NewBuffers creates an empty buffer table.
func NewBuffers() *Buffers {
	return &Buffers{bufs: make(map[string]string)}
}

// Open creates (or resets) the buffer with the given id and initial content.
func (b *Buffers) Open(id, content string) {
	b.mu.Lock()
	b.bufs[id] = content
	b.mu.Unlock()
}

// Get returns the current content of an open buffer.
func (b *Buffers) Get(id string) (string, error) {
	b.mu.RLock()
	content, ok := b.bufs[id]
	b.mu.RUnlock()
	if !ok {
		return "", apperr.ErrNoSession
	}
	return content, nil
}

// SetContent replaces the buffer's content and fires OnChange.
func (b *Buffers) SetContent(id, content string) error {
	b.mu.Lock()
	if _, ok := b.bufs[id]; !ok {
		b.mu.Unlock()
		return apperr.ErrNoSession
	}
	b.bufs[id] = content
	b.mu.Unlock()

	if b.OnChange != nil {
		b.OnChange(id)
	}
	return nil
}

// Replace swaps in new content without firing OnChange. Used by the rewrite
// pass itself so applying a result does not schedule another pass.
//
// The swap only happens while the buffer still holds expected — the content
// the pass read. If an edit landed in between, the pass result is stale:
// Replace returns ErrConflict, the edit is kept, and the newer debounce that
// edit scheduled rewrites the fresh content instead.
func (b *Buffers) Replace(id, expected, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.bufs[id]
	if !ok {
		return apperr.ErrNoSession
	}
	if cur != expected {
		return apperr.ErrConflict
	}
	b.bufs[id] = content
	return nil
}

// Close discards the buffer. Closing an unknown id is a no-op.
func (b *Buffers) Close(id string) {
	b.mu.Lock()
	delete(b.bufs, id)
	b.mu.Unlock()

	if b.OnClose != nil {
		b.OnClose(id)
	}
}

// IsOpen reports whether the buffer exists.
func (b *Buffers) IsOpen(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.bufs[id]
	return ok
}
