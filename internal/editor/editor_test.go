package editor

import (
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func TestOpenGetSetClose(t *testing.T) {
	b := NewBuffers()
	b.Open("s1", "hello")

	got, err := b.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "hello" {
		t.Errorf("content = %q", got)
	}

	if err := b.SetContent("s1", "updated"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	got, _ = b.Get("s1")
	if got != "updated" {
		t.Errorf("content = %q", got)
	}

	b.Close("s1")
	if _, err := b.Get("s1"); !errors.Is(err, apperr.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSetContent_UnknownSession(t *testing.T) {
	b := NewBuffers()
	if err := b.SetContent("nope", "x"); !errors.Is(err, apperr.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestOnChange_FiredPerSet(t *testing.T) {
	b := NewBuffers()
	var changes []string
	b.OnChange = func(id string) { changes = append(changes, id) }

	b.Open("s1", "")
	_ = b.SetContent("s1", "a")
	_ = b.SetContent("s1", "ab")

	if len(changes) != 2 {
		t.Errorf("changes = %v, want 2 events", changes)
	}
}

func TestReplace_DoesNotFireOnChange(t *testing.T) {
	b := NewBuffers()
	fired := false
	b.OnChange = func(string) { fired = true }

	b.Open("s1", "before")
	if err := b.Replace("s1", "before", "after"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if fired {
		t.Error("Replace must not fire OnChange")
	}
	got, _ := b.Get("s1")
	if got != "after" {
		t.Errorf("content = %q", got)
	}
}

func TestReplace_UnknownSession(t *testing.T) {
	b := NewBuffers()
	if err := b.Replace("nope", "x", "y"); !errors.Is(err, apperr.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestReplace_EditLandingMidPassWins(t *testing.T) {
	b := NewBuffers()
	b.Open("s1", "my project plan")

	// A rewrite pass reads the buffer...
	read, err := b.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// ...and an edit lands before the pass applies its result.
	if err := b.SetContent("s1", "my project plan, continued"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := b.Replace("s1", read, "my #project plan"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale pass result, got %v", err)
	}
	got, _ := b.Get("s1")
	if got != "my project plan, continued" {
		t.Errorf("edit lost: content = %q", got)
	}
}

func TestOnClose_Fired(t *testing.T) {
	b := NewBuffers()
	var closed []string
	b.OnClose = func(id string) { closed = append(closed, id) }

	b.Open("s1", "")
	b.Close("s1")
	if len(closed) != 1 || closed[0] != "s1" {
		t.Errorf("closed = %v", closed)
	}
}

func TestIsOpen(t *testing.T) {
	b := NewBuffers()
	if b.IsOpen("s1") {
		t.Error("unopened buffer reported open")
	}
	b.Open("s1", "")
	if !b.IsOpen("s1") {
		t.Error("opened buffer reported closed")
	}
}
