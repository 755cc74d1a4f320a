package index

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/ansuz/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "This is a hello world note."); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "n.md", Title: "N", Checksum: "1", Tags: []string{"a"}, UpdatedAt: time.Now()}, "body")

	n, err := db.GetNote("n.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n == nil || n.Title != "N" {
		t.Fatalf("note = %+v", n)
	}
	if diff := cmp.Diff([]string{"a"}, n.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	missing, err := db.GetNote("nope.md")
	if err != nil {
		t.Fatalf("GetNote missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing note, got %+v", missing)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body")

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "Old", Checksum: "1", Tags: []string{"old"}, UpdatedAt: now}, "old body")
	_ = db.UpsertNote(NoteRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body")

	n, _ := db.GetNote("up.md")
	if n.Checksum != "2" || n.Title != "New" {
		t.Errorf("note = %+v", n)
	}
	if diff := cmp.Diff([]string{"new"}, n.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestGetChecksum_PropagatesDBError(t *testing.T) {
	db := testDB(t)
	_ = db.Close()
	if _, err := db.GetChecksum("any.md"); err == nil {
		t.Error("expected error from closed database")
	}
}

func TestListNotes_TagFilter(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{"go"}, UpdatedAt: now}, "")
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "2", Tags: []string{"rust"}, UpdatedAt: now}, "")
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "3", Tags: []string{"go", "rust"}, UpdatedAt: now}, "")

	rows, total, err := db.ListNotes(10, 0, "go", "path")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d, rows = %d, want 2", total, len(rows))
	}
	if rows[0].Path != "a.md" || rows[1].Path != "c.md" {
		t.Errorf("rows = %v, %v", rows[0].Path, rows[1].Path)
	}
}

func TestAllTags_PathOrderWithDuplicates(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{"a", "b"}, UpdatedAt: now}, "")
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "2", Tags: []string{"b", "c"}, UpdatedAt: now}, "")

	tags, err := db.AllTags()
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "b", "c"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "")
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "2", Tags: []string{}, UpdatedAt: now}, "")

	cs, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(cs) != 2 || cs["a.md"] != "1" || cs["b.md"] != "2" {
		t.Errorf("checksums = %v", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Gardening", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "notes about tomatoes")

	hits, err := db.Search("tomatoes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" {
		t.Errorf("hits = %v", hits)
	}
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	db := testDB(t)
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	_ = store.Write("keep.md", []byte("# Keep\nbody #alpha"))
	_ = store.Write("gone.md", []byte("# Gone"))

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("keep.md"); cs == "" {
		t.Fatal("keep.md not indexed")
	}
	n, _ := db.GetNote("keep.md")
	if diff := cmp.Diff([]string{"alpha"}, n.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	_ = store.Delete("gone.md")
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("gone.md"); cs != "" {
		t.Error("stale entry not removed")
	}
}
