package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/registry"
	"github.com/starford/ansuz/internal/rewrite"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider, *registry.Registry, *index.DB) {
	t.Helper()

	db := testutil.TestDB(t)
	_, store := testutil.TestVault(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	reg := registry.New(db, logger)
	rw := rewrite.NewRewriter(store, db, reg, logger)

	srv := New(store, db, reg, rw)
	return srv, store, reg, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// Find the handler via the MCPServer's tool list. We call the handler directly.
	// Since mcp-go doesn't expose a direct "call tool" test helper, we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "preview_tagging":
		result, err = srv.previewTagging(ctx, req)
	case "scan_vault":
		result, err = srv.scanVault(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// seed writes a note, indexes it, and refreshes the registry.
func seed(t *testing.T, store storage.Provider, db *index.DB, reg *registry.Registry, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := index.IndexFile(db, path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Refresh(); err != nil {
		t.Fatal(err)
	}
}

func TestReadNote(t *testing.T) {
	srv, store, _, _ := testServer(t)
	_ = store.Write("test.md", []byte("# Test\nHello"))

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "test.md"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error result for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, store, _, _ := testServer(t)
	_ = store.Write("a.md", []byte("a"))
	_ = store.Write("b.md", []byte("b"))

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "b.md") {
		t.Errorf("list result = %q", text)
	}
}

func TestListTags(t *testing.T) {
	srv, store, reg, db := testServer(t)

	r := callTool(t, srv, "list_tags", map[string]interface{}{})
	if text := resultText(r); text != "no tags" {
		t.Errorf("empty list result = %q", text)
	}

	seed(t, store, db, reg, "a.md", "body with #alpha and #beta")

	r = callTool(t, srv, "list_tags", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "#alpha") || !strings.Contains(text, "#beta") {
		t.Errorf("list result = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, store, reg, db := testServer(t)
	seed(t, store, db, reg, "garden.md", "# Garden\nnotes about tomatoes")

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "tomatoes"})
	if text := resultText(r); !strings.Contains(text, "garden.md") {
		t.Errorf("search result = %q", text)
	}

	r = callTool(t, srv, "search_notes", map[string]interface{}{"query": "zebra"})
	if text := resultText(r); text != "no matches" {
		t.Errorf("no-match result = %q", text)
	}
}

func TestPreviewTagging(t *testing.T) {
	srv, store, reg, db := testServer(t)
	seed(t, store, db, reg, "a.md", "about #project")

	r := callTool(t, srv, "preview_tagging", map[string]interface{}{"text": "my project plan"})
	var out struct {
		Text    string `json:"text"`
		Changed bool   `json:"changed"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode preview: %v (%q)", err, resultText(r))
	}
	if !out.Changed || out.Text != "my #project plan" {
		t.Errorf("preview = %+v", out)
	}

	// Preview never touches storage.
	data, err := store.Read("a.md")
	if err != nil || string(data) != "about #project" {
		t.Errorf("note mutated by preview: %q, %v", data, err)
	}
}

func TestScanVault(t *testing.T) {
	srv, store, reg, db := testServer(t)
	seed(t, store, db, reg, "tagged.md", "the #project tag")
	_ = store.Write("plain.md", []byte("my project notes"))

	r := callTool(t, srv, "scan_vault", map[string]interface{}{})
	if text := resultText(r); text != "scanned: 2, tagged: 1, failed: 0" {
		t.Errorf("scan result = %q", text)
	}

	data, _ := store.Read("plain.md")
	if string(data) != "my #project notes" {
		t.Errorf("plain.md = %q", data)
	}
}
