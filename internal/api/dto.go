package api

import (
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/rewrite"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md"`
	Content string `json:"content" example:"# Hello\nWorld"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total" example:"42"`
}

// TagsResponse is the current registry snapshot.
type TagsResponse struct {
	Tags []string `json:"tags"`
	Size int      `json:"size" example:"7"`
}

// RewriteRequest is the request body for a rewrite preview.
type RewriteRequest struct {
	Text string `json:"text" example:"working on project today"`
}

// RewriteResponse is a rewrite preview result.
type RewriteResponse struct {
	Text    string `json:"text" example:"working on #project today"`
	Changed bool   `json:"changed"`
}

// ScanResponse reports the outcome of a manual full-vault scan.
type ScanResponse = rewrite.ScanReport

// OpenSessionRequest opens a live editing session.
type OpenSessionRequest struct {
	Content string `json:"content"`
}

// SessionResponse identifies an open session.
type SessionResponse struct {
	ID string `json:"id"`
}

// SessionContentRequest replaces a session buffer's content.
type SessionContentRequest struct {
	Content string `json:"content"`
}

// SessionContentResponse returns a session buffer's content.
type SessionContentResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"notes/hello.md"`
	Title   string `json:"title" example:"Hello"`
	Snippet string `json:"snippet" example:"...matched text..."`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
