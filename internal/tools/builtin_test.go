package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"darkchat/internal/config"
)

func TestExecuteCodeUnsupportedLanguage(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCodeExecTool()); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Invoke(context.Background(), "execute_code", map[string]any{
		"language": "ruby",
		"code":     "1",
	})
	if res.Success {
		t.Fatalf("expected failure envelope for unsupported language")
	}
	if res.Error != "Unsupported language: ruby" {
		t.Fatalf("unexpected error message: %q", res.Error)
	}
}

func TestExecuteCodeMissingCode(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCodeExecTool()); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Invoke(context.Background(), "execute_code", map[string]any{"language": "python"})
	if res.Success || res.Error != "Missing required parameter: code" {
		t.Fatalf("unexpected envelope: %+v", res)
	}
}

func TestWebSearchPlaceholderResults(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewWebSearchTool(config.SearchConfig{})); err != nil {
		t.Fatalf("register: %v", err)
	}

	res := r.Invoke(context.Background(), "web_search", map[string]any{"query": "rust"})
	if !res.Success {
		t.Fatalf("invoke failed: %s", res.Error)
	}
	results, ok := res.Result.([]SearchResult)
	if !ok {
		t.Fatalf("unexpected result type %T", res.Result)
	}
	if len(results) != 5 {
		t.Fatalf("num_results should default to 5, got %d", len(results))
	}
	for i, entry := range results {
		if entry.Title == "" || entry.URL == "" || entry.Snippet == "" {
			t.Fatalf("result %d missing fields: %+v", i, entry)
		}
	}

	res = r.Invoke(context.Background(), "web_search", map[string]any{"query": "rust", "num_results": float64(2)})
	if !res.Success {
		t.Fatalf("invoke failed: %s", res.Error)
	}
	if got := res.Result.([]SearchResult); len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestWebSearchRejectsBlankQuery(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewWebSearchTool(config.SearchConfig{})); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Invoke(context.Background(), "web_search", map[string]any{"query": "   "})
	if res.Success {
		t.Fatalf("expected failure envelope for blank query")
	}
}

func TestParseBackendResults(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want SearchResult
	}{
		{
			name: "results with summary",
			raw:  `{"results":[{"title":"Go","url":"https://go.dev","summary":"the Go site"}]}`,
			want: SearchResult{Title: "Go", URL: "https://go.dev", Snippet: "the Go site"},
		},
		{
			name: "items with link and snippet",
			raw:  `{"items":[{"title":"Go","link":"https://go.dev","snippet":"the Go site"}]}`,
			want: SearchResult{Title: "Go", URL: "https://go.dev", Snippet: "the Go site"},
		},
		{
			name: "bare array with description",
			raw:  `[{"title":"Go","url":"https://go.dev","description":"the Go site"}]`,
			want: SearchResult{Title: "Go", URL: "https://go.dev", Snippet: "the Go site"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseBackendResults(tc.raw)
			if len(got) != 1 || got[0] != tc.want {
				t.Fatalf("parse mismatch: %+v", got)
			}
		})
	}

	if got := parseBackendResults("not json"); got != nil {
		t.Fatalf("garbage input should yield no results, got %+v", got)
	}
}

func TestReadFileScopedToUploadDir(t *testing.T) {
	tool := NewReadFileTool()
	if tool == nil {
		t.Skip("document loader unavailable")
	}
	r := NewRegistry()
	if err := r.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello from disk"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	ctx := WithUploadDir(context.Background(), dir)

	res := r.Invoke(ctx, "read_file", map[string]any{"path": "notes.txt"})
	if !res.Success {
		t.Fatalf("invoke failed: %s", res.Error)
	}
	content, ok := res.Result.(FileContent)
	if !ok || content.Content != "hello from disk" {
		t.Fatalf("unexpected payload: %+v", res.Result)
	}

	res = r.Invoke(ctx, "read_file", map[string]any{"path": "../escape.txt"})
	if res.Success {
		t.Fatalf("path traversal must be rejected")
	}

	res = r.Invoke(context.Background(), "read_file", map[string]any{"path": "notes.txt"})
	if res.Success {
		t.Fatalf("reads without an upload directory must fail")
	}
}

func TestReadFileRateLimit(t *testing.T) {
	tool := NewReadFileTool()
	if tool == nil {
		t.Skip("document loader unavailable")
	}
	r := NewRegistry()
	if err := r.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	ctx := WithCaller(WithUploadDir(context.Background(), dir), 42)

	for i := 0; i < readFileRateLimit; i++ {
		if res := r.Invoke(ctx, "read_file", map[string]any{"path": "notes.txt"}); !res.Success {
			t.Fatalf("read %d failed: %s", i+1, res.Error)
		}
	}
	if res := r.Invoke(ctx, "read_file", map[string]any{"path": "notes.txt"}); res.Success {
		t.Fatalf("expected the limiter to reject the extra read")
	}
}
