package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino-ext/components/tool/googlesearch"
	"github.com/cloudwego/eino/components/tool"

	"darkchat/internal/config"
)

const (
	webSearchTimeout    = 10 * time.Second
	webSearchMaxResults = 10
)

// SearchResult is one entry of a web search response.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type webSearch struct {
	backends []tool.InvokableTool
}

// NewWebSearchTool returns the web_search tool. Live backends are attached
// from configuration; with none configured the tool serves deterministic
// placeholder results so the invocation contract still holds.
func NewWebSearchTool(cfg config.SearchConfig) *Tool {
	w := &webSearch{}

	if cfg.GoogleAPIKey != "" && cfg.GoogleEngineID != "" {
		gt, err := googlesearch.NewTool(context.Background(), &googlesearch.Config{
			ToolName:       "web_search_google",
			ToolDesc:       "Google Search Tool",
			APIKey:         cfg.GoogleAPIKey,
			SearchEngineID: cfg.GoogleEngineID,
			Lang:           "en",
			Num:            5,
		})
		if err != nil {
			log.Printf("google search backend disabled: %v", err)
		} else {
			w.backends = append(w.backends, gt)
		}
	}

	if cfg.DuckDuckGo {
		dt, err := duckduckgo.NewTextSearchTool(context.Background(), &duckduckgo.Config{
			ToolName:   "web_search_ddg",
			ToolDesc:   "DuckDuckGo Search Tool (no token required)",
			MaxResults: 5,
			Region:     duckduckgo.RegionWT,
			Timeout:    webSearchTimeout,
		})
		if err != nil {
			log.Printf("duckduckgo search backend disabled: %v", err)
		} else {
			w.backends = append(w.backends, dt)
		}
	}

	return &Tool{
		Name:        "web_search",
		Description: "Search the web for information",
		Category:    CategoryWeb,
		Params: []Param{
			{Name: "query", Type: TypeString, Description: "Search query", Required: true},
			{Name: "num_results", Type: TypeNumber, Description: "Number of results to return (default: 5)", Required: false, Default: 5},
		},
		Run: w.run,
	}
}

func (w *webSearch) run(ctx context.Context, params map[string]any) (any, error) {
	query, _ := params["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	n := intParam(params["num_results"], 5)
	if n < 1 {
		n = 1
	}
	if n > webSearchMaxResults {
		n = webSearchMaxResults
	}

	if len(w.backends) > 0 {
		payload, err := json.Marshal(map[string]string{"query": query})
		if err != nil {
			return nil, fmt.Errorf("marshal search params: %w", err)
		}
		for _, backend := range w.backends {
			raw, err := backend.InvokableRun(ctx, string(payload))
			if err != nil {
				log.Printf("search backend failed: %v", err)
				continue
			}
			if results := parseBackendResults(raw); len(results) > 0 {
				if len(results) > n {
					results = results[:n]
				}
				return results, nil
			}
		}
	}

	return placeholderResults(query, n), nil
}

// parseBackendResults extracts result records from a backend's JSON output.
// Backends disagree on field names, so the mapping is lenient.
func parseBackendResults(raw string) []SearchResult {
	var items []map[string]any

	var top map[string]any
	if err := json.Unmarshal([]byte(raw), &top); err == nil {
		for _, key := range []string{"results", "items"} {
			arr, ok := top[key].([]any)
			if !ok {
				continue
			}
			for _, entry := range arr {
				if m, ok := entry.(map[string]any); ok {
					items = append(items, m)
				}
			}
			break
		}
	} else {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			items = arr
		}
	}

	var results []SearchResult
	for _, item := range items {
		r := SearchResult{
			Title:   stringField(item, "title"),
			URL:     stringField(item, "url", "link"),
			Snippet: stringField(item, "snippet", "summary", "description", "desc"),
		}
		if r.Title == "" && r.URL == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}

func placeholderResults(query string, n int) []SearchResult {
	results := make([]SearchResult, 0, n)
	for i := 1; i <= n; i++ {
		results = append(results, SearchResult{
			Title:   fmt.Sprintf("Search result %d for: %s", i, query),
			URL:     fmt.Sprintf("https://example.com/search/%d", i),
			Snippet: "No live search backend is configured. Attach one to serve real results.",
		})
	}
	return results
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intParam(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return fallback
}
