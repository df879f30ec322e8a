package tools

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
)

const (
	readFileRateLimit  = 3
	readFileRateWindow = time.Minute
	readFileMaxChars   = 8000
)

// FileContent is the payload of a read_file result.
type FileContent struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

type fileReader struct {
	loader  *file.FileLoader
	limiter *rateLimiter
}

// NewReadFileTool returns the read_file tool, which reads a document from
// the caller's upload directory. Returns nil when the document loader cannot
// be initialized.
func NewReadFileTool() *Tool {
	parserExt, err := parser.NewExtParser(context.Background(), &parser.ExtParserConfig{
		FallbackParser: parser.TextParser{},
	})
	if err != nil {
		log.Printf("read_file tool disabled: %v", err)
		return nil
	}
	loader, err := file.NewFileLoader(context.Background(), &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      parserExt,
	})
	if err != nil {
		log.Printf("read_file tool disabled: %v", err)
		return nil
	}
	r := &fileReader{
		loader:  loader,
		limiter: newRateLimiter(readFileRateLimit, readFileRateWindow),
	}
	return &Tool{
		Name:        "read_file",
		Description: "Read the text content of a previously uploaded file. Limited to 3 reads per minute.",
		Category:    CategoryFile,
		Params: []Param{
			{Name: "path", Type: TypeString, Description: "Name of the uploaded file to read", Required: true},
		},
		Run: r.run,
	}
}

func (r *fileReader) run(ctx context.Context, params map[string]any) (any, error) {
	name, _ := params["path"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("path must not be empty")
	}

	baseDir := uploadDirFromContext(ctx)
	if baseDir == "" {
		return nil, fmt.Errorf("no uploaded files available for this caller")
	}

	// Reject anything that escapes the caller's upload directory.
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid file path")
	}

	key := baseDir
	if userID, ok := callerFromContext(ctx); ok {
		key = fmt.Sprintf("user:%d", userID)
	}
	if !r.limiter.Allow(key) {
		return nil, fmt.Errorf("read_file rate limit exceeded, please retry in a minute")
	}

	docs, err := r.loader.Load(ctx, document.Source{URI: filepath.Join(baseDir, cleaned)})
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}

	var builder strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n\n")
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return nil, fmt.Errorf("file has no readable text content")
	}

	out := FileContent{Path: cleaned, Content: text}
	if runes := []rune(text); len(runes) > readFileMaxChars {
		out.Content = string(runes[:readFileMaxChars])
		out.Truncated = true
	}
	return out, nil
}
