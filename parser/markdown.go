package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// MarkdownParser handles markdown files. YAML frontmatter is parsed into
// metadata and stripped from the content; the markdown body is kept as-is
// so headings survive into chunk boundaries.
type MarkdownParser struct{}

func NewMarkdownParser() *MarkdownParser { return &MarkdownParser{} }

func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	raw := string(data)
	metadata, body := splitFrontmatter(raw)
	body = strings.TrimSpace(body)

	title := firstLineTitle(body)
	if fm, ok := metadata["title"].(string); ok && fm != "" {
		title = fm
	}
	metadata["file_size"] = len(raw)

	return &Document{
		Content:  body,
		Title:    title,
		Metadata: metadata,
	}, nil
}

func (p *MarkdownParser) FileType() FileType { return FileTypeMD }

// splitFrontmatter separates a leading YAML frontmatter block from the
// body. Only flat "key: value" pairs are recognized.
func splitFrontmatter(content string) (map[string]any, string) {
	metadata := make(map[string]any)

	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return metadata, content
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			return metadata, strings.Join(lines[i+1:], "\n")
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
			metadata[key] = value
		}
	}

	// Opening fence never closed: treat the whole thing as body.
	return make(map[string]any), content
}
