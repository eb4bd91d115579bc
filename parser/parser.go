// Package parser turns reference files into plain text documents ready for
// chunking and indexing. Parsers are registered per file type; the registry
// picks one by extension.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrNoParser is returned when no parser is registered for a file type.
var ErrNoParser = errors.New("no parser for file")

// FileType represents the type of a reference file.
type FileType string

const (
	FileTypeMD      FileType = "md"
	FileTypeHTML    FileType = "html"
	FileTypeTXT     FileType = "txt"
	FileTypeUnknown FileType = "unknown"
)

// Document is a parsed reference file.
type Document struct {
	Content  string
	Title    string
	Metadata map[string]any
}

// Parser extracts a Document from raw file content.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*Document, error)
	FileType() FileType
}

// Registry maps file types to parsers.
type Registry struct {
	parsers map[FileType]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[FileType]Parser)}
}

// Register adds a parser, replacing any existing one for the same type.
func (r *Registry) Register(p Parser) {
	r.parsers[p.FileType()] = p
}

// ForPath returns the parser responsible for the given file path.
func (r *Registry) ForPath(path string) (Parser, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	p, ok := r.parsers[FileTypeFromExt(ext)]
	return p, ok
}

// Parse parses content for the given path with the matching parser.
func (r *Registry) Parse(ctx context.Context, path string, content io.Reader) (*Document, error) {
	p, ok := r.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoParser, path)
	}
	doc, err := p.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = titleFromPath(path)
	}
	return doc, nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewTextParser())
	reg.Register(NewMarkdownParser())
	reg.Register(NewHTMLParser())
	return reg
}

// FileTypeFromExt converts a file extension to a FileType.
func FileTypeFromExt(ext string) FileType {
	switch strings.ToLower(ext) {
	case "md", "markdown":
		return FileTypeMD
	case "html", "htm":
		return FileTypeHTML
	case "txt", "text":
		return FileTypeTXT
	default:
		return FileTypeUnknown
	}
}

func (ft FileType) String() string { return string(ft) }

// titleFromPath derives a readable title from a file name.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// firstLineTitle picks the first short non-empty line as a title.
func firstLineTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if len(line) < 100 {
			return line
		}
		return ""
	}
	return ""
}
