package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TextParser handles plain text files.
type TextParser struct{}

func NewTextParser() *TextParser { return &TextParser{} }

func (p *TextParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	content := strings.TrimSpace(string(data))
	return &Document{
		Content: content,
		Title:   firstLineTitle(content),
		Metadata: map[string]any{
			"file_size": len(data),
		},
	}, nil
}

func (p *TextParser) FileType() FileType { return FileTypeTXT }
