package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// HTMLParser handles HTML files. The document is cleaned with goquery and
// converted to markdown so downstream chunking sees the same shape as
// native markdown sources.
type HTMLParser struct {
	converter *md.Converter
}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{converter: md.NewConverter("", true, nil)}
}

func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		if body, err = doc.Html(); err != nil {
			return nil, fmt.Errorf("extract html body: %w", err)
		}
	}

	markdown, err := p.converter.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("convert html to markdown: %w", err)
	}

	return &Document{
		Content: strings.TrimSpace(markdown),
		Title:   title,
		Metadata: map[string]any{
			"source_format": "html",
		},
	}, nil
}

func (p *HTMLParser) FileType() FileType { return FileTypeHTML }
