package vector

import (
	"strings"

	"leetmentor/llm"
)

// ChunkConfig configures how reference material is split into chunks
type ChunkConfig struct {
	ChunkSize    int // Maximum chunk size in characters
	ChunkOverlap int // Overlap between chunks
	MinChunkSize int // Minimum chunk size to keep
}

// DefaultChunkConfig returns the default chunk configuration
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunkSize: 100,
	}
}

// ChunkText splits content into chunks along paragraph boundaries,
// carrying a tail overlap between consecutive chunks. Paragraphs larger
// than the chunk size are force-split.
func ChunkText(content string, cfg ChunkConfig) []llm.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	// An overlap at or above the chunk size would keep forceSplit from
	// ever advancing.
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize - 1
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = 100
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var pieces []string
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		if len(text) >= cfg.MinChunkSize {
			pieces = append(pieces, text)
		}
		current.Reset()
	}

	for _, paragraph := range strings.Split(content, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len()+len(paragraph) > cfg.ChunkSize && current.Len() > 0 {
			previous := current.String()
			flush()
			if cfg.ChunkOverlap > 0 {
				current.WriteString(tailOverlap(previous, cfg.ChunkOverlap))
				current.WriteString("\n\n")
			}
		}

		current.WriteString(paragraph)
		current.WriteString("\n\n")
	}
	flush()

	// Single paragraphs can still exceed the limit.
	var split []string
	for _, piece := range pieces {
		if len(piece) <= cfg.ChunkSize {
			split = append(split, piece)
			continue
		}
		split = append(split, forceSplit(piece, cfg.ChunkSize, cfg.ChunkOverlap)...)
	}

	// Short documents below MinChunkSize still deserve one chunk.
	if len(split) == 0 {
		split = []string{content}
	}

	chunks := make([]llm.Chunk, len(split))
	for i, text := range split {
		chunks[i] = llm.Chunk{
			Content:  text,
			Metadata: map[string]any{"chunk_index": i},
		}
	}
	return chunks
}

// tailOverlap returns the last size characters of text, advanced to the
// next word boundary when one exists.
func tailOverlap(text string, size int) string {
	text = strings.TrimSpace(text)
	if size <= 0 || text == "" {
		return ""
	}
	if size >= len(text) {
		return text
	}

	tail := text[len(text)-size:]
	if idx := strings.IndexByte(tail, ' '); idx > 0 {
		return tail[idx+1:]
	}
	return tail
}

// forceSplit cuts text into fixed-size rune windows with overlap.
func forceSplit(text string, size, overlap int) []string {
	var parts []string

	runes := []rune(text)
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return parts
}
