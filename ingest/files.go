package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"leetmentor/parser"
	"leetmentor/vector"
)

// FileIngestor indexes local reference files into the vector store. Each
// file becomes one slug; re-ingesting a file replaces its chunks.
type FileIngestor struct {
	registry *parser.Registry
	store    vector.Store
	chunking vector.ChunkConfig
	logger   zerolog.Logger
}

// NewFileIngestor creates an ingestor with the default parser registry.
func NewFileIngestor(store vector.Store, chunking vector.ChunkConfig, logger zerolog.Logger) *FileIngestor {
	return &FileIngestor{
		registry: parser.DefaultRegistry(),
		store:    store,
		chunking: chunking,
		logger:   logger,
	}
}

// Report summarizes one ingest run.
type Report struct {
	Files   int
	Chunks  int
	Skipped []string
}

// IngestGlob parses, chunks and indexes every file matching the pattern.
// Files with no parser or empty content are skipped and reported, not
// fatal; the first storage or embedding error aborts the run.
func (f *FileIngestor) IngestGlob(ctx context.Context, pattern string) (Report, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return Report{}, fmt.Errorf("glob %q: %w", pattern, err)
	}

	var report Report
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		n, err := f.IngestFile(ctx, path)
		if err != nil {
			if errors.Is(err, parser.ErrNoParser) {
				f.logger.Warn().Str("path", path).Msg("skipping unsupported file")
				report.Skipped = append(report.Skipped, path)
				continue
			}
			return report, err
		}
		if n == 0 {
			report.Skipped = append(report.Skipped, path)
			continue
		}
		report.Files++
		report.Chunks += n
	}
	return report, nil
}

// IngestFile indexes a single file and returns the number of chunks
// written.
func (f *FileIngestor) IngestFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	doc, err := f.registry.Parse(ctx, path, file)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		f.logger.Warn().Str("path", path).Msg("skipping empty file")
		return 0, nil
	}

	chunks := vector.ChunkText(doc.Content, f.chunking)
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		chunks[i].Metadata["source"] = "file"
		chunks[i].Metadata["path"] = path
		for k, v := range doc.Metadata {
			chunks[i].Metadata[k] = v
		}
	}

	slug := slugForPath(path)
	if err := f.store.Upsert(ctx, slug, doc.Title, chunks); err != nil {
		return 0, fmt.Errorf("index %s: %w", path, err)
	}

	f.logger.Info().Str("path", path).Str("slug", slug).Int("chunks", len(chunks)).Msg("ingested file")
	return len(chunks), nil
}

// slugForPath derives a stable slug from a file name: base name without
// extension, lowercased, spaces and underscores as dashes.
func slugForPath(path string) string {
	name := filepath.Base(path)
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")
	return name
}
