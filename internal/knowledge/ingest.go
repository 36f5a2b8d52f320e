package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiranshivaraju/brandguard/pkg/models"
	"github.com/kiranshivaraju/brandguard/pkg/textutil"
)

var documentExts = map[string]bool{
	".txt": true,
	".md":  true,
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Sources int   `json:"sources"`
	Chunks  int   `json:"chunks"`
	Pruned  int64 `json:"pruned"`
}

// Ingest indexes every .txt and .md document under dir, replacing each
// source's previous chunks, and removes sources no longer present. A missing
// directory is logged and leaves the index untouched.
func (b *Base) Ingest(ctx context.Context, dir string) (IngestStats, error) {
	var stats IngestStats

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.Warn("knowledge base directory not found", "dir", dir)
		return stats, nil
	}

	var sources []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !documentExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		source := filepath.ToSlash(rel)

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", source, err)
		}
		chunks := b.chunk(source, string(raw))
		if err := b.store.ReplaceRuleChunks(ctx, source, chunks); err != nil {
			return err
		}

		slog.Debug("indexed document", "source", source, "chunks", len(chunks))
		sources = append(sources, source)
		stats.Sources++
		stats.Chunks += len(chunks)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("ingest %s: %w", dir, err)
	}

	if len(sources) == 0 {
		slog.Warn("no documents found in knowledge base directory", "dir", dir)
	}

	pruned, err := b.store.PruneSources(ctx, sources)
	if err != nil {
		return stats, err
	}
	stats.Pruned = pruned

	slog.Info("knowledge base indexed", "dir", dir, "sources", stats.Sources, "chunks", stats.Chunks, "pruned", stats.Pruned)
	return stats, nil
}

func (b *Base) chunk(source, text string) []models.RuleChunk {
	pieces := textutil.Chunk(textutil.Clean(text), b.opts.ChunkSize, b.opts.ChunkOverlap)
	chunks := make([]models.RuleChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = models.RuleChunk{Source: source, Ordinal: i, Content: p}
	}
	return chunks
}
