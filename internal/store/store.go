package store

import (
	"context"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Store is the data access interface for the regulatory rule index.
// All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// ReplaceRuleChunks atomically swaps every chunk of source for chunks.
	ReplaceRuleChunks(ctx context.Context, source string, chunks []models.RuleChunk) error
	// PruneSources deletes the chunks of every source not named in keep.
	PruneSources(ctx context.Context, keep []string) (int64, error)
	// SearchRuleChunks runs a to_tsquery expression against the index and
	// returns at most limit hits scoring at least minScore, best first.
	SearchRuleChunks(ctx context.Context, tsquery string, limit int, minScore float64) ([]models.ScoredChunk, error)
	CountRuleChunks(ctx context.Context) (int64, error)
	ListSources(ctx context.Context) ([]models.SourceSummary, error)
}
