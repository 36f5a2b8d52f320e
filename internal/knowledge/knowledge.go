// Package knowledge indexes the regulatory rule corpus and retrieves the
// passages most relevant to an ad's content.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/kiranshivaraju/brandguard/internal/cache"
	"github.com/kiranshivaraju/brandguard/internal/store"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// maxQueryTerms bounds the OR'd full-text query built from a transcript.
const maxQueryTerms = 64

// Options tune ingestion and retrieval.
type Options struct {
	MinScore     float64
	ChunkSize    int
	ChunkOverlap int
	CacheTTL     time.Duration
}

// Base is the knowledge base backed by the rule store, with an optional
// retrieval cache in front of it.
type Base struct {
	store store.Store
	cache cache.Cache
	opts  Options
}

// New creates a Base. c may be nil to disable retrieval caching.
func New(st store.Store, c cache.Cache, opts Options) *Base {
	return &Base{store: st, cache: c, opts: opts}
}

// Retrieve returns up to k source-tagged passages relevant to query. An
// empty query or an empty index yields no passages.
func (b *Base) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	tsq := BuildQuery(query)
	if tsq == "" || k <= 0 {
		return []string{}, nil
	}

	key := cache.RetrievalKey(tsq, k, b.opts.MinScore)
	if passages, ok := b.cached(ctx, key); ok {
		return passages, nil
	}

	hits, err := b.store.SearchRuleChunks(ctx, tsq, k, b.opts.MinScore)
	if err != nil {
		return nil, err
	}

	passages := make([]string, 0, len(hits))
	for i, h := range hits {
		slog.Debug("rule chunk retrieved", "rank", i+1, "score", h.Score, "source", h.Source, "chunk", h.Ordinal)
		passages = append(passages, FormatPassage(h.RuleChunk))
	}
	b.remember(ctx, key, passages)
	return passages, nil
}

// Search returns the scored hits for query without formatting or caching.
func (b *Base) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	tsq := BuildQuery(query)
	if tsq == "" {
		return []models.ScoredChunk{}, nil
	}
	return b.store.SearchRuleChunks(ctx, tsq, k, b.opts.MinScore)
}

// Ready reports whether at least one rule chunk is indexed.
func (b *Base) Ready(ctx context.Context) bool {
	n, err := b.store.CountRuleChunks(ctx)
	if err != nil {
		slog.Warn("knowledge base readiness check failed", "error", err)
		return false
	}
	return n > 0
}

// Sources lists the indexed documents.
func (b *Base) Sources(ctx context.Context) ([]models.SourceSummary, error) {
	return b.store.ListSources(ctx)
}

func (b *Base) cached(ctx context.Context, key string) ([]string, bool) {
	if b.cache == nil {
		return nil, false
	}
	passages, found, err := cache.GetJSON[[]string](ctx, b.cache, key)
	if err != nil {
		slog.Warn("retrieval cache read failed", "key", key, "error", err)
		return nil, false
	}
	return passages, found
}

func (b *Base) remember(ctx context.Context, key string, passages []string) {
	if b.cache == nil || b.opts.CacheTTL <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, b.cache, key, passages, b.opts.CacheTTL); err != nil {
		slog.Warn("retrieval cache write failed", "key", key, "error", err)
	}
}

// BuildQuery turns free text into an OR'd to_tsquery expression over its
// distinct alphanumeric terms, in first-seen order. Only letters and digits
// reach the expression, so it is always syntactically valid.
func BuildQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, min(len(fields), maxQueryTerms))
	for _, f := range fields {
		if len([]rune(f)) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return strings.Join(terms, " | ")
}

// FormatPassage renders a chunk with the source tag the judge cites.
func FormatPassage(c models.RuleChunk) string {
	return fmt.Sprintf("[Source: %s, Chunk %d]\n%s", c.Source, c.Ordinal, c.Content)
}
