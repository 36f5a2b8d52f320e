package knowledge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// memStore is an in-memory store whose search scores a chunk by the share
// of query terms it contains.
type memStore struct {
	mu        sync.Mutex
	chunks    map[string][]models.RuleChunk
	searches  []string
	countErr  error
	searchErr error
}

func newMemStore() *memStore {
	return &memStore{chunks: map[string][]models.RuleChunk{}}
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) ReplaceRuleChunks(_ context.Context, source string, chunks []models.RuleChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[source] = chunks
	return nil
}

func (s *memStore) PruneSources(_ context.Context, keep []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := map[string]bool{}
	for _, k := range keep {
		kept[k] = true
	}
	var n int64
	for src, cs := range s.chunks {
		if !kept[src] {
			n += int64(len(cs))
			delete(s.chunks, src)
		}
	}
	return n, nil
}

func (s *memStore) SearchRuleChunks(_ context.Context, tsquery string, limit int, minScore float64) ([]models.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, tsquery)
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	terms := strings.Split(tsquery, " | ")
	var hits []models.ScoredChunk
	for _, cs := range s.chunks {
		for _, c := range cs {
			lower := strings.ToLower(c.Content)
			matched := 0
			for _, t := range terms {
				if strings.Contains(lower, t) {
					matched++
				}
			}
			score := float64(matched) / float64(len(terms))
			if matched > 0 && score >= minScore {
				hits = append(hits, models.ScoredChunk{RuleChunk: c, Score: score})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Source != hits[j].Source {
			return hits[i].Source < hits[j].Source
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *memStore) CountRuleChunks(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	var n int64
	for _, cs := range s.chunks {
		n += int64(len(cs))
	}
	return n, nil
}

func (s *memStore) ListSources(context.Context) ([]models.SourceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SourceSummary{}
	for src, cs := range s.chunks {
		out = append(out, models.SourceSummary{Source: src, Chunks: len(cs), UpdatedAt: time.Now()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

func (s *memStore) searchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searches)
}

// memCache is a map-backed cache.Cache; failing makes every call error.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

var errCacheDown = errors.New("redis: connection refused")

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errCacheDown
	}
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return nil, false, errCacheDown
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

func (c *memCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}
