package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// rankNormalization 32 maps ts_rank_cd into [0, 1) as rank/(rank+1).
const rankNormalization = 32

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ReplaceRuleChunks(ctx context.Context, source string, chunks []models.RuleChunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", source, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rule_chunks WHERE source = $1`, source); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", source, err)
	}

	rows := make([][]any, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, []any{source, c.Ordinal, c.Content})
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"rule_chunks"},
			[]string{"source", "ordinal", "content"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy chunks of %s: %w", source, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace %s: %w", source, err)
	}
	return nil
}

func (s *PostgresStore) PruneSources(ctx context.Context, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM rule_chunks WHERE NOT (source = ANY($1))`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune sources: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) SearchRuleChunks(ctx context.Context, tsquery string, limit int, minScore float64) ([]models.ScoredChunk, error) {
	if tsquery == "" || limit <= 0 {
		return []models.ScoredChunk{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT source, ordinal, content, score FROM (
			SELECT source, ordinal, content, ts_rank_cd(content_tsv, q, $4) AS score
			FROM rule_chunks, to_tsquery('english', $1) AS q
			WHERE content_tsv @@ q
		) ranked
		WHERE score >= $3
		ORDER BY score DESC, source, ordinal
		LIMIT $2`,
		tsquery, limit, minScore, rankNormalization)
	if err != nil {
		return nil, fmt.Errorf("search rule chunks: %w", err)
	}
	defer rows.Close()

	out := []models.ScoredChunk{}
	for rows.Next() {
		var c models.ScoredChunk
		var score float32
		if err := rows.Scan(&c.Source, &c.Ordinal, &c.Content, &score); err != nil {
			return nil, fmt.Errorf("scan rule chunk: %w", err)
		}
		c.Score = float64(score)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountRuleChunks(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rule_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rule chunks: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListSources(ctx context.Context) ([]models.SourceSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, COUNT(*), MAX(created_at) FROM rule_chunks GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	out := []models.SourceSummary{}
	for rows.Next() {
		var src models.SourceSummary
		if err := rows.Scan(&src.Source, &src.Chunks, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
