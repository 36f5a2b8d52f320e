package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/internal/knowledge"
	"github.com/kiranshivaraju/brandguard/internal/store"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// knowledgeBase is the slice of knowledge.Base the commands use.
type knowledgeBase interface {
	Ingest(ctx context.Context, dir string) (knowledge.IngestStats, error)
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
	Sources(ctx context.Context) ([]models.SourceSummary, error)
}

type commandContext struct {
	configFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	openKB  func(ctx context.Context, cfg *config.Config) (knowledgeBase, func(), error)
	migrate func(cfg *config.Config) error
}

func newCommandContext() *commandContext {
	return &commandContext{
		openKB:  openKnowledgeBase,
		migrate: runMigrations,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(c.configFlag); path != "" {
			if err := os.Setenv(config.FileEnvVar, path); err != nil {
				c.configErr = err
				return
			}
		}
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) withKnowledgeBase(ctx context.Context, fn func(*config.Config, knowledgeBase) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	kb, closeFn, err := c.openKB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cfg, kb)
}

// openKnowledgeBase connects to Postgres directly. The CLI never reads the
// retrieval cache, so Redis is not dialled.
func openKnowledgeBase(ctx context.Context, cfg *config.Config) (knowledgeBase, func(), error) {
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	kb := knowledge.New(store.NewPostgresStore(pool), nil, knowledge.Options{
		MinScore:     cfg.Knowledge.MinScore,
		ChunkSize:    cfg.Knowledge.ChunkSize,
		ChunkOverlap: cfg.Knowledge.ChunkOverlap,
	})
	return kb, pool.Close, nil
}

func runMigrations(cfg *config.Config) error {
	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
