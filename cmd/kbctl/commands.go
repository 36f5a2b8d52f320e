package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/textutil"
	"github.com/spf13/cobra"
)

const (
	excerptBytes = 72
	stampLayout  = "2006-01-02 15:04"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := ctx.migrate(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index the rule documents in dir (defaults to KNOWLEDGE_BASE_DIR)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKnowledgeBase(cmd.Context(), func(cfg *config.Config, kb knowledgeBase) error {
				dir := cfg.Knowledge.Dir
				if len(args) == 1 {
					dir = args[0]
				}
				stats, err := kb.Ingest(cmd.Context(), dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d sources in %s (%d stale chunks pruned)\n",
					stats.Chunks, stats.Sources, dir, stats.Pruned)
				return nil
			})
		},
	}
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the rule chunks an audit would retrieve for query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKnowledgeBase(cmd.Context(), func(cfg *config.Config, kb knowledgeBase) error {
				limit := k
				if limit <= 0 {
					limit = cfg.Audit.RetrievalTopK
				}
				hits, err := kb.Search(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(hits) == 0 {
					fmt.Fprintln(out, "No matching rules")
					return nil
				}
				rows := make([][]string, 0, len(hits))
				for i, h := range hits {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						strconv.FormatFloat(h.Score, 'f', 4, 64),
						h.Source,
						strconv.Itoa(h.Ordinal),
						excerpt(h.Content),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Rank", "Score", "Source", "Chunk", "Excerpt"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&k, "top", "k", 0, "Number of hits to show (defaults to AUDIT_RETRIEVAL_TOP_K)")
	return cmd
}

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List indexed rule documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withKnowledgeBase(cmd.Context(), func(_ *config.Config, kb knowledgeBase) error {
				sources, err := kb.Sources(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sources) == 0 {
					fmt.Fprintln(out, "Knowledge base is empty")
					return nil
				}
				rows := make([][]string, 0, len(sources))
				for _, s := range sources {
					rows = append(rows, []string{
						s.Source,
						strconv.Itoa(s.Chunks),
						s.UpdatedAt.Local().Format(stampLayout),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Source", "Chunks", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

// excerpt flattens content onto one line for table display.
func excerpt(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) <= excerptBytes {
		return flat
	}
	return textutil.Truncate(flat, excerptBytes-3) + "..."
}
