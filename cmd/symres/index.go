package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"symres/internal/alias"
	"symres/internal/bootstrap"
	"symres/internal/indexer"
	"symres/internal/paths"
	"symres/internal/symbols"
)

// IndexResponse is the response for index
type IndexResponse struct {
	Roots      []string            `json:"roots"`
	Output     string              `json:"output,omitempty"`
	Symbols    int                 `json:"symbols"`
	Duplicates []indexer.Duplicate `json:"duplicates,omitempty"`
	RunID      string              `json:"runId,omitempty"`
	DurationMs int64               `json:"durationMs"`
	DryRun     bool                `json:"dryRun,omitempty"`
}

type indexOptions struct {
	output string
	roots  []string
	dryRun bool
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	iopts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build a class map by scanning alias roots",
		Long: `Scan the configured alias roots for declarations and write a class map.

The output path decides the format: .db writes the sqlite symbol index,
any manifest extension writes a manifest. Paths are stored as aliases, so
the result stays valid when the application moves.

Examples:
  symres index                               # .symres/index.db from index.roots
  symres index --root @app --root @vendor
  symres index --output @runtime/classes.json.zst
  symres index --dry-run --format json`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, args []string) error {
			return runIndex(ctx, s, iopts)
		}),
	}

	cmd.Flags().StringVar(&iopts.output, "output", "", "Output path or alias (default: index.output or .symres/index.db)")
	cmd.Flags().StringSliceVar(&iopts.roots, "root", nil, "Alias root to scan, repeatable (default: index.roots)")
	cmd.Flags().BoolVar(&iopts.dryRun, "dry-run", false, "Scan without writing anything")
	return cmd
}

func runIndex(ctx context.Context, s *session, iopts *indexOptions) error {
	cfg := s.config()

	aliases, err := bootstrap.Aliases(cfg, s.logger)
	if err != nil {
		return err
	}

	roots := cfg.Index.Roots
	if len(iopts.roots) > 0 {
		roots = iopts.roots
	}

	ix := indexer.New(aliases, symbols.NewExtractor(), s.logger)
	result, err := ix.Scan(ctx, indexer.Options{
		Roots:     roots,
		Ignore:    cfg.Index.Ignore,
		Extension: cfg.Autoload.Extension,
	})
	if err != nil {
		return err
	}

	resp := &IndexResponse{
		Roots:      result.Roots,
		Symbols:    len(result.Entries),
		Duplicates: result.Duplicates,
		DurationMs: result.Duration.Milliseconds(),
		DryRun:     iopts.dryRun,
	}
	if iopts.dryRun {
		return s.print(resp)
	}

	output, err := indexOutput(s, aliases, iopts.output)
	if err != nil {
		return err
	}

	projectDir, err := paths.EnsureProjectDir(s.dir)
	if err != nil {
		return err
	}
	lock, err := indexer.AcquireLock(projectDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	run, err := ix.Write(ctx, output, result)
	if err != nil {
		return err
	}
	resp.Output = output
	if run != nil {
		resp.RunID = run.RunID
	}
	return s.print(resp)
}

// indexOutput picks the output path: flag, then config, then the default
// symbol index.
func indexOutput(s *session, aliases *alias.Table, flag string) (string, error) {
	out := flag
	if out == "" {
		out = s.config().Index.Output
	}
	if out == "" {
		return paths.GetIndexDBPath(s.dir), nil
	}
	if alias.IsAlias(out) {
		return aliases.Get(out)
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(s.dir, out)
	}
	return out, nil
}
