// Package indexer builds class maps by scanning the source trees behind
// alias roots. Its output is either a manifest file or the sqlite symbol
// index, and both store alias paths so they survive moving the app.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"symres/internal/alias"
	"symres/internal/classmap"
	"symres/internal/errors"
	"symres/internal/paths"
	"symres/internal/storage"
	"symres/internal/symbols"
)

// Options selects what to scan.
type Options struct {
	// Roots are alias names, e.g. "@app".
	Roots     []string
	Ignore    []string
	Extension string
}

// Duplicate is a symbol declared by more than one file. The first file in
// walk order is kept.
type Duplicate struct {
	Symbol string `json:"symbol"`
	Kept   string `json:"kept"`
	Other  string `json:"other"`
}

// Result is the outcome of a scan.
type Result struct {
	Roots      []string             `json:"roots"`
	Entries    []storage.IndexEntry `json:"entries"`
	Duplicates []Duplicate          `json:"duplicates,omitempty"`
	Duration   time.Duration        `json:"duration"`
}

// Manifest converts the result into a class-map manifest.
func (r *Result) Manifest() *classmap.Manifest {
	man := &classmap.Manifest{Version: classmap.CurrentVersion, Symbols: make(map[string]string, len(r.Entries))}
	for _, e := range r.Entries {
		man.Symbols[e.Symbol] = e.Path
	}
	return man
}

// Indexer scans alias roots for declarations.
type Indexer struct {
	aliases   *alias.Table
	extractor *symbols.Extractor
	logger    *slog.Logger
}

// New creates an indexer.
func New(aliases *alias.Table, extractor *symbols.Extractor, logger *slog.Logger) *Indexer {
	return &Indexer{aliases: aliases, extractor: extractor, logger: logger}
}

// Scan walks every root and returns its declarations sorted by symbol.
func (ix *Indexer) Scan(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Extension == "" {
		opts.Extension = ".php"
	}

	result := &Result{}
	seen := make(map[string]int)

	for _, root := range opts.Roots {
		root = alias.Normalize(root)
		dir, err := ix.aliases.Get(root)
		if err != nil {
			return nil, err
		}
		if !paths.IsDir(dir) {
			return nil, errors.Newf(errors.SourceMissing, "index root %s (%s) is not a directory", root, dir)
		}

		decls, err := ix.extractor.ExtractDirectory(ctx, dir, opts.Extension, opts.Ignore)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}

		for _, d := range decls {
			rel, err := paths.CanonicalizePath(d.Path, dir)
			if err != nil {
				return nil, fmt.Errorf("failed to relativize %s: %w", d.Path, err)
			}
			entry := storage.IndexEntry{
				Symbol: d.Name,
				Path:   root + "/" + rel,
				Kind:   d.Kind,
				Line:   d.Line,
			}

			if i, dup := seen[d.Name]; dup {
				result.Duplicates = append(result.Duplicates, Duplicate{
					Symbol: d.Name,
					Kept:   result.Entries[i].Path,
					Other:  entry.Path,
				})
				ix.logger.Warn("Duplicate declaration", "symbol", d.Name, "kept", result.Entries[i].Path, "other", entry.Path)
				continue
			}
			seen[d.Name] = len(result.Entries)
			result.Entries = append(result.Entries, entry)
		}
		result.Roots = append(result.Roots, root)
	}

	sort.Slice(result.Entries, func(i, j int) bool { return result.Entries[i].Symbol < result.Entries[j].Symbol })
	result.Duration = time.Since(start)

	ix.logger.Info("Scanned index roots",
		"roots", len(result.Roots),
		"symbols", len(result.Entries),
		"duplicates", len(result.Duplicates),
		"duration", result.Duration,
	)
	return result, nil
}

// Write stores a scan result at output. A .db path is written as a sqlite
// symbol index and returns the recorded run; anything else is written as a
// manifest in the format its name implies.
func (ix *Indexer) Write(ctx context.Context, output string, result *Result) (*storage.IndexRun, error) {
	format, _, err := classmap.DetectFormat(output)
	if err != nil {
		return nil, err
	}

	if format != classmap.FormatSQLite {
		if err := classmap.Write(output, result.Manifest()); err != nil {
			return nil, err
		}
		ix.logger.Info("Wrote manifest", "path", output, "symbols", len(result.Entries))
		return nil, nil
	}

	db, err := storage.OpenPath(output, ix.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return storage.NewIndexStore(db).Replace(ctx, result.Roots, result.Entries)
}
